package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/barbershop-api/internal/dto"
	"github.com/noah-isme/barbershop-api/internal/models"
	"github.com/noah-isme/barbershop-api/internal/repository"
	appErrors "github.com/noah-isme/barbershop-api/pkg/errors"
	"github.com/noah-isme/barbershop-api/pkg/timeofday"
)

type workingHoursStore interface {
	ListByStaff(ctx context.Context, staffID string) ([]models.WorkingHoursRule, error)
	ReplaceForStaff(ctx context.Context, staffID string, rules []models.WorkingHoursRule) error
}

type overrideStore interface {
	ListByStaffAndDate(ctx context.Context, staffID, date string) ([]models.AvailabilityOverride, error)
	FindByID(ctx context.Context, id string) (*models.AvailabilityOverride, error)
	Create(ctx context.Context, override *models.AvailabilityOverride) error
	Delete(ctx context.Context, id string) error
}

// WorkingHoursService administers weekly schedules.
type WorkingHoursService struct {
	repo      workingHoursStore
	events    bookingEventPublisher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWorkingHoursService builds a WorkingHoursService.
func NewWorkingHoursService(repo workingHoursStore, events bookingEventPublisher, validate *validator.Validate, logger *zap.Logger) *WorkingHoursService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkingHoursService{repo: repo, events: events, validator: newScheduleValidator(validate), logger: logger}
}

// List returns the weekly rules of a staff member.
func (s *WorkingHoursService) List(ctx context.Context, staffID string) ([]models.WorkingHoursRule, error) {
	rules, err := s.repo.ListByStaff(ctx, staffID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list working hours")
	}
	if rules == nil {
		rules = []models.WorkingHoursRule{}
	}
	return rules, nil
}

// Replace swaps the whole weekly schedule. At most one active rule per weekday.
func (s *WorkingHoursService) Replace(ctx context.Context, staffID string, req dto.ReplaceWorkingHoursRequest) ([]models.WorkingHoursRule, error) {
	if staffID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "staff is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	activeDays := make(map[int]bool)
	rules := make([]models.WorkingHoursRule, 0, len(req.Rules))
	for _, in := range req.Rules {
		start, end, err := normalizeWindow(in.StartTime, in.EndTime)
		if err != nil {
			return nil, err
		}
		active := in.IsActive == nil || *in.IsActive
		day := *in.DayOfWeek
		if active {
			if activeDays[day] {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("more than one active rule for day %d", day))
			}
			activeDays[day] = true
		}
		rules = append(rules, models.WorkingHoursRule{
			StaffID:   staffID,
			DayOfWeek: day,
			StartTime: start,
			EndTime:   end,
			IsActive:  active,
		})
	}

	if err := s.repo.ReplaceForStaff(ctx, staffID, rules); err != nil {
		switch {
		case errors.Is(err, repository.ErrMissingReference):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "staff not found")
		case errors.Is(err, repository.ErrDuplicate):
			return nil, appErrors.Clone(appErrors.ErrConflict, "more than one active rule for a day")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace working hours")
	}

	s.logger.Info("working hours replaced", zap.String("staff_id", staffID), zap.Int("rules", len(rules)))
	publishScheduleChange(ctx, s.events, staffID, "")
	return rules, nil
}

// OverrideService administers date-specific availability exceptions.
type OverrideService struct {
	repo      overrideStore
	events    bookingEventPublisher
	loc       *time.Location
	validator *validator.Validate
	logger    *zap.Logger
}

// NewOverrideService builds an OverrideService. Dates are read in loc.
func NewOverrideService(repo overrideStore, events bookingEventPublisher, loc *time.Location, validate *validator.Validate, logger *zap.Logger) *OverrideService {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverrideService{repo: repo, events: events, loc: loc, validator: newScheduleValidator(validate), logger: logger}
}

// List returns the overrides of a staff member on date.
func (s *OverrideService) List(ctx context.Context, staffID, date string) ([]models.AvailabilityOverride, error) {
	if _, err := timeofday.ParseDate(date, s.loc); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	overrides, err := s.repo.ListByStaffAndDate(ctx, staffID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list overrides")
	}
	if overrides == nil {
		overrides = []models.AvailabilityOverride{}
	}
	return overrides, nil
}

// Create adds an override. A date keeps at most one narrowing window.
func (s *OverrideService) Create(ctx context.Context, staffID string, req dto.CreateOverrideRequest) (*models.AvailabilityOverride, error) {
	if staffID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "staff is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	date, err := timeofday.ParseDate(req.Date, s.loc)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	start, end, err := normalizeWindow(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	if req.IsAvailable {
		existing, err := s.repo.ListByStaffAndDate(ctx, staffID, req.Date)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load overrides")
		}
		for _, o := range existing {
			if o.IsAvailable {
				return nil, errNarrowingExists
			}
		}
	}

	override := &models.AvailabilityOverride{
		ID:          uuid.NewString(),
		StaffID:     staffID,
		Date:        date,
		StartTime:   start,
		EndTime:     end,
		IsAvailable: req.IsAvailable,
		Reason:      req.Reason,
	}
	if err := s.repo.Create(ctx, override); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, errNarrowingExists
		case errors.Is(err, repository.ErrMissingReference):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "staff not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create override")
	}

	publishScheduleChange(ctx, s.events, staffID, req.Date)
	return override, nil
}

// Delete removes an override.
func (s *OverrideService) Delete(ctx context.Context, id string) error {
	override, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "override not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load override")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "override not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete override")
	}

	publishScheduleChange(ctx, s.events, override.StaffID, timeofday.FormatDate(override.Date))
	return nil
}

var errNarrowingExists = appErrors.Clone(appErrors.ErrConflict, "a narrowing window already exists for this date")

func normalizeWindow(startRaw, endRaw string) (string, string, error) {
	start, err := timeofday.Parse(startRaw)
	if err != nil {
		return "", "", appErrors.Clone(appErrors.ErrValidation, "start time must be HH:MM")
	}
	end, err := timeofday.Parse(endRaw)
	if err != nil {
		return "", "", appErrors.Clone(appErrors.ErrValidation, "end time must be HH:MM")
	}
	if start >= end {
		return "", "", appErrors.Clone(appErrors.ErrValidation, "start time must be before end time")
	}
	return timeofday.Format(start), timeofday.Format(end), nil
}

func publishScheduleChange(ctx context.Context, events bookingEventPublisher, staffID, date string) {
	if events == nil {
		return
	}
	events.Publish(ctx, models.BookingEvent{
		ID:         uuid.NewString(),
		Type:       models.ScheduleEventChanged,
		StaffID:    staffID,
		Date:       date,
		OccurredAt: time.Now().UTC(),
	})
}
