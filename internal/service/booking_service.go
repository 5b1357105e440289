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

type bookingStore interface {
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error)
	Create(ctx context.Context, booking *models.Booking) error
	Reschedule(ctx context.Context, booking *models.Booking) error
	UpdateStatus(ctx context.Context, id string, status models.BookingStatus) error
}

type serviceCatalog interface {
	FindByID(ctx context.Context, id string) (*models.Service, error)
}

type slotChecker interface {
	CheckAvailability(ctx context.Context, q models.SlotQuery) models.AvailabilityResult
	Location() *time.Location
	Now() time.Time
}

type bookingEventPublisher interface {
	Publish(ctx context.Context, event models.BookingEvent)
}

type bookingMutationRecorder interface {
	RecordBookingMutation(operation, outcome string)
}

// BookingService validates and writes bookings. Every write is checked by the
// availability engine first; the bookings exclusion constraint settles races.
type BookingService struct {
	repo         bookingStore
	services     serviceCatalog
	availability slotChecker
	events       bookingEventPublisher
	metrics      bookingMutationRecorder
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewBookingService builds a BookingService.
func NewBookingService(
	repo bookingStore,
	services serviceCatalog,
	availability slotChecker,
	events bookingEventPublisher,
	validate *validator.Validate,
	logger *zap.Logger,
) *BookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{
		repo:         repo,
		services:     services,
		availability: availability,
		events:       events,
		validator:    newScheduleValidator(validate),
		logger:       logger,
	}
}

// WithMetrics attaches a mutation counter.
func (s *BookingService) WithMetrics(recorder bookingMutationRecorder) *BookingService {
	s.metrics = recorder
	return s
}

// CheckSlot answers an availability query without writing anything.
func (s *BookingService) CheckSlot(ctx context.Context, req dto.AvailabilityCheckRequest) (models.AvailabilityResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.AvailabilityResult{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	date, err := timeofday.ParseDate(req.Date, s.availability.Location())
	if err != nil {
		return models.AvailabilityResult{}, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}

	duration := req.DurationMinutes
	if duration <= 0 {
		duration = models.DefaultBookingDurationMinutes
		if req.ServiceID != "" {
			svc, err := s.resolveService(ctx, req.ServiceID)
			if err != nil {
				return models.AvailabilityResult{}, err
			}
			duration = svc.Duration()
		}
	}

	return s.availability.CheckAvailability(ctx, models.SlotQuery{
		StaffID:          req.StaffID,
		Date:             date,
		StartTime:        req.StartTime,
		DurationMinutes:  duration,
		ExcludeBookingID: req.ExcludeBookingID,
	}), nil
}

// Create books a slot.
func (s *BookingService) Create(ctx context.Context, req dto.CreateBookingRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	date, start, err := s.parseSlot(req.Date, req.StartTime)
	if err != nil {
		return nil, err
	}

	svc, err := s.resolveService(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}
	duration := svc.Duration()

	if err := s.ensureFuture(date, start); err != nil {
		return nil, err
	}

	res := s.availability.CheckAvailability(ctx, models.SlotQuery{
		StaffID:         req.StaffID,
		Date:            date,
		StartTime:       start,
		DurationMinutes: duration,
	})
	if !res.Valid {
		s.record("create", res.Code)
		return nil, rejection(res)
	}

	booking := &models.Booking{
		ID:              uuid.NewString(),
		StaffID:         req.StaffID,
		ClientID:        req.ClientID,
		ServiceID:       req.ServiceID,
		Date:            date,
		StartTime:       start,
		BookedMinutes:   duration,
		ServiceDuration: svc.DurationMinutes,
		Status:          models.BookingStatusScheduled,
		Notes:           req.Notes,
	}
	if err := s.repo.Create(ctx, booking); err != nil {
		s.record("create", "error")
		return nil, s.writeError(err, "failed to create booking")
	}

	s.record("create", "ok")
	s.publish(ctx, models.BookingEventCreated, booking, "")
	return booking, nil
}

// Reschedule moves a live booking to a new date and start time.
func (s *BookingService) Reschedule(ctx context.Context, id string, req dto.RescheduleBookingRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	booking, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot reschedule a %s booking", booking.Status))
	}

	date, start, err := s.parseSlot(req.Date, req.StartTime)
	if err != nil {
		return nil, err
	}
	if err := s.ensureFuture(date, start); err != nil {
		return nil, err
	}

	duration := booking.DurationMinutes()
	res := s.availability.CheckAvailability(ctx, models.SlotQuery{
		StaffID:          booking.StaffID,
		Date:             date,
		StartTime:        start,
		DurationMinutes:  duration,
		ExcludeBookingID: booking.ID,
	})
	if !res.Valid {
		s.record("reschedule", res.Code)
		return nil, rejection(res)
	}

	previousDate := timeofday.FormatDate(booking.Date)
	booking.Date = date
	booking.StartTime = start
	booking.BookedMinutes = duration
	if err := s.repo.Reschedule(ctx, booking); err != nil {
		s.record("reschedule", "error")
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "booking is no longer active")
		}
		return nil, s.writeError(err, "failed to reschedule booking")
	}

	s.record("reschedule", "ok")
	s.publish(ctx, models.BookingEventRescheduled, booking, previousDate)
	return booking, nil
}

// Cancel frees the slot of a live booking.
func (s *BookingService) Cancel(ctx context.Context, id string) (*models.Booking, error) {
	return s.UpdateStatus(ctx, id, dto.UpdateBookingStatusRequest{Status: string(models.BookingStatusCancelled)})
}

// UpdateStatus applies a lifecycle transition.
func (s *BookingService) UpdateStatus(ctx context.Context, id string, req dto.UpdateBookingStatusRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	booking, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next := models.BookingStatus(req.Status)
	if !booking.Status.CanTransitionTo(next) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot move booking from %s to %s", booking.Status, next))
	}
	if err := s.repo.UpdateStatus(ctx, id, next); err != nil {
		s.record("status", "error")
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update booking status")
	}
	booking.Status = next

	eventType := models.BookingEventStatusChanged
	if next == models.BookingStatusCancelled {
		eventType = models.BookingEventCancelled
	}
	s.record("status", "ok")
	s.publish(ctx, eventType, booking, "")
	return booking, nil
}

// Get loads a booking.
func (s *BookingService) Get(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}
	return booking, nil
}

// List returns bookings visible to claims. Barbers only see their own chair.
func (s *BookingService) List(ctx context.Context, query dto.BookingQuery, claims *models.JWTClaims) ([]models.Booking, *models.Pagination, error) {
	if claims == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid filter")
	}

	filter := models.BookingFilter{
		StaffID:  query.StaffID,
		ClientID: query.ClientID,
		DateFrom: query.DateFrom,
		DateTo:   query.DateTo,
		Status:   models.BookingStatus(query.Status),
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	switch claims.Role {
	case models.RoleOwner, models.RoleAdmin:
	case models.RoleBarber:
		if claims.StaffID == "" {
			return nil, nil, appErrors.ErrForbidden
		}
		filter.StaffID = claims.StaffID
	default:
		return nil, nil, appErrors.ErrForbidden
	}

	bookings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

func (s *BookingService) parseSlot(date, start string) (time.Time, string, error) {
	day, err := timeofday.ParseDate(date, s.availability.Location())
	if err != nil {
		return time.Time{}, "", appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	normalized, err := timeofday.Normalize(start)
	if err != nil {
		return time.Time{}, "", appErrors.Clone(appErrors.ErrValidation, "start time must be HH:MM")
	}
	return day, normalized, nil
}

func (s *BookingService) ensureFuture(date time.Time, start string) error {
	at, err := timeofday.At(date, start, s.availability.Location())
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "start time must be HH:MM")
	}
	if !at.After(s.availability.Now()) {
		return appErrors.Clone(appErrors.ErrValidation, "start time must be in the future")
	}
	return nil
}

func (s *BookingService) resolveService(ctx context.Context, id string) (*models.Service, error) {
	svc, err := s.services.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "service not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load service")
	}
	return svc, nil
}

func (s *BookingService) writeError(err error, message string) error {
	switch {
	case errors.Is(err, repository.ErrSlotTaken):
		return appErrors.Clone(appErrors.ErrSlotUnavailable, "time slot already booked")
	case errors.Is(err, repository.ErrMissingReference):
		return appErrors.Clone(appErrors.ErrValidation, "referenced staff or client does not exist")
	}
	s.logger.Error(message, zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *models.Booking, previousDate string) {
	if s.events == nil {
		return
	}
	event := models.BookingEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		BookingID:  booking.ID,
		StaffID:    booking.StaffID,
		Date:       timeofday.FormatDate(booking.Date),
		StartTime:  booking.StartTime,
		Status:     booking.Status,
		OccurredAt: time.Now().UTC(),
	}
	if previousDate != event.Date {
		event.PreviousDate = previousDate
	}
	s.events.Publish(ctx, event)
}

func (s *BookingService) record(operation, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordBookingMutation(operation, outcome)
	}
}

// rejection converts a failing engine verdict into an API error carrying it.
func rejection(res models.AvailabilityResult) error {
	if res.Retryable() {
		return appErrors.WithDetails(appErrors.ErrAvailabilityUnverified, res)
	}
	if res.Code == models.ReasonInvalidInput {
		return appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, res.Error), res)
	}
	return appErrors.WithDetails(appErrors.Clone(appErrors.ErrSlotUnavailable, res.Error), res)
}
