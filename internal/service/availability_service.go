package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/noah-isme/barbershop-api/internal/models"
	appErrors "github.com/noah-isme/barbershop-api/pkg/errors"
	"github.com/noah-isme/barbershop-api/pkg/timeofday"
)

// SlotInterval is the fixed spacing of the kiosk slot grid.
const SlotInterval = 30

const (
	msgNotWorkingDay       = "barber does not work this day"
	msgOutsideHours        = "outside business hours"
	msgUnverifiedHours     = "could not verify working hours"
	msgUnverifiedBookings  = "could not verify existing bookings"
	msgUnverifiedOverrides = "could not verify availability overrides"
	msgUnverified          = "could not verify availability"
	msgClosedByOverride    = "barber is not available on this date"
)

type workingHoursReader interface {
	FindActive(ctx context.Context, staffID string, dayOfWeek int) (*models.WorkingHoursRule, error)
}

type activeBookingLister interface {
	ListActiveByStaffAndDate(ctx context.Context, staffID, date, excludeID string) ([]models.Booking, error)
}

type overrideLister interface {
	ListByStaffAndDate(ctx context.Context, staffID, date string) ([]models.AvailabilityOverride, error)
}

type availabilityRecorder interface {
	RecordAvailabilityCheck(code string, duration time.Duration)
}

type queryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// AvailabilityService decides whether a candidate slot can be booked and
// enumerates a staff member's slot grid for a day. It only reads.
type AvailabilityService struct {
	hours     workingHoursReader
	bookings  activeBookingLister
	overrides overrideLister
	metrics   availabilityRecorder
	queries   queryObserver
	logger    *zap.Logger
	tracer    trace.Tracer
	loc       *time.Location
	now       func() time.Time
}

// NewAvailabilityService wires the engine to its record readers.
func NewAvailabilityService(hours workingHoursReader, bookings activeBookingLister, overrides overrideLister, logger *zap.Logger) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{
		hours:     hours,
		bookings:  bookings,
		overrides: overrides,
		logger:    logger,
		tracer:    otel.Tracer("github.com/noah-isme/barbershop-api/internal/service/availability"),
		loc:       time.UTC,
		now:       time.Now,
	}
}

// WithClock sets the shop location and time source used for "today".
func (s *AvailabilityService) WithClock(loc *time.Location, now func() time.Time) *AvailabilityService {
	if loc != nil {
		s.loc = loc
	}
	if now != nil {
		s.now = now
	}
	return s
}

// WithMetrics attaches an outcome recorder for CheckAvailability. Recorders
// that also observe query timings get the engine's record store reads.
func (s *AvailabilityService) WithMetrics(recorder availabilityRecorder) *AvailabilityService {
	s.metrics = recorder
	if observer, ok := recorder.(queryObserver); ok {
		s.queries = observer
	}
	return s
}

func (s *AvailabilityService) observe(label string, started time.Time) {
	if s.queries != nil {
		s.queries.ObserveDBQuery(label, time.Since(started))
	}
}

// Location returns the shop timezone.
func (s *AvailabilityService) Location() *time.Location {
	return s.loc
}

// Now returns the current instant according to the injected clock.
func (s *AvailabilityService) Now() time.Time {
	return s.now()
}

type candidate struct {
	start int
	end   int
}

func parseCandidate(q models.SlotQuery) (candidate, *models.AvailabilityResult) {
	if q.StaffID == "" {
		res := models.Unavailable(models.ReasonInvalidInput, "staff is required")
		return candidate{}, &res
	}
	if q.Date.IsZero() {
		res := models.Unavailable(models.ReasonInvalidInput, "date is required")
		return candidate{}, &res
	}
	if q.DurationMinutes <= 0 {
		res := models.Unavailable(models.ReasonInvalidInput, "duration must be positive")
		return candidate{}, &res
	}
	if q.DurationMinutes > timeofday.MinutesPerDay {
		res := models.Unavailable(models.ReasonInvalidInput, "duration exceeds one day")
		return candidate{}, &res
	}
	start, err := timeofday.Parse(q.StartTime)
	if err != nil {
		res := models.Unavailable(models.ReasonInvalidInput, "start time must be HH:MM")
		return candidate{}, &res
	}
	return candidate{start: start, end: start + q.DurationMinutes}, nil
}

// CheckWorkingHours verifies the candidate falls inside the active weekly rule
// for the date's weekday.
func (s *AvailabilityService) CheckWorkingHours(ctx context.Context, q models.SlotQuery) models.AvailabilityResult {
	ctx, span := s.startSpan(ctx, "availability.working_hours", q)
	defer span.End()

	res := s.checkWorkingHours(ctx, q)
	endSpan(span, res)
	return res
}

func (s *AvailabilityService) checkWorkingHours(ctx context.Context, q models.SlotQuery) models.AvailabilityResult {
	c, invalid := parseCandidate(q)
	if invalid != nil {
		return *invalid
	}

	started := time.Now()
	rule, err := s.hours.FindActive(ctx, q.StaffID, int(q.Date.Weekday()))
	s.observe("working_hours", started)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Unavailable(models.ReasonNotWorkingDay, msgNotWorkingDay)
		}
		s.logger.Error("working hours lookup failed", zap.String("staff_id", q.StaffID), zap.Error(err))
		return models.Unavailable(models.ReasonUnverified, msgUnverifiedHours)
	}
	if rule == nil {
		return models.Unavailable(models.ReasonNotWorkingDay, msgNotWorkingDay)
	}

	ruleStart, errStart := timeofday.Parse(rule.StartTime)
	ruleEnd, errEnd := timeofday.Parse(rule.EndTime)
	if errStart != nil || errEnd != nil {
		s.logger.Error("malformed working hours rule", zap.String("rule_id", rule.ID), zap.String("start", rule.StartTime), zap.String("end", rule.EndTime))
		return models.Unavailable(models.ReasonUnverified, msgUnverifiedHours)
	}

	if c.start < ruleStart || c.end > ruleEnd {
		return models.Unavailable(models.ReasonOutsideHours, msgOutsideHours)
	}
	return models.Available()
}

// CheckAppointmentConflicts verifies no live booking of the staff member
// overlaps the candidate. ExcludeBookingID skips the booking being moved.
func (s *AvailabilityService) CheckAppointmentConflicts(ctx context.Context, q models.SlotQuery) models.AvailabilityResult {
	ctx, span := s.startSpan(ctx, "availability.conflicts", q)
	defer span.End()

	res := s.checkConflicts(ctx, q)
	endSpan(span, res)
	return res
}

func (s *AvailabilityService) checkConflicts(ctx context.Context, q models.SlotQuery) models.AvailabilityResult {
	c, invalid := parseCandidate(q)
	if invalid != nil {
		return *invalid
	}

	started := time.Now()
	bookings, err := s.bookings.ListActiveByStaffAndDate(ctx, q.StaffID, timeofday.FormatDate(q.Date), q.ExcludeBookingID)
	s.observe("active_bookings", started)
	if err != nil {
		s.logger.Error("booking lookup failed", zap.String("staff_id", q.StaffID), zap.Error(err))
		return models.Unavailable(models.ReasonUnverified, msgUnverifiedBookings)
	}

	for _, booking := range bookings {
		if booking.Status == models.BookingStatusCancelled || (q.ExcludeBookingID != "" && booking.ID == q.ExcludeBookingID) {
			continue
		}
		existingStart, err := timeofday.Parse(booking.StartTime)
		if err != nil {
			s.logger.Warn("skipping booking with malformed start time", zap.String("booking_id", booking.ID), zap.String("start_time", booking.StartTime))
			continue
		}
		existingEnd := existingStart + booking.DurationMinutes()
		if conflicts(c.start, c.end, existingStart, existingEnd) {
			return models.Unavailable(models.ReasonBookingConflict, fmt.Sprintf("conflicts with existing booking at %s", timeofday.Format(existingStart)))
		}
	}
	return models.Available()
}

// conflicts applies the three-way overlap test: the candidate starts inside
// the booking, ends inside it, or fully covers it.
func conflicts(candStart, candEnd, existStart, existEnd int) bool {
	startsInside := candStart >= existStart && candStart < existEnd
	endsInside := candEnd > existStart && candEnd <= existEnd
	covers := candStart <= existStart && candEnd >= existEnd
	return startsInside || endsInside || covers
}

// CheckSpecificAvailability applies the date-specific overrides: blocked
// intervals reject overlapping candidates and narrowing windows must contain them.
func (s *AvailabilityService) CheckSpecificAvailability(ctx context.Context, q models.SlotQuery) models.AvailabilityResult {
	ctx, span := s.startSpan(ctx, "availability.overrides", q)
	defer span.End()

	res := s.checkOverrides(ctx, q)
	endSpan(span, res)
	return res
}

func (s *AvailabilityService) checkOverrides(ctx context.Context, q models.SlotQuery) models.AvailabilityResult {
	c, invalid := parseCandidate(q)
	if invalid != nil {
		return *invalid
	}

	started := time.Now()
	overrides, err := s.overrides.ListByStaffAndDate(ctx, q.StaffID, timeofday.FormatDate(q.Date))
	s.observe("overrides", started)
	if err != nil {
		s.logger.Error("override lookup failed", zap.String("staff_id", q.StaffID), zap.Error(err))
		return models.Unavailable(models.ReasonUnverified, msgUnverifiedOverrides)
	}
	if len(overrides) == 0 {
		return models.Available()
	}

	windowStart, windowEnd := 0, -1
	narrowed := false
	for _, o := range overrides {
		start, errStart := timeofday.Parse(o.StartTime)
		end, errEnd := timeofday.Parse(o.EndTime)
		if errStart != nil || errEnd != nil {
			s.logger.Error("malformed availability override", zap.String("override_id", o.ID))
			return models.Unavailable(models.ReasonUnverified, msgUnverifiedOverrides)
		}

		if !o.IsAvailable {
			if timeofday.Overlaps(c.start, c.end, start, end) {
				return models.Unavailable(models.ReasonBlocked, fmt.Sprintf("barber unavailable between %s and %s", timeofday.Format(start), timeofday.Format(end)))
			}
			continue
		}

		if !narrowed {
			windowStart, windowEnd = start, end
			narrowed = true
			continue
		}
		if start > windowStart {
			windowStart = start
		}
		if end < windowEnd {
			windowEnd = end
		}
	}

	if !narrowed {
		return models.Available()
	}
	if windowStart >= windowEnd {
		return models.Unavailable(models.ReasonOutsideWindow, msgClosedByOverride)
	}
	if c.start < windowStart || c.end > windowEnd {
		return models.Unavailable(models.ReasonOutsideWindow, fmt.Sprintf("barber only available between %s and %s on this date", timeofday.Format(windowStart), timeofday.Format(windowEnd)))
	}
	return models.Available()
}

// CheckAvailability runs working hours, booking conflicts and overrides in
// that order and returns the first rejection. Infrastructure failures of any
// sub-check collapse into a single UNVERIFIED verdict.
func (s *AvailabilityService) CheckAvailability(ctx context.Context, q models.SlotQuery) models.AvailabilityResult {
	started := time.Now()
	ctx, span := s.startSpan(ctx, "availability.check", q)
	defer span.End()

	res := s.checkAll(ctx, q)
	endSpan(span, res)

	if s.metrics != nil {
		code := res.Code
		if res.Valid {
			code = "OK"
		}
		s.metrics.RecordAvailabilityCheck(code, time.Since(started))
	}
	return res
}

func (s *AvailabilityService) checkAll(ctx context.Context, q models.SlotQuery) models.AvailabilityResult {
	checks := []func(context.Context, models.SlotQuery) models.AvailabilityResult{
		s.CheckWorkingHours,
		s.CheckAppointmentConflicts,
		s.CheckSpecificAvailability,
	}
	for _, check := range checks {
		res := check(ctx, q)
		if res.Valid {
			continue
		}
		if res.Code == models.ReasonUnverified {
			return models.Unavailable(models.ReasonUnverified, msgUnverified)
		}
		return res
	}
	return models.Available()
}

// ListTimeSlots enumerates the day's grid at SlotInterval spacing. Ticks that
// fall on a live booking are "already occupied"; ticks already past on today's
// date are "time has passed". Overrides are not consulted here, so a tick
// listed as available can still be rejected by CheckAvailability.
func (s *AvailabilityService) ListTimeSlots(ctx context.Context, staffID string, date time.Time, duration int) ([]models.TimeSlot, error) {
	ctx, span := s.tracer.Start(ctx, "availability.slots", trace.WithAttributes(
		attribute.String("staff.id", staffID),
		attribute.String("booking.date", timeofday.FormatDate(date)),
		attribute.Int("booking.duration", duration),
	))
	defer span.End()

	if staffID == "" || date.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "staff and date are required")
	}
	if duration <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "duration must be positive")
	}
	if duration > timeofday.MinutesPerDay {
		return nil, appErrors.Clone(appErrors.ErrValidation, "duration exceeds one day")
	}

	started := time.Now()
	rule, err := s.hours.FindActive(ctx, staffID, int(date.Weekday()))
	s.observe("working_hours", started)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []models.TimeSlot{}, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, msgUnverifiedHours)
		return nil, appErrors.Wrap(err, appErrors.ErrAvailabilityUnverified.Code, appErrors.ErrAvailabilityUnverified.Status, msgUnverifiedHours)
	}
	if rule == nil {
		return []models.TimeSlot{}, nil
	}
	ruleStart, errStart := timeofday.Parse(rule.StartTime)
	ruleEnd, errEnd := timeofday.Parse(rule.EndTime)
	if errStart != nil || errEnd != nil {
		return nil, appErrors.Clone(appErrors.ErrAvailabilityUnverified, msgUnverifiedHours)
	}

	dateKey := timeofday.FormatDate(date)
	started = time.Now()
	bookings, err := s.bookings.ListActiveByStaffAndDate(ctx, staffID, dateKey, "")
	s.observe("active_bookings", started)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, msgUnverifiedBookings)
		return nil, appErrors.Wrap(err, appErrors.ErrAvailabilityUnverified.Code, appErrors.ErrAvailabilityUnverified.Status, msgUnverifiedBookings)
	}

	occupied := make(map[int]struct{})
	for _, booking := range bookings {
		if booking.Status == models.BookingStatusCancelled {
			continue
		}
		start, err := timeofday.Parse(booking.StartTime)
		if err != nil {
			continue
		}
		end := start + booking.DurationMinutes()
		for tick := ruleStart; tick < ruleEnd; tick += SlotInterval {
			if tick >= start && tick < end {
				occupied[tick] = struct{}{}
			}
		}
	}

	now := s.now()
	today := timeofday.SameDay(date, now.In(s.loc), nil)

	slots := make([]models.TimeSlot, 0, (ruleEnd-ruleStart)/SlotInterval+1)
	for tick := ruleStart; tick+duration <= ruleEnd; tick += SlotInterval {
		slot := models.TimeSlot{Time: timeofday.Format(tick), Available: true}
		if _, taken := occupied[tick]; taken {
			slot.Available = false
			slot.Reason = models.SlotReasonOccupied
		} else if today {
			instant, err := timeofday.At(date, slot.Time, s.loc)
			if err == nil && !instant.After(now) {
				slot.Available = false
				slot.Reason = models.SlotReasonPassed
			}
		}
		slots = append(slots, slot)
	}

	span.SetAttributes(attribute.Int("slots.count", len(slots)))
	return slots, nil
}

// GetAvailableTimeSlots is ListTimeSlots for callers that render a grid and
// treat any failure as an empty day.
func (s *AvailabilityService) GetAvailableTimeSlots(ctx context.Context, staffID string, date time.Time, duration int) []models.TimeSlot {
	slots, err := s.ListTimeSlots(ctx, staffID, date, duration)
	if err != nil {
		s.logger.Warn("slot listing failed", zap.String("staff_id", staffID), zap.String("date", timeofday.FormatDate(date)), zap.Error(err))
		return []models.TimeSlot{}
	}
	return slots
}

func (s *AvailabilityService) startSpan(ctx context.Context, name string, q models.SlotQuery) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("staff.id", q.StaffID),
		attribute.String("booking.date", timeofday.FormatDate(q.Date)),
		attribute.String("booking.start", q.StartTime),
		attribute.Int("booking.duration", q.DurationMinutes),
	))
}

func endSpan(span trace.Span, res models.AvailabilityResult) {
	span.SetAttributes(attribute.Bool("availability.valid", res.Valid))
	if res.Valid {
		return
	}
	span.SetAttributes(attribute.String("availability.code", res.Code))
	if res.Retryable() {
		span.SetStatus(codes.Error, res.Error)
	}
}
