package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/barbershop-api/internal/dto"
	"github.com/noah-isme/barbershop-api/internal/models"
	"github.com/noah-isme/barbershop-api/internal/repository"
	appErrors "github.com/noah-isme/barbershop-api/pkg/errors"
	"github.com/noah-isme/barbershop-api/pkg/timeofday"
)

type bookingStoreStub struct {
	items      map[string]*models.Booking
	createErr  error
	lastFilter models.BookingFilter
}

func newBookingStore(items ...models.Booking) *bookingStoreStub {
	store := &bookingStoreStub{items: make(map[string]*models.Booking)}
	for i := range items {
		b := items[i]
		store.items[b.ID] = &b
	}
	return store
}

func (s *bookingStoreStub) ListActiveByStaffAndDate(ctx context.Context, staffID, date, excludeID string) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range s.items {
		if b.StaffID != staffID || timeofday.FormatDate(b.Date) != date || b.Status == models.BookingStatusCancelled || b.ID == excludeID {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (s *bookingStoreStub) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	b, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *b
	return &cp, nil
}

func (s *bookingStoreStub) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error) {
	s.lastFilter = filter
	var out []models.Booking
	for _, b := range s.items {
		if filter.StaffID != "" && b.StaffID != filter.StaffID {
			continue
		}
		out = append(out, *b)
	}
	return out, len(out), nil
}

func (s *bookingStoreStub) Create(ctx context.Context, booking *models.Booking) error {
	if s.createErr != nil {
		return s.createErr
	}
	cp := *booking
	s.items[booking.ID] = &cp
	return nil
}

func (s *bookingStoreStub) Reschedule(ctx context.Context, booking *models.Booking) error {
	cp := *booking
	s.items[booking.ID] = &cp
	return nil
}

func (s *bookingStoreStub) UpdateStatus(ctx context.Context, id string, status models.BookingStatus) error {
	b, ok := s.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	b.Status = status
	return nil
}

type serviceCatalogStub struct {
	items map[string]*models.Service
}

func (s *serviceCatalogStub) FindByID(ctx context.Context, id string) (*models.Service, error) {
	svc, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *svc
	return &cp, nil
}

type eventRecorderStub struct {
	events []models.BookingEvent
}

func (e *eventRecorderStub) Publish(ctx context.Context, event models.BookingEvent) {
	e.events = append(e.events, event)
}

type mutationRecorderStub struct {
	outcomes []string
}

func (m *mutationRecorderStub) RecordBookingMutation(operation, outcome string) {
	m.outcomes = append(m.outcomes, operation+":"+outcome)
}

func defaultCatalog() *serviceCatalogStub {
	return &serviceCatalogStub{items: map[string]*models.Service{
		"cut":   {ID: "cut", Name: "Haircut", DurationMinutes: sql.NullInt64{Int64: 45, Valid: true}},
		"shave": {ID: "shave", Name: "Hot towel shave", DurationMinutes: sql.NullInt64{Int64: 90, Valid: true}},
		"misc":  {ID: "misc", Name: "Consultation"},
	}}
}

type bookingFixture struct {
	service *BookingService
	store   *bookingStoreStub
	hours   *hoursStub
	events  *eventRecorderStub
	metrics *mutationRecorderStub
}

func newBookingFixture(existing ...models.Booking) bookingFixture {
	hours := mondayRule("09:00", "18:00")
	hours.rules[int(time.Tuesday)] = &models.WorkingHoursRule{ID: "rule-2", StaffID: "staff-1", DayOfWeek: int(time.Tuesday), StartTime: "09:00", EndTime: "18:00", IsActive: true}

	store := newBookingStore(existing...)
	engine := newEngine(hours, nil, nil)
	engine.bookings = store

	events := &eventRecorderStub{}
	metrics := &mutationRecorderStub{}
	svc := NewBookingService(store, defaultCatalog(), engine, events, validator.New(), zap.NewNop()).WithMetrics(metrics)
	return bookingFixture{service: svc, store: store, hours: hours, events: events, metrics: metrics}
}

func createRequest(start string) dto.CreateBookingRequest {
	return dto.CreateBookingRequest{StaffID: "staff-1", ClientID: "client-1", ServiceID: "cut", Date: "2024-05-06", StartTime: start}
}

func TestBookingServiceCreate(t *testing.T) {
	f := newBookingFixture()

	booking, err := f.service.Create(context.Background(), createRequest("10:00"))
	require.NoError(t, err)
	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, models.BookingStatusScheduled, booking.Status)
	assert.Equal(t, 45, booking.BookedMinutes)
	assert.Equal(t, 45, booking.DurationMinutes())
	assert.Contains(t, f.store.items, booking.ID)

	require.Len(t, f.events.events, 1)
	event := f.events.events[0]
	assert.Equal(t, models.BookingEventCreated, event.Type)
	assert.Equal(t, "staff-1", event.StaffID)
	assert.Equal(t, "2024-05-06", event.Date)
	assert.Empty(t, event.PreviousDate)
	assert.Equal(t, []string{"create:ok"}, f.metrics.outcomes)
}

func TestBookingServiceCreateRejectsConflict(t *testing.T) {
	f := newBookingFixture(booking("b1", "10:00", 60, models.BookingStatusScheduled))

	_, err := f.service.Create(context.Background(), createRequest("10:30"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusConflict, appErr.Status)
	assert.Equal(t, appErrors.ErrSlotUnavailable.Code, appErr.Code)
	assert.Equal(t, "conflicts with existing booking at 10:00", appErr.Message)

	details, ok := appErr.Details.(models.AvailabilityResult)
	require.True(t, ok)
	assert.Equal(t, models.ReasonBookingConflict, details.Code)
	assert.Empty(t, f.events.events)
	assert.Equal(t, []string{"create:" + models.ReasonBookingConflict}, f.metrics.outcomes)
}

func TestBookingServiceCreateMapsExclusionRace(t *testing.T) {
	f := newBookingFixture()
	f.store.createErr = fmt.Errorf("create booking: %w", repository.ErrSlotTaken)

	_, err := f.service.Create(context.Background(), createRequest("10:00"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusConflict, appErr.Status)
	assert.Equal(t, "time slot already booked", appErr.Message)
	assert.Empty(t, f.events.events)
}

func TestBookingServiceCreateMapsMissingReference(t *testing.T) {
	f := newBookingFixture()
	f.store.createErr = fmt.Errorf("create booking: %w", repository.ErrMissingReference)

	_, err := f.service.Create(context.Background(), createRequest("10:00"))
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestBookingServiceCreateValidation(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()

	req := createRequest("9am")
	_, err := f.service.Create(ctx, req)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	req = createRequest("10:00")
	req.Date = "06/05/2024"
	_, err = f.service.Create(ctx, req)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	req = createRequest("10:00")
	req.ServiceID = "unknown"
	_, err = f.service.Create(ctx, req)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	req = createRequest("10:00")
	req.Date = "2024-04-29"
	_, err = f.service.Create(ctx, req)
	require.Error(t, err)
	assert.Equal(t, "start time must be in the future", appErrors.FromError(err).Message)
}

func TestBookingServiceCreateUnverified(t *testing.T) {
	f := newBookingFixture()
	f.hours.err = errors.New("db down")

	_, err := f.service.Create(context.Background(), createRequest("10:00"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusServiceUnavailable, appErr.Status)
	assert.Equal(t, "could not verify availability", appErr.Message)
}

func TestBookingServiceRescheduleExcludesItself(t *testing.T) {
	f := newBookingFixture(booking("b1", "10:00", 45, models.BookingStatusScheduled))
	ctx := context.Background()

	moved, err := f.service.Reschedule(ctx, "b1", dto.RescheduleBookingRequest{Date: "2024-05-06", StartTime: "10:30"})
	require.NoError(t, err)
	assert.Equal(t, "10:30", moved.StartTime)
	require.Len(t, f.events.events, 1)
	assert.Equal(t, models.BookingEventRescheduled, f.events.events[0].Type)
	assert.Empty(t, f.events.events[0].PreviousDate)

	moved, err = f.service.Reschedule(ctx, "b1", dto.RescheduleBookingRequest{Date: "2024-05-07", StartTime: "09:00"})
	require.NoError(t, err)
	assert.Equal(t, "2024-05-07", timeofday.FormatDate(moved.Date))
	assert.Equal(t, "2024-05-06", f.events.events[1].PreviousDate)
}

func TestBookingServiceRescheduleRejectsTerminalAndConflicts(t *testing.T) {
	f := newBookingFixture(
		booking("b1", "10:00", 60, models.BookingStatusScheduled),
		booking("b2", "12:00", 60, models.BookingStatusCancelled),
		booking("b3", "14:00", 60, models.BookingStatusConfirmed),
	)
	ctx := context.Background()

	_, err := f.service.Reschedule(ctx, "b2", dto.RescheduleBookingRequest{Date: "2024-05-06", StartTime: "16:00"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)

	_, err = f.service.Reschedule(ctx, "b1", dto.RescheduleBookingRequest{Date: "2024-05-06", StartTime: "13:30"})
	assert.ErrorIs(t, err, appErrors.ErrSlotUnavailable)

	_, err = f.service.Reschedule(ctx, "missing", dto.RescheduleBookingRequest{Date: "2024-05-06", StartTime: "13:30"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestBookingServiceStatusTransitions(t *testing.T) {
	f := newBookingFixture(
		booking("b1", "10:00", 60, models.BookingStatusScheduled),
		booking("b2", "12:00", 60, models.BookingStatusCompleted),
	)
	ctx := context.Background()

	confirmed, err := f.service.UpdateStatus(ctx, "b1", dto.UpdateBookingStatusRequest{Status: "confirmed"})
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, confirmed.Status)

	cancelled, err := f.service.Cancel(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)

	require.Len(t, f.events.events, 2)
	assert.Equal(t, models.BookingEventStatusChanged, f.events.events[0].Type)
	assert.Equal(t, models.BookingEventCancelled, f.events.events[1].Type)

	_, err = f.service.Cancel(ctx, "b2")
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)

	_, err = f.service.UpdateStatus(ctx, "b1", dto.UpdateBookingStatusRequest{Status: "scheduled"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestBookingServiceCancelledSlotCanBeRebooked(t *testing.T) {
	f := newBookingFixture(booking("b1", "10:00", 60, models.BookingStatusScheduled))
	ctx := context.Background()

	_, err := f.service.Create(ctx, createRequest("10:00"))
	require.Error(t, err)

	_, err = f.service.Cancel(ctx, "b1")
	require.NoError(t, err)

	_, err = f.service.Create(ctx, createRequest("10:00"))
	require.NoError(t, err)
}

func TestBookingServiceListScopesBarbers(t *testing.T) {
	other := booking("b2", "11:00", 60, models.BookingStatusScheduled)
	other.StaffID = "staff-2"
	f := newBookingFixture(booking("b1", "10:00", 60, models.BookingStatusScheduled), other)
	ctx := context.Background()

	items, page, err := f.service.List(ctx, dto.BookingQuery{StaffID: "staff-2"}, &models.JWTClaims{Role: models.RoleBarber, StaffID: "staff-1"})
	require.NoError(t, err)
	assert.Equal(t, "staff-1", f.store.lastFilter.StaffID)
	require.Len(t, items, 1)
	assert.Equal(t, "b1", items[0].ID)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)

	items, _, err = f.service.List(ctx, dto.BookingQuery{}, &models.JWTClaims{Role: models.RoleOwner})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	_, _, err = f.service.List(ctx, dto.BookingQuery{}, &models.JWTClaims{Role: models.RoleClient})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, _, err = f.service.List(ctx, dto.BookingQuery{}, nil)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	_, _, err = f.service.List(ctx, dto.BookingQuery{Status: "lost"}, &models.JWTClaims{Role: models.RoleAdmin})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestBookingServiceCheckSlotResolvesDuration(t *testing.T) {
	f := newBookingFixture()
	ctx := context.Background()

	res, err := f.service.CheckSlot(ctx, dto.AvailabilityCheckRequest{StaffID: "staff-1", Date: "2024-05-06", StartTime: "17:00", ServiceID: "shave"})
	require.NoError(t, err)
	assert.Equal(t, models.ReasonOutsideHours, res.Code)

	res, err = f.service.CheckSlot(ctx, dto.AvailabilityCheckRequest{StaffID: "staff-1", Date: "2024-05-06", StartTime: "17:00", ServiceID: "shave", DurationMinutes: 60})
	require.NoError(t, err)
	assert.True(t, res.Valid)

	res, err = f.service.CheckSlot(ctx, dto.AvailabilityCheckRequest{StaffID: "staff-1", Date: "2024-05-06", StartTime: "17:00", ServiceID: "misc"})
	require.NoError(t, err)
	assert.True(t, res.Valid)

	res, err = f.service.CheckSlot(ctx, dto.AvailabilityCheckRequest{StaffID: "staff-1", Date: "2024-05-06", StartTime: "17:30"})
	require.NoError(t, err)
	assert.Equal(t, models.ReasonOutsideHours, res.Code)

	_, err = f.service.CheckSlot(ctx, dto.AvailabilityCheckRequest{StaffID: "staff-1", Date: "2024-05-06", StartTime: "17:00", ServiceID: "nope"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = f.service.CheckSlot(ctx, dto.AvailabilityCheckRequest{StaffID: "staff-1", Date: "tomorrow", StartTime: "17:00"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
