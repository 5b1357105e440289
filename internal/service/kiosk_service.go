package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/barbershop-api/internal/dto"
	"github.com/noah-isme/barbershop-api/internal/models"
	"github.com/noah-isme/barbershop-api/internal/repository"
	appErrors "github.com/noah-isme/barbershop-api/pkg/errors"
	"github.com/noah-isme/barbershop-api/pkg/timeofday"
)

// MessageNoAvailability accompanies an empty slot grid.
const MessageNoAvailability = "no availability"

type slotLister interface {
	ListTimeSlots(ctx context.Context, staffID string, date time.Time, duration int) ([]models.TimeSlot, error)
	Location() *time.Location
	Now() time.Time
}

type slotGridCache interface {
	Get(ctx context.Context, staffID, date string, duration int) ([]models.TimeSlot, bool)
	Set(ctx context.Context, staffID, date string, duration int, slots []models.TimeSlot)
}

type clientDirectory interface {
	FindByPhone(ctx context.Context, phone string) (*models.Client, error)
	Create(ctx context.Context, client *models.Client) error
}

type nextBookingFinder interface {
	FindNextForClient(ctx context.Context, clientID, date string) (*models.Booking, error)
}

type bookingWriter interface {
	Create(ctx context.Context, req dto.CreateBookingRequest) (*models.Booking, error)
	UpdateStatus(ctx context.Context, id string, req dto.UpdateBookingStatusRequest) (*models.Booking, error)
}

// KioskService backs the in-shop totem: slot picker, check-in and walk-ins.
type KioskService struct {
	slots     slotLister
	services  serviceCatalog
	cache     slotGridCache
	clients   clientDirectory
	bookings  nextBookingFinder
	writer    bookingWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewKioskService builds a KioskService. cache may be nil.
func NewKioskService(
	slots slotLister,
	services serviceCatalog,
	cache slotGridCache,
	clients clientDirectory,
	bookings nextBookingFinder,
	writer bookingWriter,
	validate *validator.Validate,
	logger *zap.Logger,
) *KioskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KioskService{
		slots:     slots,
		services:  services,
		cache:     cache,
		clients:   clients,
		bookings:  bookings,
		writer:    writer,
		validator: newScheduleValidator(validate),
		logger:    logger,
	}
}

// Grid returns the slot grid of a staff member. Grids of days other than
// today are served from the cache when possible; today's grid depends on the
// clock and is always computed.
func (s *KioskService) Grid(ctx context.Context, staffID, date string, duration int) (*dto.SlotGrid, error) {
	day, err := timeofday.ParseDate(date, s.slots.Location())
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	if duration <= 0 {
		duration = models.DefaultBookingDurationMinutes
	}
	date = timeofday.FormatDate(day)
	grid := &dto.SlotGrid{StaffID: staffID, Date: date, DurationMinutes: duration}

	cacheable := s.cache != nil && date != s.today()
	if cacheable {
		if slots, ok := s.cache.Get(ctx, staffID, date, duration); ok {
			grid.Slots = slots
			return grid, nil
		}
	}

	slots, err := s.slots.ListTimeSlots(ctx, staffID, day, duration)
	if err != nil {
		return nil, err
	}
	if cacheable {
		s.cache.Set(ctx, staffID, date, duration, slots)
	}
	grid.Slots = slots
	return grid, nil
}

// Slots resolves the service duration and returns the kiosk grid. The date
// defaults to today and cannot be in the past.
func (s *KioskService) Slots(ctx context.Context, query dto.KioskSlotsQuery) (*dto.SlotGrid, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query")
	}
	today := s.today()
	date := query.Date
	if date == "" {
		date = today
	}
	if date < today {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date is in the past")
	}

	duration := models.DefaultBookingDurationMinutes
	if query.ServiceID != "" {
		svc, err := s.services.FindByID(ctx, query.ServiceID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "service not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load service")
		}
		duration = svc.Duration()
	}
	return s.Grid(ctx, query.StaffID, date, duration)
}

// CheckIn confirms the next live booking today of the client owning phone.
func (s *KioskService) CheckIn(ctx context.Context, req dto.CheckInRequest) (*dto.CheckInResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	client, err := s.clients.FindByPhone(ctx, req.Phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no client with this phone")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load client")
	}

	booking, err := s.bookings.FindNextForClient(ctx, client.ID, s.today())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no booking today")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}

	if booking.Status == models.BookingStatusScheduled {
		booking, err = s.writer.UpdateStatus(ctx, booking.ID, dto.UpdateBookingStatusRequest{Status: string(models.BookingStatusConfirmed)})
		if err != nil {
			return nil, err
		}
	}
	s.logger.Info("kiosk check-in", zap.String("client_id", client.ID), zap.String("booking_id", booking.ID))
	return &dto.CheckInResponse{Client: client, Booking: booking}, nil
}

// WalkIn books today's slot for a client, registering the phone if unknown.
func (s *KioskService) WalkIn(ctx context.Context, req dto.WalkInRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	client, err := s.findOrCreateClient(ctx, req.FullName, req.Phone)
	if err != nil {
		return nil, err
	}
	return s.writer.Create(ctx, dto.CreateBookingRequest{
		StaffID:   req.StaffID,
		ClientID:  client.ID,
		ServiceID: req.ServiceID,
		Date:      s.today(),
		StartTime: req.StartTime,
	})
}

func (s *KioskService) findOrCreateClient(ctx context.Context, name, phone string) (*models.Client, error) {
	client, err := s.clients.FindByPhone(ctx, phone)
	if err == nil {
		return client, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load client")
	}

	client = &models.Client{FullName: name, Phone: phone}
	if err := s.clients.Create(ctx, client); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// registered concurrently by another kiosk
			existing, findErr := s.clients.FindByPhone(ctx, phone)
			if findErr == nil {
				return existing, nil
			}
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register client")
	}
	return client, nil
}

func (s *KioskService) today() string {
	return timeofday.FormatDate(s.slots.Now().In(s.slots.Location()))
}
