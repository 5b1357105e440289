package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/barbershop-api/internal/dto"
	"github.com/noah-isme/barbershop-api/internal/models"
	appErrors "github.com/noah-isme/barbershop-api/pkg/errors"
)

type bookingServiceStub struct {
	items      map[string]*models.Booking
	createErr  error
	created    int
	cancelled  []string
	listClaims *models.JWTClaims
}

func (s *bookingServiceStub) List(ctx context.Context, query dto.BookingQuery, claims *models.JWTClaims) ([]models.Booking, *models.Pagination, error) {
	s.listClaims = claims
	return []models.Booking{}, models.NewPagination(query.Page, query.PageSize, 0), nil
}

func (s *bookingServiceStub) Get(ctx context.Context, id string) (*models.Booking, error) {
	b, ok := s.items[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
	}
	return b, nil
}

func (s *bookingServiceStub) Create(ctx context.Context, req dto.CreateBookingRequest) (*models.Booking, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created++
	return &models.Booking{ID: "new", StaffID: req.StaffID, StartTime: req.StartTime, Status: models.BookingStatusScheduled}, nil
}

func (s *bookingServiceStub) Reschedule(ctx context.Context, id string, req dto.RescheduleBookingRequest) (*models.Booking, error) {
	b := *s.items[id]
	b.StartTime = req.StartTime
	return &b, nil
}

func (s *bookingServiceStub) Cancel(ctx context.Context, id string) (*models.Booking, error) {
	s.cancelled = append(s.cancelled, id)
	b := *s.items[id]
	b.Status = models.BookingStatusCancelled
	return &b, nil
}

func (s *bookingServiceStub) UpdateStatus(ctx context.Context, id string, req dto.UpdateBookingStatusRequest) (*models.Booking, error) {
	b := *s.items[id]
	b.Status = models.BookingStatus(req.Status)
	return &b, nil
}

func newBookingServiceStub() *bookingServiceStub {
	return &bookingServiceStub{items: map[string]*models.Booking{
		"b1": {ID: "b1", StaffID: "staff-1", StartTime: "10:00", Status: models.BookingStatusScheduled},
		"b2": {ID: "b2", StaffID: "staff-2", StartTime: "11:00", Status: models.BookingStatusScheduled},
	}}
}

func createPayload(staffID string) dto.CreateBookingRequest {
	return dto.CreateBookingRequest{StaffID: staffID, ClientID: "client-1", ServiceID: "cut", Date: "2024-05-06", StartTime: "10:00"}
}

func TestBookingHandlerCreate(t *testing.T) {
	svc := newBookingServiceStub()
	h := NewBookingHandler(svc)

	c, w := newJSONContext(t, http.MethodPost, "/bookings", createPayload("staff-1"), barberClaims)
	h.Create(c)
	assert.Equal(t, http.StatusCreated, w.Code)

	c, w = newJSONContext(t, http.MethodPost, "/bookings", createPayload("staff-2"), barberClaims)
	h.Create(c)
	assert.Equal(t, http.StatusForbidden, w.Code)

	c, w = newJSONContext(t, http.MethodPost, "/bookings", createPayload("staff-2"), ownerClaims)
	h.Create(c)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 2, svc.created)
}

func TestBookingHandlerCreateConflict(t *testing.T) {
	svc := newBookingServiceStub()
	res := models.Unavailable(models.ReasonBookingConflict, "conflicts with existing booking at 10:00")
	svc.createErr = appErrors.WithDetails(appErrors.Clone(appErrors.ErrSlotUnavailable, res.Error), res)
	h := NewBookingHandler(svc)

	c, w := newJSONContext(t, http.MethodPost, "/bookings", createPayload("staff-1"), ownerClaims)
	h.Create(c)

	require.Equal(t, http.StatusConflict, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "conflicts with existing booking at 10:00", env.Error.Message)
	assert.Contains(t, string(env.Error.Details), models.ReasonBookingConflict)
}

func TestBookingHandlerChairOwnership(t *testing.T) {
	svc := newBookingServiceStub()
	h := NewBookingHandler(svc)

	c, w := newJSONContext(t, http.MethodGet, "/bookings/b2", nil, barberClaims)
	c.Params = gin.Params{{Key: "id", Value: "b2"}}
	h.Get(c)
	assert.Equal(t, http.StatusForbidden, w.Code)

	c, w = newJSONContext(t, http.MethodPost, "/bookings/b2/cancel", nil, barberClaims)
	c.Params = gin.Params{{Key: "id", Value: "b2"}}
	h.Cancel(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, svc.cancelled)

	c, w = newJSONContext(t, http.MethodPost, "/bookings/b1/cancel", nil, barberClaims)
	c.Params = gin.Params{{Key: "id", Value: "b1"}}
	h.Cancel(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"b1"}, svc.cancelled)

	c, w = newJSONContext(t, http.MethodGet, "/bookings/missing", nil, ownerClaims)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	h.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookingHandlerRescheduleAndStatus(t *testing.T) {
	h := NewBookingHandler(newBookingServiceStub())

	c, w := newJSONContext(t, http.MethodPut, "/bookings/b1/schedule", dto.RescheduleBookingRequest{Date: "2024-05-07", StartTime: "09:00"}, barberClaims)
	c.Params = gin.Params{{Key: "id", Value: "b1"}}
	h.Reschedule(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newJSONContext(t, http.MethodPatch, "/bookings/b1/status", dto.UpdateBookingStatusRequest{Status: "confirmed"}, ownerClaims)
	c.Params = gin.Params{{Key: "id", Value: "b1"}}
	h.UpdateStatus(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newJSONContext(t, http.MethodPatch, "/bookings/b1/status", "not json", ownerClaims)
	c.Params = gin.Params{{Key: "id", Value: "b1"}}
	h.UpdateStatus(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingHandlerListPassesClaims(t *testing.T) {
	svc := newBookingServiceStub()
	h := NewBookingHandler(svc)

	c, w := newJSONContext(t, http.MethodGet, "/bookings?status=scheduled&page=2", nil, barberClaims)
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, barberClaims, svc.listClaims)
	assert.Contains(t, w.Body.String(), `"page":2`)
}
