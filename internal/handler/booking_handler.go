package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/barbershop-api/internal/dto"
	"github.com/noah-isme/barbershop-api/internal/models"
	"github.com/noah-isme/barbershop-api/pkg/response"
)

type bookingService interface {
	List(ctx context.Context, query dto.BookingQuery, claims *models.JWTClaims) ([]models.Booking, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Booking, error)
	Create(ctx context.Context, req dto.CreateBookingRequest) (*models.Booking, error)
	Reschedule(ctx context.Context, id string, req dto.RescheduleBookingRequest) (*models.Booking, error)
	Cancel(ctx context.Context, id string) (*models.Booking, error)
	UpdateStatus(ctx context.Context, id string, req dto.UpdateBookingStatusRequest) (*models.Booking, error)
}

// BookingHandler exposes booking endpoints for shop staff.
type BookingHandler struct {
	service bookingService
}

// NewBookingHandler builds a new handler.
func NewBookingHandler(service bookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// List godoc
// @Summary List bookings
// @Tags Bookings
// @Produce json
// @Param staff_id query string false "Staff filter"
// @Param date_from query string false "From date"
// @Param date_to query string false "To date"
// @Param status query string false "Status"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /bookings [get]
func (h *BookingHandler) List(c *gin.Context) {
	var query dto.BookingQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid booking filter"))
		return
	}
	bookings, pagination, err := h.service.List(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bookings, pagination)
}

// Get godoc
// @Summary Get a booking
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Router /bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	booking, ok := h.load(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// Create godoc
// @Summary Book a slot
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body dto.CreateBookingRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid booking payload"))
		return
	}
	if err := ensureBookingAccess(claimsFromContext(c), &models.Booking{StaffID: req.StaffID}); err != nil {
		response.Error(c, err)
		return
	}
	booking, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, booking)
}

// Reschedule godoc
// @Summary Move a booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param payload body dto.RescheduleBookingRequest true "New slot"
// @Success 200 {object} response.Envelope
// @Router /bookings/{id}/schedule [put]
func (h *BookingHandler) Reschedule(c *gin.Context) {
	var req dto.RescheduleBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid reschedule payload"))
		return
	}
	if _, ok := h.load(c); !ok {
		return
	}
	booking, err := h.service.Reschedule(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// Cancel godoc
// @Summary Cancel a booking
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Router /bookings/{id}/cancel [post]
func (h *BookingHandler) Cancel(c *gin.Context) {
	if _, ok := h.load(c); !ok {
		return
	}
	booking, err := h.service.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// UpdateStatus godoc
// @Summary Move a booking along its lifecycle
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param payload body dto.UpdateBookingStatusRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Router /bookings/{id}/status [patch]
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid status payload"))
		return
	}
	if _, ok := h.load(c); !ok {
		return
	}
	booking, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// load fetches the path booking and enforces chair ownership, writing the
// error response itself.
func (h *BookingHandler) load(c *gin.Context) (*models.Booking, bool) {
	booking, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	if err := ensureBookingAccess(claimsFromContext(c), booking); err != nil {
		response.Error(c, err)
		return nil, false
	}
	return booking, true
}
