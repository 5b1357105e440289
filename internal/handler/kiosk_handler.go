package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/barbershop-api/internal/dto"
	"github.com/noah-isme/barbershop-api/internal/models"
	"github.com/noah-isme/barbershop-api/pkg/response"
)

type kioskService interface {
	Slots(ctx context.Context, query dto.KioskSlotsQuery) (*dto.SlotGrid, error)
	CheckIn(ctx context.Context, req dto.CheckInRequest) (*dto.CheckInResponse, error)
	WalkIn(ctx context.Context, req dto.WalkInRequest) (*models.Booking, error)
}

// KioskHandler serves the in-shop totem.
type KioskHandler struct {
	service kioskService
}

// NewKioskHandler builds a new handler.
func NewKioskHandler(service kioskService) *KioskHandler {
	return &KioskHandler{service: service}
}

// Slots godoc
// @Summary Slot picker grid
// @Tags Kiosk
// @Produce json
// @Param staff_id query string true "Staff ID"
// @Param service_id query string false "Service ID"
// @Param date query string false "Date (defaults to today)"
// @Success 200 {object} response.Envelope
// @Router /kiosk/slots [get]
func (h *KioskHandler) Slots(c *gin.Context) {
	var query dto.KioskSlotsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid slot query"))
		return
	}
	grid, err := h.service.Slots(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondGrid(c, grid)
}

// CheckIn godoc
// @Summary Check in an arriving client
// @Tags Kiosk
// @Accept json
// @Produce json
// @Param payload body dto.CheckInRequest true "Phone"
// @Success 200 {object} response.Envelope
// @Router /kiosk/check-in [post]
func (h *KioskHandler) CheckIn(c *gin.Context) {
	var req dto.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid check-in payload"))
		return
	}
	res, err := h.service.CheckIn(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// WalkIn godoc
// @Summary Book a walk-in client for today
// @Tags Kiosk
// @Accept json
// @Produce json
// @Param payload body dto.WalkInRequest true "Walk-in"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /kiosk/walk-ins [post]
func (h *KioskHandler) WalkIn(c *gin.Context) {
	var req dto.WalkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid walk-in payload"))
		return
	}
	booking, err := h.service.WalkIn(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, booking)
}
