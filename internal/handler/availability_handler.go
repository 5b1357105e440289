package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/barbershop-api/internal/dto"
	"github.com/noah-isme/barbershop-api/internal/models"
	"github.com/noah-isme/barbershop-api/internal/service"
	appErrors "github.com/noah-isme/barbershop-api/pkg/errors"
	"github.com/noah-isme/barbershop-api/pkg/response"
)

type availabilityChecker interface {
	CheckSlot(ctx context.Context, req dto.AvailabilityCheckRequest) (models.AvailabilityResult, error)
}

type slotGridProvider interface {
	Grid(ctx context.Context, staffID, date string, duration int) (*dto.SlotGrid, error)
}

// AvailabilityHandler exposes slot checks and slot grids.
type AvailabilityHandler struct {
	checker availabilityChecker
	grids   slotGridProvider
}

// NewAvailabilityHandler builds a new handler.
func NewAvailabilityHandler(checker availabilityChecker, grids slotGridProvider) *AvailabilityHandler {
	return &AvailabilityHandler{checker: checker, grids: grids}
}

// Check godoc
// @Summary Check whether a slot can be booked
// @Tags Availability
// @Accept json
// @Produce json
// @Param payload body dto.AvailabilityCheckRequest true "Candidate slot"
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /availability/check [post]
func (h *AvailabilityHandler) Check(c *gin.Context) {
	var req dto.AvailabilityCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid availability payload"))
		return
	}
	res, err := h.checker.CheckSlot(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if res.Retryable() {
		response.Error(c, appErrors.WithDetails(appErrors.ErrAvailabilityUnverified, res))
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Slots godoc
// @Summary Slot grid of a staff member
// @Tags Availability
// @Produce json
// @Param id path string true "Staff ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param duration query int false "Duration in minutes (default 60)"
// @Success 200 {object} response.Envelope
// @Router /staff/{id}/slots [get]
func (h *AvailabilityHandler) Slots(c *gin.Context) {
	var query dto.SlotGridQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid slot query"))
		return
	}
	grid, err := h.grids.Grid(c.Request.Context(), c.Param("id"), query.Date, query.DurationMinutes)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondGrid(c, grid)
}

func respondGrid(c *gin.Context, grid *dto.SlotGrid) {
	var meta map[string]interface{}
	if !hasAvailableSlot(grid.Slots) {
		meta = map[string]interface{}{"message": service.MessageNoAvailability}
	}
	response.JSON(c, http.StatusOK, grid, nil, meta)
}

func hasAvailableSlot(slots []models.TimeSlot) bool {
	for _, slot := range slots {
		if slot.Available {
			return true
		}
	}
	return false
}
