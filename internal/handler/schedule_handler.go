package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/barbershop-api/internal/dto"
	"github.com/noah-isme/barbershop-api/internal/models"
	"github.com/noah-isme/barbershop-api/pkg/response"
)

type workingHoursService interface {
	List(ctx context.Context, staffID string) ([]models.WorkingHoursRule, error)
	Replace(ctx context.Context, staffID string, req dto.ReplaceWorkingHoursRequest) ([]models.WorkingHoursRule, error)
}

type overrideService interface {
	List(ctx context.Context, staffID, date string) ([]models.AvailabilityOverride, error)
	Create(ctx context.Context, staffID string, req dto.CreateOverrideRequest) (*models.AvailabilityOverride, error)
	Delete(ctx context.Context, id string) error
}

// ScheduleHandler exposes weekly hours and date override administration.
type ScheduleHandler struct {
	hours     workingHoursService
	overrides overrideService
}

// NewScheduleHandler builds a new handler.
func NewScheduleHandler(hours workingHoursService, overrides overrideService) *ScheduleHandler {
	return &ScheduleHandler{hours: hours, overrides: overrides}
}

// ListWorkingHours godoc
// @Summary Weekly working hours of a staff member
// @Tags Schedule
// @Produce json
// @Param id path string true "Staff ID"
// @Success 200 {object} response.Envelope
// @Router /staff/{id}/working-hours [get]
func (h *ScheduleHandler) ListWorkingHours(c *gin.Context) {
	rules, err := h.hours.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, nil)
}

// ReplaceWorkingHours godoc
// @Summary Replace the weekly working hours of a staff member
// @Tags Schedule
// @Accept json
// @Produce json
// @Param id path string true "Staff ID"
// @Param payload body dto.ReplaceWorkingHoursRequest true "Weekly rules"
// @Success 200 {object} response.Envelope
// @Router /staff/{id}/working-hours [put]
func (h *ScheduleHandler) ReplaceWorkingHours(c *gin.Context) {
	var req dto.ReplaceWorkingHoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid working hours payload"))
		return
	}
	rules, err := h.hours.Replace(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, nil)
}

// ListOverrides godoc
// @Summary Availability overrides of a staff member on a date
// @Tags Schedule
// @Produce json
// @Param id path string true "Staff ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /staff/{id}/overrides [get]
func (h *ScheduleHandler) ListOverrides(c *gin.Context) {
	overrides, err := h.overrides.List(c.Request.Context(), c.Param("id"), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overrides, nil)
}

// CreateOverride godoc
// @Summary Block or narrow a staff member's day
// @Tags Schedule
// @Accept json
// @Produce json
// @Param id path string true "Staff ID"
// @Param payload body dto.CreateOverrideRequest true "Override"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /staff/{id}/overrides [post]
func (h *ScheduleHandler) CreateOverride(c *gin.Context) {
	var req dto.CreateOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid override payload"))
		return
	}
	override, err := h.overrides.Create(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, override)
}

// DeleteOverride godoc
// @Summary Remove an availability override
// @Tags Schedule
// @Param id path string true "Override ID"
// @Success 204
// @Router /overrides/{id} [delete]
func (h *ScheduleHandler) DeleteOverride(c *gin.Context) {
	if err := h.overrides.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
