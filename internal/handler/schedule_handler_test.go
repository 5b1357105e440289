package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/barbershop-api/internal/dto"
	"github.com/noah-isme/barbershop-api/internal/models"
	appErrors "github.com/noah-isme/barbershop-api/pkg/errors"
)

type hoursServiceStub struct {
	staffID string
}

func (s *hoursServiceStub) List(ctx context.Context, staffID string) ([]models.WorkingHoursRule, error) {
	s.staffID = staffID
	return []models.WorkingHoursRule{{StaffID: staffID, DayOfWeek: 1, StartTime: "09:00", EndTime: "18:00", IsActive: true}}, nil
}

func (s *hoursServiceStub) Replace(ctx context.Context, staffID string, req dto.ReplaceWorkingHoursRequest) ([]models.WorkingHoursRule, error) {
	s.staffID = staffID
	return []models.WorkingHoursRule{}, nil
}

type overrideServiceStub struct {
	deleted []string
	date    string
	err     error
}

func (s *overrideServiceStub) List(ctx context.Context, staffID, date string) ([]models.AvailabilityOverride, error) {
	s.date = date
	return []models.AvailabilityOverride{}, nil
}

func (s *overrideServiceStub) Create(ctx context.Context, staffID string, req dto.CreateOverrideRequest) (*models.AvailabilityOverride, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.AvailabilityOverride{ID: "o1", StaffID: staffID, StartTime: req.StartTime, EndTime: req.EndTime, IsAvailable: req.IsAvailable}, nil
}

func (s *overrideServiceStub) Delete(ctx context.Context, id string) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func TestScheduleHandlerWorkingHours(t *testing.T) {
	hours := &hoursServiceStub{}
	h := NewScheduleHandler(hours, &overrideServiceStub{})

	c, w := newJSONContext(t, http.MethodGet, "/staff/staff-1/working-hours", nil, barberClaims)
	c.Params = gin.Params{{Key: "id", Value: "staff-1"}}
	h.ListWorkingHours(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "staff-1", hours.staffID)

	day := 1
	body := dto.ReplaceWorkingHoursRequest{Rules: []dto.WorkingHoursRuleInput{{DayOfWeek: &day, StartTime: "09:00", EndTime: "18:00"}}}
	c, w = newJSONContext(t, http.MethodPut, "/staff/staff-2/working-hours", body, ownerClaims)
	c.Params = gin.Params{{Key: "id", Value: "staff-2"}}
	h.ReplaceWorkingHours(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "staff-2", hours.staffID)
}

func TestScheduleHandlerOverrides(t *testing.T) {
	overrides := &overrideServiceStub{}
	h := NewScheduleHandler(&hoursServiceStub{}, overrides)

	c, w := newJSONContext(t, http.MethodGet, "/staff/staff-1/overrides?date=2024-05-06", nil, barberClaims)
	c.Params = gin.Params{{Key: "id", Value: "staff-1"}}
	h.ListOverrides(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-05-06", overrides.date)

	c, w = newJSONContext(t, http.MethodPost, "/staff/staff-1/overrides", dto.CreateOverrideRequest{Date: "2024-05-06", StartTime: "12:00", EndTime: "13:00"}, barberClaims)
	c.Params = gin.Params{{Key: "id", Value: "staff-1"}}
	h.CreateOverride(c)
	assert.Equal(t, http.StatusCreated, w.Code)

	c, w = newJSONContext(t, http.MethodDelete, "/overrides/o1", nil, ownerClaims)
	c.Params = gin.Params{{Key: "id", Value: "o1"}}
	h.DeleteOverride(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Empty(t, w.Body.String())
	assert.Equal(t, []string{"o1"}, overrides.deleted)

	overrides.err = appErrors.Clone(appErrors.ErrConflict, "a narrowing window already exists for this date")
	c, w = newJSONContext(t, http.MethodPost, "/staff/staff-1/overrides", dto.CreateOverrideRequest{Date: "2024-05-06", StartTime: "12:00", EndTime: "13:00", IsAvailable: true}, ownerClaims)
	c.Params = gin.Params{{Key: "id", Value: "staff-1"}}
	h.CreateOverride(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}
