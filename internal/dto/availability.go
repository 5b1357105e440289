package dto

import "github.com/noah-isme/barbershop-api/internal/models"

// AvailabilityCheckRequest asks whether a slot can be booked. Duration falls
// back to the service duration, then to the booking default.
type AvailabilityCheckRequest struct {
	StaffID          string `json:"staff_id" validate:"required"`
	Date             string `json:"date" validate:"required,isodate"`
	StartTime        string `json:"start_time" validate:"required,hhmm"`
	DurationMinutes  int    `json:"duration_minutes" validate:"omitempty,min=1,max=720"`
	ServiceID        string `json:"service_id"`
	ExcludeBookingID string `json:"exclude_booking_id"`
}

// SlotGridQuery selects a staff member's slot grid.
type SlotGridQuery struct {
	Date            string `form:"date" binding:"required"`
	DurationMinutes int    `form:"duration" binding:"omitempty,min=1,max=720"`
}

// SlotGrid is a day's slot grid.
type SlotGrid struct {
	StaffID         string            `json:"staff_id"`
	Date            string            `json:"date"`
	DurationMinutes int               `json:"duration_minutes"`
	Slots           []models.TimeSlot `json:"slots"`
}
