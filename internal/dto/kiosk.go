package dto

import "github.com/noah-isme/barbershop-api/internal/models"

// KioskSlotsQuery selects the grid shown on the kiosk.
type KioskSlotsQuery struct {
	StaffID   string `form:"staff_id" validate:"required"`
	ServiceID string `form:"service_id"`
	Date      string `form:"date" validate:"omitempty,isodate"`
}

// CheckInRequest identifies an arriving client by phone.
type CheckInRequest struct {
	Phone string `json:"phone" validate:"required,min=8,max=20"`
}

// CheckInResponse reports the confirmed booking.
type CheckInResponse struct {
	Client  *models.Client  `json:"client"`
	Booking *models.Booking `json:"booking"`
}

// WalkInRequest books today's slot for a client at the counter.
type WalkInRequest struct {
	FullName  string `json:"full_name" validate:"required,max=120"`
	Phone     string `json:"phone" validate:"required,min=8,max=20"`
	StaffID   string `json:"staff_id" validate:"required"`
	ServiceID string `json:"service_id" validate:"required"`
	StartTime string `json:"start_time" validate:"required,hhmm"`
}
