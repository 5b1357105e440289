package dto

// CreateBookingRequest is the payload for booking a slot.
type CreateBookingRequest struct {
	StaffID   string  `json:"staff_id" validate:"required"`
	ClientID  string  `json:"client_id" validate:"required"`
	ServiceID string  `json:"service_id" validate:"required"`
	Date      string  `json:"date" validate:"required,isodate"`
	StartTime string  `json:"start_time" validate:"required,hhmm"`
	Notes     *string `json:"notes" validate:"omitempty,max=500"`
}

// RescheduleBookingRequest moves a booking.
type RescheduleBookingRequest struct {
	Date      string `json:"date" validate:"required,isodate"`
	StartTime string `json:"start_time" validate:"required,hhmm"`
}

// UpdateBookingStatusRequest moves a booking along its lifecycle.
type UpdateBookingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed completed cancelled"`
}

// BookingQuery filters booking listings.
type BookingQuery struct {
	StaffID  string `form:"staff_id"`
	ClientID string `form:"client_id"`
	DateFrom string `form:"date_from" validate:"omitempty,isodate"`
	DateTo   string `form:"date_to" validate:"omitempty,isodate"`
	Status   string `form:"status" validate:"omitempty,oneof=scheduled confirmed completed cancelled"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}
