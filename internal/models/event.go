package models

import "time"

// Booking event types.
const (
	BookingEventCreated       = "booking.created"
	BookingEventRescheduled   = "booking.rescheduled"
	BookingEventStatusChanged = "booking.status_changed"
	BookingEventCancelled     = "booking.cancelled"
	ScheduleEventChanged      = "schedule.changed"
)

// BookingEvent describes a change affecting a staff member's slot grid.
// PreviousDate is set when a reschedule moves the booking to another day.
type BookingEvent struct {
	ID           string        `json:"id"`
	Type         string        `json:"type"`
	BookingID    string        `json:"booking_id,omitempty"`
	StaffID      string        `json:"staff_id"`
	Date         string        `json:"date,omitempty"`
	PreviousDate string        `json:"previous_date,omitempty"`
	StartTime    string        `json:"start_time,omitempty"`
	Status       BookingStatus `json:"status,omitempty"`
	OccurredAt   time.Time     `json:"occurred_at"`
}
