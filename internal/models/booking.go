package models

import (
	"database/sql"
	"time"
)

// DefaultBookingDurationMinutes applies when a booking's service has no duration.
const DefaultBookingDurationMinutes = 60

// BookingStatus is the soft lifecycle of a booking.
type BookingStatus string

const (
	BookingStatusScheduled BookingStatus = "scheduled"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusScheduled: {BookingStatusConfirmed, BookingStatusCompleted, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCompleted, BookingStatusCancelled},
}

// Valid reports whether s is a known status.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusScheduled, BookingStatusConfirmed, BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed.
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

// CanTransitionTo reports whether s may move to next.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Booking is an appointment of a client with a staff member.
// ServiceDuration comes from a join on the service catalogue and may be null.
type Booking struct {
	ID              string        `db:"id" json:"id"`
	StaffID         string        `db:"staff_id" json:"staff_id"`
	ClientID        string        `db:"client_id" json:"client_id"`
	ServiceID       string        `db:"service_id" json:"service_id"`
	Date            time.Time     `db:"date" json:"date"`
	StartTime       string        `db:"start_time" json:"start_time"`
	BookedMinutes   int           `db:"duration_minutes" json:"booked_minutes"`
	ServiceDuration sql.NullInt64 `db:"service_duration_minutes" json:"-"`
	Status          BookingStatus `db:"status" json:"status"`
	Notes           *string       `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

// DurationMinutes derives the booking length from its service, defaulting to
// DefaultBookingDurationMinutes when the service duration is unknown.
func (b Booking) DurationMinutes() int {
	if b.ServiceDuration.Valid && b.ServiceDuration.Int64 > 0 {
		return int(b.ServiceDuration.Int64)
	}
	return DefaultBookingDurationMinutes
}

// BookingFilter narrows booking listings.
type BookingFilter struct {
	StaffID  string
	ClientID string
	DateFrom string
	DateTo   string
	Status   BookingStatus
	Page     int
	PageSize int
}
