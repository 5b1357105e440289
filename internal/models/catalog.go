package models

import (
	"database/sql"
	"time"
)

// Service is a bookable catalogue item. A null duration falls back to the
// booking default.
type Service struct {
	ID              string        `db:"id" json:"id"`
	Name            string        `db:"name" json:"name"`
	DurationMinutes sql.NullInt64 `db:"duration_minutes" json:"-"`
	PriceCents      int           `db:"price_cents" json:"price_cents"`
	Active          bool          `db:"active" json:"active"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

// Duration returns the service length in minutes.
func (s Service) Duration() int {
	if s.DurationMinutes.Valid && s.DurationMinutes.Int64 > 0 {
		return int(s.DurationMinutes.Int64)
	}
	return DefaultBookingDurationMinutes
}

// Client is a shop customer identified by phone.
type Client struct {
	ID        string    `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Phone     string    `db:"phone" json:"phone"`
	Email     *string   `db:"email" json:"email,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
