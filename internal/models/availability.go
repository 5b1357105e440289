package models

import "time"

// AvailabilityOverride is a date-specific exception to the weekly schedule.
// IsAvailable=false blocks [StartTime,EndTime); IsAvailable=true narrows the
// working window of that date to [StartTime,EndTime].
type AvailabilityOverride struct {
	ID          string    `db:"id" json:"id"`
	StaffID     string    `db:"staff_id" json:"staff_id"`
	Date        time.Time `db:"date" json:"date"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	IsAvailable bool      `db:"is_available" json:"is_available"`
	Reason      *string   `db:"reason" json:"reason,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// SlotQuery is a candidate slot: a start time and duration on a staff member's day.
type SlotQuery struct {
	StaffID          string
	Date             time.Time
	StartTime        string
	DurationMinutes  int
	ExcludeBookingID string
}

// Availability reason codes.
const (
	ReasonInvalidInput    = "INVALID_INPUT"
	ReasonNotWorkingDay   = "NOT_WORKING_DAY"
	ReasonOutsideHours    = "OUTSIDE_HOURS"
	ReasonBookingConflict = "BOOKING_CONFLICT"
	ReasonBlocked         = "BLOCKED"
	ReasonOutsideWindow   = "OUTSIDE_OVERRIDE_WINDOW"
	ReasonUnverified      = "UNVERIFIED"
)

// AvailabilityResult is the verdict for a candidate slot. Business rejections
// and infrastructure failures share this shape; Code tells them apart.
type AvailabilityResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
}

// Available is the passing verdict.
func Available() AvailabilityResult {
	return AvailabilityResult{Valid: true}
}

// Unavailable is a failing verdict with a reason code and message.
func Unavailable(code, message string) AvailabilityResult {
	return AvailabilityResult{Valid: false, Code: code, Error: message}
}

// Retryable reports whether the verdict came from an infrastructure failure.
func (r AvailabilityResult) Retryable() bool {
	return !r.Valid && r.Code == ReasonUnverified
}

// Slot reasons.
const (
	SlotReasonOccupied = "already occupied"
	SlotReasonPassed   = "time has passed"
)

// TimeSlot is one tick of a day's slot grid.
type TimeSlot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}
