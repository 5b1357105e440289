// Package timeofday implements minute-precision arithmetic over zero-padded
// "HH:MM" wall-clock strings. No timezone conversion happens here: a value is
// a position within a calendar day, not an instant.
package timeofday

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinutesPerDay is the number of minutes in a wall-clock day.
const MinutesPerDay = 24 * 60

// DateLayout is the calendar date layout used across the API.
const DateLayout = "2006-01-02"

// Parse converts "HH:MM" (or "HH:MM:SS", seconds ignored) into minutes since midnight.
func Parse(value string) (int, error) {
	value = strings.TrimSpace(value)
	parts := strings.Split(value, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time of day %q", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) == 0 || len(parts[0]) > 2 {
		return 0, fmt.Errorf("invalid hour in %q", value)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid minute in %q", value)
	}
	if len(parts) == 3 {
		if secs, err := strconv.Atoi(parts[2]); err != nil || len(parts[2]) != 2 || secs < 0 || secs > 59 {
			return 0, fmt.Errorf("invalid second in %q", value)
		}
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("time of day %q out of range", value)
	}
	return hours*60 + minutes, nil
}

// Format renders minutes since midnight as "HH:MM". Values at or past 24:00
// are not wrapped, so string order stays chronological within one day.
func Format(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Normalize re-renders a parsable time of day in canonical "HH:MM" form.
func Normalize(value string) (string, error) {
	m, err := Parse(value)
	if err != nil {
		return "", err
	}
	return Format(m), nil
}

// Valid reports whether value parses as a time of day.
func Valid(value string) bool {
	_, err := Parse(value)
	return err == nil
}

// AddMinutes returns value shifted by delta minutes.
func AddMinutes(value string, delta int) (string, error) {
	m, err := Parse(value)
	if err != nil {
		return "", err
	}
	return Format(m + delta), nil
}

// Overlaps reports whether [aStart,aEnd) and [bStart,bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && aEnd > bStart
}

// ParseDate parses a "YYYY-MM-DD" calendar date at midnight in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return d, nil
}

// FormatDate renders the calendar date part of t.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// At returns the instant for the wall-clock time value on date, in loc.
func At(date time.Time, value string, loc *time.Location) (time.Time, error) {
	m, err := Parse(value)
	if err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = date.Location()
	}
	y, mo, d := date.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, loc).Add(time.Duration(m) * time.Minute), nil
}

// SameDay reports whether a and b fall on the same calendar date in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	if loc != nil {
		a = a.In(loc)
		b = b.In(loc)
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
