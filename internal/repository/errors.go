package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrSlotTaken reports an insert or update rejected by the bookings
	// exclusion constraint: another live booking overlaps the interval.
	ErrSlotTaken = errors.New("booking overlaps an existing booking")
	// ErrDuplicate reports a unique constraint violation.
	ErrDuplicate = errors.New("duplicate record")
	// ErrMissingReference reports a foreign key violation.
	ErrMissingReference = errors.New("referenced record does not exist")
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqExclusionViolation  = "23P01"
)

// translatePQError maps constraint violations onto the package sentinels.
func translatePQError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pqExclusionViolation:
		return ErrSlotTaken
	case pqUniqueViolation:
		return ErrDuplicate
	case pqForeignKeyViolation:
		return ErrMissingReference
	}
	return err
}
