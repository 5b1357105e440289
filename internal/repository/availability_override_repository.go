package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/barbershop-api/internal/models"
)

const overrideColumns = `id, staff_id, date, to_char(start_time, 'HH24:MI') AS start_time, to_char(end_time, 'HH24:MI') AS end_time, is_available, reason, created_at, updated_at`

// AvailabilityOverrideRepository persists date-specific availability exceptions.
type AvailabilityOverrideRepository struct {
	db *sqlx.DB
}

// NewAvailabilityOverrideRepository creates a new override repository.
func NewAvailabilityOverrideRepository(db *sqlx.DB) *AvailabilityOverrideRepository {
	return &AvailabilityOverrideRepository{db: db}
}

// ListByStaffAndDate returns all overrides of a staff member on date in creation order.
func (r *AvailabilityOverrideRepository) ListByStaffAndDate(ctx context.Context, staffID, date string) ([]models.AvailabilityOverride, error) {
	query := `SELECT ` + overrideColumns + ` FROM availability_overrides WHERE staff_id = $1 AND date = $2 ORDER BY created_at ASC, id ASC`
	var overrides []models.AvailabilityOverride
	if err := r.db.SelectContext(ctx, &overrides, query, staffID, date); err != nil {
		return nil, fmt.Errorf("list availability overrides: %w", err)
	}
	return overrides, nil
}

// FindByID loads an override by id.
func (r *AvailabilityOverrideRepository) FindByID(ctx context.Context, id string) (*models.AvailabilityOverride, error) {
	query := `SELECT ` + overrideColumns + ` FROM availability_overrides WHERE id = $1`
	var override models.AvailabilityOverride
	if err := r.db.GetContext(ctx, &override, query, id); err != nil {
		return nil, err
	}
	return &override, nil
}

// Create stores an override. A second narrowing window on the same date yields ErrDuplicate.
func (r *AvailabilityOverrideRepository) Create(ctx context.Context, override *models.AvailabilityOverride) error {
	if override.ID == "" {
		override.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	override.CreatedAt = now
	override.UpdatedAt = now

	const query = `INSERT INTO availability_overrides (id, staff_id, date, start_time, end_time, is_available, reason, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := r.db.ExecContext(ctx, query,
		override.ID, override.StaffID, override.Date.Format("2006-01-02"), override.StartTime, override.EndTime,
		override.IsAvailable, override.Reason, override.CreatedAt, override.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create availability override: %w", translatePQError(err))
	}
	return nil
}

// Delete removes an override by id.
func (r *AvailabilityOverrideRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM availability_overrides WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete availability override: %w", err)
	}
	return expectOneRow(res, "delete availability override")
}
