package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/barbershop-api/internal/models"
)

const workingHoursColumns = `id, staff_id, day_of_week, to_char(start_time, 'HH24:MI') AS start_time, to_char(end_time, 'HH24:MI') AS end_time, is_active, created_at, updated_at`

// WorkingHoursRepository persists weekly working-hours rules.
type WorkingHoursRepository struct {
	db *sqlx.DB
}

// NewWorkingHoursRepository creates a new working hours repository.
func NewWorkingHoursRepository(db *sqlx.DB) *WorkingHoursRepository {
	return &WorkingHoursRepository{db: db}
}

// FindActive returns the active rule for a staff member and weekday, or sql.ErrNoRows.
func (r *WorkingHoursRepository) FindActive(ctx context.Context, staffID string, dayOfWeek int) (*models.WorkingHoursRule, error) {
	query := `SELECT ` + workingHoursColumns + ` FROM working_hours WHERE staff_id = $1 AND day_of_week = $2 AND is_active = TRUE ORDER BY updated_at DESC LIMIT 1`
	var rule models.WorkingHoursRule
	if err := r.db.GetContext(ctx, &rule, query, staffID, dayOfWeek); err != nil {
		return nil, err
	}
	return &rule, nil
}

// ListByStaff returns every rule of a staff member ordered by weekday.
func (r *WorkingHoursRepository) ListByStaff(ctx context.Context, staffID string) ([]models.WorkingHoursRule, error) {
	query := `SELECT ` + workingHoursColumns + ` FROM working_hours WHERE staff_id = $1 ORDER BY day_of_week ASC, start_time ASC`
	var rules []models.WorkingHoursRule
	if err := r.db.SelectContext(ctx, &rules, query, staffID); err != nil {
		return nil, fmt.Errorf("list working hours: %w", err)
	}
	return rules, nil
}

// ReplaceForStaff swaps the whole weekly schedule of a staff member in one transaction.
func (r *WorkingHoursRepository) ReplaceForStaff(ctx context.Context, staffID string, rules []models.WorkingHoursRule) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace working hours: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM working_hours WHERE staff_id = $1`, staffID); err != nil {
		return fmt.Errorf("clear working hours: %w", err)
	}

	now := time.Now().UTC()
	for i := range rules {
		rule := &rules[i]
		if rule.ID == "" {
			rule.ID = uuid.NewString()
		}
		rule.StaffID = staffID
		rule.CreatedAt = now
		rule.UpdatedAt = now
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO working_hours (id, staff_id, day_of_week, start_time, end_time, is_active, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			rule.ID, rule.StaffID, rule.DayOfWeek, rule.StartTime, rule.EndTime, rule.IsActive, rule.CreatedAt, rule.UpdatedAt,
		); err != nil {
			err = translatePQError(err)
			return fmt.Errorf("insert working hours: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit working hours: %w", err)
	}
	return nil
}
