package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/barbershop-api/internal/models"
)

const bookingColumns = `b.id, b.staff_id, b.client_id, b.service_id, b.date, to_char(b.start_time, 'HH24:MI') AS start_time, b.duration_minutes, s.duration_minutes AS service_duration_minutes, b.status, b.notes, b.created_at, b.updated_at`

const bookingFrom = ` FROM bookings b LEFT JOIN services s ON s.id = b.service_id`

// BookingRepository provides persistence for bookings.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new booking repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// ListActiveByStaffAndDate returns the non-cancelled bookings of a staff
// member on date, ordered by start time. excludeID drops one booking so a
// reschedule is not checked against itself.
func (r *BookingRepository) ListActiveByStaffAndDate(ctx context.Context, staffID, date, excludeID string) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + bookingFrom + ` WHERE b.staff_id = $1 AND b.date = $2 AND b.status <> 'cancelled'`
	args := []interface{}{staffID, date}
	if excludeID != "" {
		query += ` AND b.id <> $3`
		args = append(args, excludeID)
	}
	query += ` ORDER BY b.start_time ASC, b.created_at ASC`

	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("list bookings by staff and date: %w", err)
	}
	return bookings, nil
}

// FindByID loads a booking by id.
func (r *BookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + bookingFrom + ` WHERE b.id = $1`
	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

// FindNextForClient returns the earliest live booking of a client on date.
func (r *BookingRepository) FindNextForClient(ctx context.Context, clientID, date string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + bookingFrom + ` WHERE b.client_id = $1 AND b.date = $2 AND b.status IN ('scheduled', 'confirmed') ORDER BY b.start_time ASC LIMIT 1`
	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, clientID, date); err != nil {
		return nil, err
	}
	return &booking, nil
}

// List returns bookings with optional filtering and pagination.
func (r *BookingRepository) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error) {
	base := bookingFrom + ` WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.StaffID != "" {
		conditions = append(conditions, fmt.Sprintf("b.staff_id = $%d", len(args)+1))
		args = append(args, filter.StaffID)
	}
	if filter.ClientID != "" {
		conditions = append(conditions, fmt.Sprintf("b.client_id = $%d", len(args)+1))
		args = append(args, filter.ClientID)
	}
	if filter.DateFrom != "" {
		conditions = append(conditions, fmt.Sprintf("b.date >= $%d", len(args)+1))
		args = append(args, filter.DateFrom)
	}
	if filter.DateTo != "" {
		conditions = append(conditions, fmt.Sprintf("b.date <= $%d", len(args)+1))
		args = append(args, filter.DateTo)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("b.status = $%d", len(args)+1))
		args = append(args, string(filter.Status))
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := models.NewPagination(filter.Page, filter.PageSize, 0)
	offset := (page.Page - 1) * page.PageSize

	query := fmt.Sprintf("SELECT %s%s ORDER BY b.date ASC, b.start_time ASC LIMIT %d OFFSET %d", bookingColumns, base, page.PageSize, offset)
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*)"+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}
	return bookings, total, nil
}

// Create stores a new booking. An overlapping live booking yields ErrSlotTaken.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	if booking.Status == "" {
		booking.Status = models.BookingStatusScheduled
	}
	now := time.Now().UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	const query = `INSERT INTO bookings (id, staff_id, client_id, service_id, date, start_time, duration_minutes, status, notes, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	if _, err := r.db.ExecContext(ctx, query,
		booking.ID, booking.StaffID, booking.ClientID, booking.ServiceID,
		booking.Date.Format("2006-01-02"), booking.StartTime, booking.BookedMinutes,
		string(booking.Status), booking.Notes, booking.CreatedAt, booking.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create booking: %w", translatePQError(err))
	}
	return nil
}

// Reschedule moves a booking to a new date and start time.
func (r *BookingRepository) Reschedule(ctx context.Context, booking *models.Booking) error {
	booking.UpdatedAt = time.Now().UTC()
	const query = `UPDATE bookings SET date = $2, start_time = $3, duration_minutes = $4, updated_at = $5 WHERE id = $1 AND status IN ('scheduled', 'confirmed')`
	res, err := r.db.ExecContext(ctx, query, booking.ID, booking.Date.Format("2006-01-02"), booking.StartTime, booking.BookedMinutes, booking.UpdatedAt)
	if err != nil {
		return fmt.Errorf("reschedule booking: %w", translatePQError(err))
	}
	return expectOneRow(res, "reschedule booking")
}

// UpdateStatus moves a booking to status.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, status models.BookingStatus) error {
	const query = `UPDATE bookings SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, string(status), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update booking status: %w", translatePQError(err))
	}
	return expectOneRow(res, "update booking status")
}

func expectOneRow(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
