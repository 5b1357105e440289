package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/barbershop-api/internal/models"
)

var bookingRowColumns = []string{"id", "staff_id", "client_id", "service_id", "date", "start_time", "duration_minutes", "service_duration_minutes", "status", "notes", "created_at", "updated_at"}

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestBookingRepositoryListActiveByStaffAndDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(bookingRowColumns).
		AddRow("b1", "staff-1", "c1", "svc-1", day, "10:00", 60, 45, "scheduled", nil, time.Now(), time.Now()).
		AddRow("b2", "staff-1", "c2", "svc-2", day, "11:00", 60, nil, "confirmed", nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings b LEFT JOIN services s ON s.id = b.service_id WHERE b.staff_id = $1 AND b.date = $2 AND b.status <> 'cancelled' AND b.id <> $3 ORDER BY b.start_time ASC")).
		WithArgs("staff-1", "2024-05-10", "b9").
		WillReturnRows(rows)

	bookings, err := repo.ListActiveByStaffAndDate(context.Background(), "staff-1", "2024-05-10", "b9")
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, 45, bookings[0].DurationMinutes())
	assert.Equal(t, models.DefaultBookingDurationMinutes, bookings[1].DurationMinutes())
	assert.Equal(t, models.BookingStatusConfirmed, bookings[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryListActiveWithoutExclusion(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("b.status <> 'cancelled' ORDER BY b.start_time ASC, b.created_at ASC")).
		WithArgs("staff-1", "2024-05-10").
		WillReturnRows(sqlmock.NewRows(bookingRowColumns))

	bookings, err := repo.ListActiveByStaffAndDate(context.Background(), "staff-1", "2024-05-10", "")
	require.NoError(t, err)
	assert.Empty(t, bookings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCreateMapsExclusionViolation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	booking := &models.Booking{
		StaffID:       "staff-1",
		ClientID:      "c1",
		ServiceID:     "svc-1",
		Date:          time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
		StartTime:     "10:00",
		BookedMinutes: 60,
	}

	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(sqlmock.AnyArg(), "staff-1", "c1", "svc-1", "2024-05-10", "10:00", 60, "scheduled", nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.Create(context.Background(), booking))
	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, models.BookingStatusScheduled, booking.Status)

	clash := &models.Booking{StaffID: "staff-1", ClientID: "c2", ServiceID: "svc-1", Date: booking.Date, StartTime: "10:30", BookedMinutes: 60}
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnError(&pq.Error{Code: "23P01", Message: "conflicting key value violates exclusion constraint"})
	err := repo.Create(context.Background(), clash)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSlotTaken))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryRescheduleAndStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	booking := &models.Booking{ID: "b1", Date: time.Date(2024, 5, 11, 0, 0, 0, 0, time.UTC), StartTime: "14:00", BookedMinutes: 30}
	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET date = $2, start_time = $3, duration_minutes = $4, updated_at = $5 WHERE id = $1")).
		WithArgs("b1", "2024-05-11", "14:00", 30, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Reschedule(context.Background(), booking))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET status = $2")).
		WithArgs("missing", "cancelled", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.UpdateStatus(context.Background(), "missing", models.BookingStatusCancelled)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND b.staff_id = $1 AND b.status = $2 ORDER BY b.date ASC, b.start_time ASC LIMIT 20 OFFSET 0")).
		WithArgs("staff-1", "scheduled").
		WillReturnRows(sqlmock.NewRows(bookingRowColumns).
			AddRow("b1", "staff-1", "c1", "svc-1", time.Now(), "09:00", 60, 60, "scheduled", nil, time.Now(), time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM bookings b LEFT JOIN services s ON s.id = b.service_id WHERE 1=1 AND b.staff_id = $1 AND b.status = $2")).
		WithArgs("staff-1", "scheduled").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.BookingFilter{StaffID: "staff-1", Status: models.BookingStatusScheduled})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
