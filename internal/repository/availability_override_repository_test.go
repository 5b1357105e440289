package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/barbershop-api/internal/models"
)

func TestAvailabilityOverrideRepositoryListByStaffAndDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityOverrideRepository(db)

	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "staff_id", "date", "start_time", "end_time", "is_available", "reason", "created_at", "updated_at"}).
		AddRow("o1", "staff-1", day, "12:00", "13:00", false, "lunch", time.Now(), time.Now()).
		AddRow("o2", "staff-1", day, "14:00", "16:00", true, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM availability_overrides WHERE staff_id = $1 AND date = $2 ORDER BY created_at ASC, id ASC")).
		WithArgs("staff-1", "2024-05-10").
		WillReturnRows(rows)

	overrides, err := repo.ListByStaffAndDate(context.Background(), "staff-1", "2024-05-10")
	require.NoError(t, err)
	require.Len(t, overrides, 2)
	assert.False(t, overrides[0].IsAvailable)
	require.NotNil(t, overrides[0].Reason)
	assert.Equal(t, "lunch", *overrides[0].Reason)
	assert.True(t, overrides[1].IsAvailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityOverrideRepositoryCreateDuplicateWindow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityOverrideRepository(db)

	mock.ExpectExec("INSERT INTO availability_overrides").
		WithArgs(sqlmock.AnyArg(), "staff-1", "2024-05-10", "14:00", "16:00", true, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.AvailabilityOverride{
		StaffID: "staff-1", Date: time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), StartTime: "14:00", EndTime: "16:00", IsAvailable: true,
	})
	assert.True(t, errors.Is(err, ErrDuplicate))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityOverrideRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityOverrideRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM availability_overrides WHERE id = $1")).
		WithArgs("o1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), "o1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
