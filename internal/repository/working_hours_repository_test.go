package repository

import (
	"context"
	"database/sql"
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

var workingHoursRowColumns = []string{"id", "staff_id", "day_of_week", "start_time", "end_time", "is_active", "created_at", "updated_at"}

func TestWorkingHoursRepositoryFindActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWorkingHoursRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM working_hours WHERE staff_id = $1 AND day_of_week = $2 AND is_active = TRUE ORDER BY updated_at DESC LIMIT 1")).
		WithArgs("staff-1", 5).
		WillReturnRows(sqlmock.NewRows(workingHoursRowColumns).AddRow("r1", "staff-1", 5, "09:00", "18:00", true, time.Now(), time.Now()))

	rule, err := repo.FindActive(context.Background(), "staff-1", 5)
	require.NoError(t, err)
	assert.Equal(t, "09:00", rule.StartTime)
	assert.Equal(t, "18:00", rule.EndTime)

	mock.ExpectQuery("FROM working_hours WHERE staff_id").
		WithArgs("staff-1", 0).
		WillReturnError(sql.ErrNoRows)
	_, err = repo.FindActive(context.Background(), "staff-1", 0)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkingHoursRepositoryReplaceForStaff(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWorkingHoursRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM working_hours WHERE staff_id = $1")).
		WithArgs("staff-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO working_hours").
		WithArgs(sqlmock.AnyArg(), "staff-1", 1, "09:00", "18:00", true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO working_hours").
		WithArgs(sqlmock.AnyArg(), "staff-1", 2, "10:00", "16:00", true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	rules := []models.WorkingHoursRule{
		{DayOfWeek: 1, StartTime: "09:00", EndTime: "18:00", IsActive: true},
		{DayOfWeek: 2, StartTime: "10:00", EndTime: "16:00", IsActive: true},
	}
	require.NoError(t, repo.ReplaceForStaff(context.Background(), "staff-1", rules))
	assert.NotEmpty(t, rules[0].ID)
	assert.Equal(t, "staff-1", rules[1].StaffID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkingHoursRepositoryReplaceRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWorkingHoursRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM working_hours").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO working_hours").WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := repo.ReplaceForStaff(context.Background(), "staff-1", []models.WorkingHoursRule{{DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00", IsActive: true}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicate))
	assert.NoError(t, mock.ExpectationsWereMet())
}
