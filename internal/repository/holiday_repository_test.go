package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHolidayRepositoryListOrdersByStart(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHolidayRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "name", "valid_from", "valid_until", "created_at"}).
		AddRow("hol-1", "Talvevaheaeg", time.Date(2024, time.December, 23, 0, 0, 0, 0, time.UTC), time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC), now).
		AddRow("hol-2", "Suvevaheaeg", time.Date(2025, time.June, 12, 0, 0, 0, 0, time.UTC), time.Date(2025, time.August, 31, 0, 0, 0, 0, time.UTC), now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, valid_from, valid_until, created_at FROM holidays ORDER BY valid_from ASC")).
		WillReturnRows(rows)

	holidays, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, holidays, 2)
	assert.Equal(t, "Talvevaheaeg", holidays[0].Name)
	assert.Equal(t, "2025-06-12", holidays[1].ValidFrom.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHolidayRepositoryDeleteUnknownID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHolidayRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM holidays WHERE id = $1")).
		WithArgs("hol-404").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "hol-404")
	require.ErrorIs(t, err, ErrNoRowsAffected)
	require.NoError(t, mock.ExpectationsWereMet())
}
