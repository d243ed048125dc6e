package reports

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/absensi/internal/server/models"
)

func TestUpsert(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	q := `(?s)INSERT\s+INTO\s+report_rows\b.*ON\s+CONFLICT\s+ON\s+CONSTRAINT\s+report_rows_natural_key`
	row := models.ReportRow{
		TimestampLocal: "2024-05-06 08:00:00", Date: "2024-05-06", StudentID: "1001", StudentName: "Ani",
		Class: "7A", Teacher: "Bu Sari", Mode: "mapel", HourSlot: 1, Subject: "IPA", Status: "Hadir",
	}

	mock.ExpectExec(q).
		WithArgs("2024-05-06 08:00:00", "2024-05-06", "1001", "Ani", "7A", "Bu Sari", "mapel", 1, "IPA", "", "Hadir").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(q).WillReturnError(errors.New("boom"))

	require.NoError(t, repo.Upsert(context.Background(), row))
	assert.ErrorContains(t, repo.Upsert(context.Background(), row), "upsert report row")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByDate(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery(`SELECT\s+count\(\*\)\s+FROM\s+report_rows`).
		WithArgs("2024-05-06").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.CountByDate(context.Background(), "2024-05-06")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
