package masters

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/absensi/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func TestUpsertStudent_WrittenAndStale(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	q := `(?s)INSERT\s+INTO\s+students\b.*ON\s+CONFLICT\s*\(siswa_id\).*WHERE\s+students\.updated_ms\s*<=\s*EXCLUDED\.updated_ms`

	s := models.Student{ID: "1001", Name: "Ani", Class: "7A", UpdatedAt: "2024-05-06T01:00:00.000Z"}

	mock.ExpectExec(q).
		WithArgs("1001", "Ani", "7A", "2024-05-06T01:00:00.000Z", int64(1714957200000)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.UpsertStudent(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UpsertStudent(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, ok, "a newer stored row is kept")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertTeacherAndSubject_MissingStampIsEpoch(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`INSERT\s+INTO\s+teachers`).
		WithArgs("G1", "Bu Sari", "", int64(0)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT\s+INTO\s+subjects`).
		WithArgs("M1", "Matematika", "garbage", int64(0)).
		WillReturnError(errors.New("boom"))

	ok, err := repo.UpsertTeacher(context.Background(), models.Teacher{ID: "G1", Name: "Bu Sari"})
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repo.UpsertSubject(context.Background(), models.Subject{ID: "M1", Name: "Matematika", UpdatedAt: "garbage"})
	assert.ErrorContains(t, err, "upsert subject")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT\s+siswa_id,\s*nama,\s*kelas,\s*updated_at\s+FROM\s+students`).
		WillReturnRows(sqlmock.NewRows([]string{"siswa_id", "nama", "kelas", "updated_at"}).
			AddRow("1001", "Ani", "7A", "t1").
			AddRow("1002", "Budi", "7B", ""))
	mock.ExpectQuery(`FROM\s+teachers`).
		WillReturnRows(sqlmock.NewRows([]string{"guru_id", "nama", "updated_at"}))
	mock.ExpectQuery(`FROM\s+subjects`).WillReturnError(errors.New("down"))

	students, err := repo.ListStudents(context.Background())
	require.NoError(t, err)
	want := []models.Student{
		{ID: "1001", Name: "Ani", Class: "7A", UpdatedAt: "t1"},
		{ID: "1002", Name: "Budi", Class: "7B"},
	}
	if diff := cmp.Diff(want, students); diff != "" {
		t.Errorf("students mismatch (-want +got):\n%s", diff)
	}

	teachers, err := repo.ListTeachers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, teachers)
	assert.NotNil(t, teachers)

	_, err = repo.ListSubjects(context.Background())
	assert.ErrorContains(t, err, "failed to select subjects")
	assert.NoError(t, mock.ExpectationsWereMet())
}
