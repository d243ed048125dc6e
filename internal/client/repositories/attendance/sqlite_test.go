package attendance

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/absensi/internal/client/migrations"
	"github.com/dmitrijs2005/absensi/internal/client/models"
	"github.com/dmitrijs2005/absensi/internal/common"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	goose.SetBaseFS(migrations.Migrations)
	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, goose.UpContext(context.Background(), db, "."))
	return db
}

func sample(student string) models.Attendance {
	return models.Attendance{
		Date:        "2024-05-01",
		Mode:        models.ModeSubject,
		HourSlot:    2,
		Subject:     "MTK",
		StudentID:   student,
		StudentName: "Name " + student,
		Status:      models.StatusPresent,
		Time:        "07:05:00",
		Responsible: "Bu Sari",
	}
}

func TestAppendAndGetByID(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	in := sample("S1")
	in.Activity = "dropped by normalize"
	in.Photo = []byte{0xff, 0xd8}

	id, err := r.Append(ctx, in)
	require.NoError(t, err)
	require.Positive(t, id)

	got, err := r.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "MTK", got.Subject)
	assert.Empty(t, got.Activity)
	assert.Equal(t, []byte{0xff, 0xd8}, got.Photo)
	assert.False(t, got.Synced)
}

func TestAppend_IDsAreNotReused(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	id1, err := r.Append(ctx, sample("S1"))
	require.NoError(t, err)
	require.NoError(t, r.Remove(ctx, id1))

	id2, err := r.Append(ctx, sample("S1"))
	require.NoError(t, err)
	assert.Greater(t, id2, id1)
}

func TestGetByID_NotFound(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	_, err := r.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUpdate_ResetsSynced(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	in := sample("S1")
	in.Synced = true
	id, err := r.Append(ctx, in)
	require.NoError(t, err)

	sick := models.StatusSick
	reason := "demam"
	require.NoError(t, r.Update(ctx, id, models.Patch{Status: &sick, Reason: &reason}))

	got, err := r.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSick, got.Status)
	assert.Equal(t, "demam", got.Reason)
	assert.Equal(t, "07:05:00", got.Time)
	assert.False(t, got.Synced)

	assert.ErrorIs(t, r.Update(ctx, 999, models.Patch{}), common.ErrorNotFound)
}

func TestRemove_UnknownIsNoop(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	require.NoError(t, r.Remove(context.Background(), 12345))
}

func TestFindByNaturalKey_IncompleteKey(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	got, err := r.FindByNaturalKey(context.Background(), models.KeyOf(models.Attendance{Date: "2024-05-01", Mode: models.ModeSubject, Subject: "MTK"}))
	require.ErrorIs(t, err, common.ErrorValidation)
	assert.ErrorIs(t, err, models.ErrIncompleteKey)
	assert.Nil(t, got)
}

func TestFindByNaturalKey(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	subj := sample("S1")
	subj.HourSlot = 0
	idSubj, err := r.Append(ctx, subj)
	require.NoError(t, err)

	act := models.Attendance{Date: "2024-05-01", Mode: models.ModeActivity, Activity: "Pramuka", StudentID: "S1", Status: models.StatusLate}
	idAct, err := r.Append(ctx, act)
	require.NoError(t, err)

	got, err := r.FindByNaturalKey(ctx, models.KeyOf(models.Attendance{Date: "2024-05-01", Mode: models.ModeSubject, HourSlot: 1, Subject: "MTK", StudentID: "S1"}))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, idSubj, got.ID)

	got, err = r.FindByNaturalKey(ctx, models.KeyOf(act))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, idAct, got.ID)

	got, err = r.FindByNaturalKey(ctx, models.KeyOf(models.Attendance{Date: "2024-05-01", Mode: models.ModeSubject, HourSlot: 1, Subject: "IPA", StudentID: "S1"}))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFindByDateAndRange(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	for _, d := range []string{"2024-04-30", "2024-05-01", "2024-05-02", "2024-05-03"} {
		a := sample("S1")
		a.Date = d
		_, err := r.Append(ctx, a)
		require.NoError(t, err)
	}

	day, err := r.FindByDate(ctx, "2024-05-01")
	require.NoError(t, err)
	require.Len(t, day, 1)

	rng, err := r.FindByDateRange(ctx, "2024-05-01", "2024-05-02")
	require.NoError(t, err)
	require.Len(t, rng, 2)
	assert.Equal(t, "2024-05-01", rng[0].Date)
	assert.Equal(t, "2024-05-02", rng[1].Date)

	open, err := r.FindByDateRange(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, open, 4)

	none, err := r.FindByDate(ctx, "2023-01-01")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestUnsyncedLifecycle(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	id1, err := r.Append(ctx, sample("S1"))
	require.NoError(t, err)
	id2, err := r.Append(ctx, sample("S2"))
	require.NoError(t, err)
	synced := sample("S3")
	synced.Synced = true
	_, err = r.Append(ctx, synced)
	require.NoError(t, err)

	n, err := r.CountUnsynced(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	pending, err := r.FindUnsynced(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, id1, pending[0].ID)

	changed, err := r.MarkSynced(ctx, []Ack{AckOf(pending[0]), {ID: 9999}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)

	changed, err = r.MarkSynced(ctx, []Ack{AckOf(pending[0])})
	require.NoError(t, err)
	assert.Equal(t, int64(0), changed, "idempotent")

	changed, err = r.MarkSynced(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), changed)

	pending, err = r.FindUnsynced(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, id2, pending[0].ID)
}

func TestMarkSynced_SkipsRowsEditedSinceRead(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	id, err := r.Append(ctx, sample("S1"))
	require.NoError(t, err)

	read, err := r.FindUnsynced(ctx)
	require.NoError(t, err)
	require.Len(t, read, 1)
	assert.Equal(t, int64(0), read[0].Revision)

	late := models.StatusLate
	require.NoError(t, r.Update(ctx, id, models.Patch{Status: &late}))

	changed, err := r.MarkSynced(ctx, []Ack{AckOf(read[0])})
	require.NoError(t, err)
	assert.Equal(t, int64(0), changed)

	again, err := r.FindUnsynced(ctx)
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, int64(1), again[0].Revision)

	changed, err = r.MarkSynced(ctx, []Ack{AckOf(again[0])})
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)
}

func TestMissingSyncedFlagCountsAsUnsynced(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO attendance (date, mode, student_id, status) VALUES ('2024-05-01', 'mapel', 'S9', 'Hadir')`)
	require.NoError(t, err)

	pending, err := r.FindUnsynced(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].HourSlot)
}

func TestApplyRemote(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	clean := sample("S1")
	clean.Synced = true
	idClean, err := r.Append(ctx, clean)
	require.NoError(t, err)

	idPending, err := r.Append(ctx, sample("S2"))
	require.NoError(t, err)

	remote := models.Attendance{StudentName: "Remote", Status: models.StatusAbsent}

	changed, err := r.ApplyRemote(ctx, idClean, remote)
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := r.GetByID(ctx, idClean)
	require.NoError(t, err)
	assert.Equal(t, "Remote", got.StudentName)
	assert.Equal(t, models.StatusAbsent, got.Status)
	assert.Equal(t, "07:05:00", got.Time, "empty remote time keeps local")
	assert.Equal(t, "Bu Sari", got.Responsible, "empty remote responsible keeps local")
	assert.True(t, got.Synced)

	remote.Time = "08:00:00"
	remote.Responsible = "Pak Budi"
	changed, err = r.ApplyRemote(ctx, idPending, remote)
	require.NoError(t, err)
	assert.False(t, changed)

	got, err = r.GetByID(ctx, idPending)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPresent, got.Status, "pending edit wins")
	assert.False(t, got.Synced)
}

func TestPhotoArchiveQueue(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	withPhoto := sample("S1")
	withPhoto.Photo = []byte("jpeg")
	id, err := r.Append(ctx, withPhoto)
	require.NoError(t, err)
	_, err = r.Append(ctx, sample("S2"))
	require.NoError(t, err)

	queue, err := r.FindPhotosToArchive(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, []byte("jpeg"), queue[0].Photo)

	require.NoError(t, r.SetPhotoKey(ctx, id, "photos/x.jpg"))

	queue, err = r.FindPhotosToArchive(ctx)
	require.NoError(t, err)
	assert.Empty(t, queue)
}

func TestErrorsAreWrapped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := NewSQLiteRepository(db)
	ctx := context.Background()
	boom := errors.New("boom")

	mock.ExpectExec(`INSERT INTO attendance`).WillReturnError(boom)
	_, err = r.Append(ctx, sample("S1"))
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to insert attendance")

	mock.ExpectQuery(`SELECT (.+) FROM attendance WHERE synced = 0`).WillReturnError(boom)
	_, err = r.FindUnsynced(ctx)
	assert.Contains(t, err.Error(), "failed to select unsynced attendance")

	mock.ExpectExec(`UPDATE attendance SET synced = 1`).WithArgs(int64(1), int64(0), int64(2), int64(3)).WillReturnError(boom)
	_, err = r.MarkSynced(ctx, []Ack{{ID: 1}, {ID: 2, Revision: 3}})
	assert.Contains(t, err.Error(), "failed to mark attendance synced")

	mock.ExpectQuery(`SELECT COUNT`).WillReturnError(boom)
	_, err = r.CountUnsynced(ctx)
	assert.Contains(t, err.Error(), "failed to count unsynced attendance")

	require.NoError(t, mock.ExpectationsWereMet())
}
