package services

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/absensi/internal/client/models"
	"github.com/dmitrijs2005/absensi/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/absensi/internal/common"
)

const (
	april01 = "2024-04-01T00:00:00.000Z"
	april15 = "2024-04-15T00:00:00.000Z"
	april20 = "2024-04-20T00:00:00.000Z"
	may01   = "2024-05-01T00:00:00.000Z"
	may02   = "2024-05-02T00:00:00.000Z"
)

func TestMergeMasters_LastWriterWins(t *testing.T) {
	h := newHarness(t, SyncOptions{})
	ctx := context.Background()
	students := h.repos.Masters.Students()

	for _, s := range []models.Student{
		{ID: "A", Name: "A local", Class: "7A", UpdatedAt: may01},
		{ID: "B", Name: "B local", Class: "7A", UpdatedAt: april01},
		{ID: "C", Name: "C local", Class: "7B", UpdatedAt: april01},
		{ID: "F", Name: "F local", Class: "7B", UpdatedAt: april15},
	} {
		require.NoError(t, students.Upsert(ctx, s))
	}

	h.ep.setMasters(map[string]any{
		"siswa": []any{
			map[string]any{"siswaId": "A", "nama": "A remote", "kelas": "7A", "updatedAt": april20},
			map[string]any{"siswaId": "B", "nama": "B remote", "kelas": "8A", "updatedAt": may02},
			map[string]any{"siswaId": "D", "nama": "D remote", "kelas": "9C", "updatedAt": april01},
			map[string]any{"nama": "no id"},
			map[string]any{"siswaId": "F", "nama": "F remote", "updatedAt": april15},
		},
		"guru":  []any{map[string]any{"guruId": 5, "nama": "Pak Budi"}},
		"mapel": []any{},
	})

	res, err := h.Masters.MergeMasters(ctx)
	require.NoError(t, err)

	assert.Equal(t, MergeResult{
		Students: MergeCounts{Pulled: 2, Pushed: 2},
		Teachers: MergeCounts{Pulled: 1},
		Skipped:  1,
	}, res)

	byID := map[string]models.Student{}
	list, err := students.List(ctx)
	require.NoError(t, err)
	for _, s := range list {
		byID[s.ID] = s
	}
	assert.Equal(t, "A local", byID["A"].Name)
	assert.Equal(t, "B remote", byID["B"].Name)
	assert.Equal(t, "8A", byID["B"].Class)
	assert.Equal(t, may02, byID["B"].UpdatedAt, "the remote stamp is kept")
	assert.Equal(t, "D remote", byID["D"].Name)
	assert.Equal(t, "F local", byID["F"].Name, "equal stamps change nothing")

	teacher, err := h.repos.Masters.Teachers().Get(ctx, "5")
	require.NoError(t, err)
	require.NotNil(t, teacher)
	assert.NotEmpty(t, teacher.UpdatedAt, "rows without a stamp are stamped on write")

	require.Equal(t, 1, h.ep.count("mastersUpsert"), "one push for all kinds")
	posts := h.ep.masterBatches()
	require.Len(t, posts, 1)
	var pushed []string
	for _, s := range posts[0].Students {
		pushed = append(pushed, s.ID)
	}
	assert.ElementsMatch(t, []string{"A", "C"}, pushed)
	assert.Empty(t, posts[0].Teachers)
}

func TestMergeMasters_NothingToPush(t *testing.T) {
	h := newHarness(t, SyncOptions{})
	ctx := context.Background()

	require.NoError(t, h.repos.Masters.Subjects().Upsert(ctx, models.Subject{ID: "MTK", Name: "Matematika", UpdatedAt: april15}))
	h.ep.setMasters(map[string]any{
		"siswa": []any{},
		"guru":  []any{},
		"mapel": []any{map[string]any{"mapelId": "MTK", "nama": "Math", "updatedAt": april15}},
	})

	res, err := h.Masters.MergeMasters(ctx)
	require.NoError(t, err)
	assert.Equal(t, MergeResult{}, res)
	assert.Zero(t, h.ep.count("mastersUpsert"))

	got, err := h.repos.Masters.Subjects().Get(ctx, "MTK")
	require.NoError(t, err)
	assert.Equal(t, "Matematika", got.Name)
}

func TestMergeMasters_Failures(t *testing.T) {
	h := newHarness(t, SyncOptions{})
	ctx := context.Background()

	h.online.off.Store(true)
	_, err := h.Masters.MergeMasters(ctx)
	require.ErrorIs(t, err, ErrOffline)
	assert.Zero(t, h.ep.total())

	h.online.off.Store(false)
	h.ep.fail(http.StatusInternalServerError)
	_, err = h.Masters.MergeMasters(ctx)
	require.ErrorIs(t, err, ErrFailedFetch)
}

func TestMergeMasters_InvalidURLMakesNoCalls(t *testing.T) {
	h := newHarness(t, SyncOptions{})
	ctx := context.Background()
	require.NoError(t, h.repos.Settings.Set(ctx, metadata.KeyEndpointURL, "not a url"))

	_, err := h.Masters.MergeMasters(ctx)
	require.ErrorIs(t, err, ErrMissingOrInvalidURL)
	assert.Zero(t, h.ep.total())
}

func TestMergeMasters_PushBackFailureKeepsPulledRows(t *testing.T) {
	h := newHarness(t, SyncOptions{})
	ctx := context.Background()
	students := h.repos.Masters.Students()

	require.NoError(t, students.Upsert(ctx, models.Student{ID: "S010", Name: "old", Class: "7B", UpdatedAt: april01}))
	require.NoError(t, students.Upsert(ctx, models.Student{ID: "S011", Name: "local only", Class: "7C", UpdatedAt: april15}))
	h.ep.setMasters(map[string]any{
		"siswa": []any{map[string]any{"siswaId": "S010", "nama": "new", "kelas": "8B", "updatedAt": may01}},
		"guru":  []any{},
		"mapel": []any{},
	})
	h.ep.failPOST(http.StatusInternalServerError)

	res, err := h.Masters.MergeMasters(ctx)
	require.ErrorIs(t, err, ErrFailedFetch)
	assert.Equal(t, 1, res.Students.Pulled)
	assert.Zero(t, res.Students.Pushed)
	assert.Equal(t, 1, h.ep.count("mastersUpsert"))

	got, err := students.Get(ctx, "S010")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.Student{ID: "S010", Name: "new", Class: "8B", UpdatedAt: may01}, *got)

	kept, err := students.Get(ctx, "S011")
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.Equal(t, "local only", kept.Name)
}

func TestPullMasters_UpsertsWithoutComparing(t *testing.T) {
	h := newHarness(t, SyncOptions{})
	ctx := context.Background()

	require.NoError(t, h.repos.Masters.Students().Upsert(ctx, models.Student{ID: "A", Name: "newer local", UpdatedAt: may02}))
	h.ep.setMasters(map[string]any{
		"siswa": []any{
			map[string]any{"siswaId": "A", "nama": "remote", "updatedAt": april01},
			map[string]any{"siswaId": 12, "nama": "numeric id"},
			map[string]any{"siswaId": ""},
		},
		"guru":  []any{"garbage"},
		"mapel": []any{map[string]any{"mapelId": "IPA", "nama": "IPA"}},
	})

	res, err := h.Masters.PullMasters(ctx)
	require.NoError(t, err)
	assert.Equal(t, PullMastersResult{Students: 2, Subjects: 1, Skipped: 2}, res)

	a, err := h.repos.Masters.Students().Get(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "remote", a.Name)

	n, err := h.repos.Masters.Students().Get(ctx, "12")
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Zero(t, h.ep.count("mastersUpsert"))
}

func TestImport(t *testing.T) {
	h := newHarness(t, SyncOptions{})
	ctx := context.Background()

	doc := `{
		"siswa": [{"siswaId": "S1", "nama": "Ani", "kelas": "7A"}, {"nama": "nobody"}],
		"guru": [{"guruId": "G1", "nama": "Pak Budi"}],
		"mapel": [{"mapelId": "MTK", "nama": "Matematika"}]
	}`
	res, err := h.Masters.Import(ctx, strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, PullMastersResult{Students: 1, Teachers: 1, Subjects: 1, Skipped: 1}, res)

	set, err := h.Masters.List(ctx)
	require.NoError(t, err)
	want := models.MasterSet{
		Students: []models.Student{{ID: "S1", Name: "Ani", Class: "7A"}},
		Teachers: []models.Teacher{{ID: "G1", Name: "Pak Budi"}},
		Subjects: []models.Subject{{ID: "MTK", Name: "Matematika"}},
	}
	ignoreStamp := cmp.FilterPath(func(p cmp.Path) bool {
		return p.Last().String() == ".UpdatedAt"
	}, cmp.Ignore())
	if diff := cmp.Diff(want, set, ignoreStamp); diff != "" {
		t.Errorf("masters mismatch (-want +got):\n%s", diff)
	}

	_, err = h.Masters.Import(ctx, strings.NewReader("{"))
	assert.ErrorIs(t, err, common.ErrorValidation)
	assert.Zero(t, h.ep.total())
}

func TestSaveAndDelete(t *testing.T) {
	h := newHarness(t, SyncOptions{})
	ctx := context.Background()

	err := h.Masters.Save(ctx, models.MasterSet{Students: []models.Student{{Name: "no id"}}})
	require.ErrorIs(t, err, common.ErrorValidation)

	require.NoError(t, h.Masters.Save(ctx, models.MasterSet{
		Teachers: []models.Teacher{{ID: "G1", Name: "Pak Budi", UpdatedAt: april01}},
	}))
	g, err := h.repos.Masters.Teachers().Get(ctx, "G1")
	require.NoError(t, err)
	assert.Equal(t, fixedClock.Stamp(), g.UpdatedAt, "a local edit is newer than anything before it")

	require.NoError(t, h.Masters.Delete(ctx, models.KindTeacher, "G1"))
	g, err = h.repos.Masters.Teachers().Get(ctx, "G1")
	require.NoError(t, err)
	assert.Nil(t, g)

	assert.ErrorIs(t, h.Masters.Delete(ctx, "kelas", "X"), common.ErrorValidation)
}
