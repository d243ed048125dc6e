package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/absensi/internal/client/client"
	"github.com/dmitrijs2005/absensi/internal/client/models"
	"github.com/dmitrijs2005/absensi/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/absensi/internal/logging"
	"github.com/dmitrijs2005/absensi/internal/timex"

	_ "modernc.org/sqlite"
)

const today = "2024-05-06"

// 01:02:03 UTC is 08:02:03 WIB.
var fixedClock = timex.Clock{
	Zone: timex.ZoneWIB,
	Now:  func() time.Time { return time.Date(2024, 5, 6, 1, 2, 3, 0, time.UTC) },
}

// fakeEndpoint is an in-process stand-in for the spreadsheet endpoint. It
// counts calls per action and keeps what was posted.
type fakeEndpoint struct {
	srv *httptest.Server

	mu          sync.Mutex
	calls       map[string]int
	pushed      [][]models.Attendance
	rows        map[string]any
	masters     any
	masterPosts []models.MasterSet
	reports     [][]models.ReportRow
	uploads     map[string][]byte

	// failStatus, when set, answers every request with that status.
	failStatus int
	// failPosts answers only POST requests with failStatus.
	failPosts bool
	// pushReply builds the body for a push; nil acknowledges every row.
	pushReply func(rows []models.Attendance) any
	// onPush runs while a push request is being handled.
	onPush func()
}

func newFakeEndpoint(t *testing.T) *fakeEndpoint {
	t.Helper()
	f := &fakeEndpoint{
		calls:   map[string]int{},
		rows:    map[string]any{},
		uploads: map[string][]byte{},
		masters: map[string]any{"siswa": []any{}, "guru": []any{}, "mapel": []any{}},
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeEndpoint) count(action string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[action]
}

func (f *fakeEndpoint) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// fail makes the endpoint answer with status; 0 restores normal replies.
func (f *fakeEndpoint) fail(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failStatus = status
	f.failPosts = false
}

// failPOST makes only POST requests fail with status.
func (f *fakeEndpoint) failPOST(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failStatus = status
	f.failPosts = true
}

func (f *fakeEndpoint) setMasters(m any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.masters = m
}

func (f *fakeEndpoint) setPushReply(fn func(rows []models.Attendance) any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushReply = fn
}

func (f *fakeEndpoint) setOnPush(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onPush = fn
}

func (f *fakeEndpoint) pushedBatches() [][]models.Attendance {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]models.Attendance(nil), f.pushed...)
}

func (f *fakeEndpoint) masterBatches() []models.MasterSet {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.MasterSet(nil), f.masterPosts...)
}

func (f *fakeEndpoint) reportBatches() [][]models.ReportRow {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]models.ReportRow(nil), f.reports...)
}

func (f *fakeEndpoint) upload(key string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploads[key]
}

func (f *fakeEndpoint) setRows(date string, rows any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[date] = rows
}

func (f *fakeEndpoint) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeEndpoint) serve(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/upload/") {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.calls["upload"]++
		f.uploads[strings.TrimPrefix(r.URL.Path, "/upload/")] = body
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)
		return
	}

	action := r.URL.Query().Get("action")
	var body map[string]json.RawMessage
	if r.Method == http.MethodPost {
		_ = json.NewDecoder(r.Body).Decode(&body)
		action = "push"
		if raw, ok := body["action"]; ok {
			_ = json.Unmarshal(raw, &action)
		}
	}
	if action == "" {
		action = "ping"
	}

	f.mu.Lock()
	f.calls[action]++
	status := f.failStatus
	if f.failPosts && r.Method != http.MethodPost {
		status = 0
	}
	f.mu.Unlock()

	if status != 0 {
		http.Error(w, "boom", status)
		return
	}

	switch action {
	case "ping":
		f.writeJSON(w, map[string]any{"ok": true})

	case "absensi":
		f.mu.Lock()
		rows, ok := f.rows[r.URL.Query().Get("tanggal")]
		f.mu.Unlock()
		if !ok {
			rows = []any{}
		}
		f.writeJSON(w, map[string]any{"rows": rows})

	case "masters":
		f.mu.Lock()
		m := f.masters
		f.mu.Unlock()
		f.writeJSON(w, m)

	case "push":
		var rows []models.Attendance
		_ = json.Unmarshal(body["rows"], &rows)
		f.mu.Lock()
		f.pushed = append(f.pushed, rows)
		reply, hook := f.pushReply, f.onPush
		f.mu.Unlock()

		if hook != nil {
			hook()
		}
		if reply != nil {
			f.writeJSON(w, reply(rows))
			return
		}
		ids := make([]int64, 0, len(rows))
		for _, a := range rows {
			ids = append(ids, a.ID)
		}
		f.writeJSON(w, map[string]any{"ok": true, "savedIds": ids})

	case "mastersUpsert":
		var set models.MasterSet
		raw, _ := json.Marshal(body)
		_ = json.Unmarshal(raw, &set)
		f.mu.Lock()
		f.masterPosts = append(f.masterPosts, set)
		f.mu.Unlock()
		f.writeJSON(w, map[string]any{"ok": true})

	case "reportUpsert":
		var rows []models.ReportRow
		_ = json.Unmarshal(body["rows"], &rows)
		f.mu.Lock()
		f.reports = append(f.reports, rows)
		f.mu.Unlock()
		f.writeJSON(w, map[string]any{"ok": true})

	case "photoUploadUrl":
		var key string
		_ = json.Unmarshal(body["key"], &key)
		f.writeJSON(w, map[string]any{"ok": true, "url": f.srv.URL + "/upload/" + key})

	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
	}
}

// switchable is an OnlineChecker tests can flip.
type switchable struct{ off atomic.Bool }

func (s *switchable) Online() bool { return !s.off.Load() }

type harness struct {
	*Services
	repos  *client.Repositories
	ep     *fakeEndpoint
	online *switchable
}

func newHarness(t *testing.T, opts SyncOptions) *harness {
	t.Helper()
	ctx := context.Background()

	repos, err := client.InitDatabase(ctx, filepath.Join(t.TempDir(), "absensi.db"), fixedClock.Stamp)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })

	ep := newFakeEndpoint(t)
	require.NoError(t, repos.Settings.Set(ctx, metadata.KeyEndpointURL, ep.srv.URL))

	online := &switchable{}
	svc := New(Deps{
		Repos:  repos,
		Remote: client.NewHTTPClient(5*time.Second, "device-1", "absensi-test"),
		HTTP:   ep.srv.Client(),
		Online: online,
		Clock:  fixedClock,
		Log:    logging.Discard(),
		Sync:   opts,
	})

	return &harness{Services: svc, repos: repos, ep: ep, online: online}
}

func lesson(student string, status models.Status) models.Attendance {
	return models.Attendance{
		Date:        today,
		Mode:        models.ModeSubject,
		HourSlot:    1,
		Subject:     "Matematika",
		StudentID:   student,
		Status:      status,
		Responsible: "Bu Sari",
	}
}

func (h *harness) record(t *testing.T, a models.Attendance) models.Attendance {
	t.Helper()
	rec, _, err := h.Attendance.Record(context.Background(), a)
	require.NoError(t, err)
	return rec
}

func (h *harness) get(t *testing.T, id int64) models.Attendance {
	t.Helper()
	a, err := h.repos.Attendance.GetByID(context.Background(), id)
	require.NoError(t, err)
	return *a
}
