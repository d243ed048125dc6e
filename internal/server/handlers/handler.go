// Package handlers is the HTTP surface of the endpoint. Devices talk to a
// single URL: GET selects a snapshot with the action query parameter, POST
// carries the action in a JSON body. Bodies may arrive as text/plain, so
// they are decoded without looking at the content type.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/absensi/internal/common"
	"github.com/dmitrijs2005/absensi/internal/logging"
	"github.com/dmitrijs2005/absensi/internal/server/models"
	"github.com/dmitrijs2005/absensi/internal/server/services"
)

const (
	DeviceIDHeader = "X-Device-Id"

	ActionPing           = "ping"
	ActionPush           = "push"
	ActionAttendance     = "absensi"
	ActionMasters        = "masters"
	ActionMastersUpsert  = "mastersUpsert"
	ActionReportUpsert   = "reportUpsert"
	ActionPhotoUploadURL = "photoUploadUrl"

	maxBodyBytes = 10 << 20
)

type SyncAPI interface {
	PushAttendance(ctx context.Context, deviceID string, rows []models.Attendance) (services.PushOutcome, error)
	Attendance(ctx context.Context, date string) ([]models.Attendance, error)
	Masters(ctx context.Context) (models.MasterSet, error)
	UpsertMasters(ctx context.Context, set models.MasterSet) (services.MastersOutcome, error)
	UpsertReport(ctx context.Context, rows []models.ReportRow) (services.ReportOutcome, error)
}

type PhotoAPI interface {
	UploadURL(ctx context.Context, key string) (string, error)
}

type Handler struct {
	sync    SyncAPI
	photos  PhotoAPI
	metrics *Metrics
	log     logging.Logger
	health  func(ctx context.Context) error
}

// NewHandler wires the handlers. health reports whether the database is
// reachable; nil means always healthy.
func NewHandler(s SyncAPI, p PhotoAPI, m *Metrics, log logging.Logger, health func(ctx context.Context) error) *Handler {
	if health == nil {
		health = func(context.Context) error { return nil }
	}
	return &Handler{sync: s, photos: p, metrics: m, log: log.With("component", "http"), health: health}
}

// envelope is every POST body the devices send. A push has rows and no
// action.
type envelope struct {
	Action   string            `json:"action"`
	Rows     []json.RawMessage `json:"rows"`
	Students []models.Student  `json:"siswa"`
	Teachers []models.Teacher  `json:"guru"`
	Subjects []models.Subject  `json:"mapel"`
	Key      string            `json:"key"`
}

func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, common.ErrorValidation) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	h.log.Error(c.Request.Context(), "request failed", "action", c.GetString(actionKey), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": common.ErrorInternal.Error()})
}

func (h *Handler) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": msg})
}

// Get serves GET requests by their action query parameter. No action is a
// reachability check.
func (h *Handler) Get(c *gin.Context) {
	action := c.Query("action")
	ctx := c.Request.Context()

	switch action {
	case "":
		c.Set(actionKey, ActionPing)
		c.JSON(http.StatusOK, gin.H{"ok": true, "service": "absensi"})

	case ActionAttendance:
		c.Set(actionKey, action)
		rows, err := h.sync.Attendance(ctx, c.Query("tanggal"))
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "rows": rows})

	case ActionMasters:
		c.Set(actionKey, action)
		set, err := h.sync.Masters(ctx)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, set)

	default:
		c.Set(actionKey, "unknown")
		h.badRequest(c, "unknown action "+action)
	}
}

// Post serves POST requests by the action field of the body.
func (h *Handler) Post(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	body, err := c.GetRawData()
	if err != nil {
		c.Set(actionKey, "unknown")
		h.badRequest(c, "cannot read body")
		return
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.Set(actionKey, "unknown")
		h.badRequest(c, "body is not JSON")
		return
	}

	switch env.Action {
	case "":
		c.Set(actionKey, ActionPush)
		h.push(c, env)
	case ActionMastersUpsert:
		c.Set(actionKey, env.Action)
		h.mastersUpsert(c, env)
	case ActionReportUpsert:
		c.Set(actionKey, env.Action)
		h.reportUpsert(c, env)
	case ActionPhotoUploadURL:
		c.Set(actionKey, env.Action)
		h.photoUploadURL(c, env)
	default:
		c.Set(actionKey, "unknown")
		h.badRequest(c, "unknown action "+env.Action)
	}
}

func (h *Handler) push(c *gin.Context, env envelope) {
	if env.Rows == nil {
		h.badRequest(c, "rows missing")
		return
	}

	rows := make([]models.Attendance, 0, len(env.Rows))
	malformed := 0
	for _, raw := range env.Rows {
		var a models.Attendance
		if err := json.Unmarshal(raw, &a); err != nil {
			malformed++
			continue
		}
		rows = append(rows, a)
	}

	out, err := h.sync.PushAttendance(c.Request.Context(), c.GetHeader(DeviceIDHeader), rows)
	if err != nil {
		h.fail(c, err)
		return
	}
	rejected := out.Rejected + malformed
	h.metrics.Rows("attendance", "saved", len(out.Saved))
	h.metrics.Rows("attendance", "rejected", rejected)

	c.JSON(http.StatusOK, gin.H{"ok": true, "savedIds": out.Saved, "rejected": rejected})
}

func (h *Handler) mastersUpsert(c *gin.Context, env envelope) {
	out, err := h.sync.UpsertMasters(c.Request.Context(), models.MasterSet{
		Students: env.Students,
		Teachers: env.Teachers,
		Subjects: env.Subjects,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.metrics.Rows("master", "written", out.Written)
	h.metrics.Rows("master", "stale", out.Stale)
	h.metrics.Rows("master", "rejected", out.Rejected)

	c.JSON(http.StatusOK, gin.H{"ok": true, "written": out.Written, "stale": out.Stale, "rejected": out.Rejected})
}

func (h *Handler) reportUpsert(c *gin.Context, env envelope) {
	rows := make([]models.ReportRow, 0, len(env.Rows))
	malformed := 0
	for _, raw := range env.Rows {
		var r models.ReportRow
		if err := json.Unmarshal(raw, &r); err != nil {
			malformed++
			continue
		}
		rows = append(rows, r)
	}

	out, err := h.sync.UpsertReport(c.Request.Context(), rows)
	if err != nil {
		h.fail(c, err)
		return
	}
	rejected := out.Rejected + malformed
	h.metrics.Rows("report", "written", out.Written)
	h.metrics.Rows("report", "rejected", rejected)

	c.JSON(http.StatusOK, gin.H{"ok": true, "written": out.Written, "rejected": rejected})
}

func (h *Handler) photoUploadURL(c *gin.Context, env envelope) {
	u, err := h.photos.UploadURL(c.Request.Context(), env.Key)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "url": u, "key": env.Key})
}

// Healthz reports 503 when the database does not answer.
func (h *Handler) Healthz(c *gin.Context) {
	if err := h.health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "db": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "db": true})
}
