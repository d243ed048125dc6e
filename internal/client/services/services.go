package services

import (
	"net/http"

	"github.com/dmitrijs2005/absensi/internal/client/client"
	"github.com/dmitrijs2005/absensi/internal/logging"
	"github.com/dmitrijs2005/absensi/internal/timex"
)

type Deps struct {
	Repos  *client.Repositories
	Remote client.Remote
	// HTTP uploads photos to presigned URLs.
	HTTP *http.Client
	// FallbackURL is used while the endpoint URL setting is empty.
	FallbackURL string
	Online      OnlineChecker
	Clock       timex.Clock
	Log         logging.Logger
	Sync        SyncOptions
}

// Services bundles the device services. They share one gate and one set
// of key locks, so recording and pulling never race on the same slot.
type Services struct {
	Attendance AttendanceService
	Sync       SyncService
	Masters    MasterService
	Reports    ReportService
	Photos     PhotoService
	Settings   SettingsService
	Templates  TemplateService

	Gate  *Gate
	Locks *KeyLocks
}

func New(d Deps) *Services {
	log := d.Log
	if log == nil {
		log = logging.Discard()
	}
	gate := NewGate(d.Repos.Settings, d.FallbackURL, d.Online)
	locks := NewKeyLocks()
	settings := NewSettingsService(d.Repos.Settings, log)

	return &Services{
		Attendance: NewAttendanceService(d.Repos.Attendance, d.Repos.Masters, locks, d.Clock, log),
		Sync:       NewSyncService(d.Repos.Attendance, d.Remote, gate, locks, log, d.Sync),
		Masters:    NewMasterService(d.Repos.Masters, d.Remote, gate, locks, d.Clock, log),
		Reports:    NewReportService(d.Repos.Attendance, d.Repos.Masters, d.Remote, gate, d.Clock, log),
		Photos:     NewPhotoService(d.Repos.Attendance, d.Remote, gate, d.HTTP, settings.DeviceID, log),
		Settings:   settings,
		Templates:  NewTemplateService(d.Repos.Templates, log),
		Gate:       gate,
		Locks:      locks,
	}
}
