package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/absensi/internal/client/client"
	"github.com/dmitrijs2005/absensi/internal/client/models"
	"github.com/dmitrijs2005/absensi/internal/client/repositories/attendance"
	"github.com/dmitrijs2005/absensi/internal/client/repositories/masters"
	"github.com/dmitrijs2005/absensi/internal/common"
	"github.com/dmitrijs2005/absensi/internal/logging"
	"github.com/dmitrijs2005/absensi/internal/timex"
)

type ExportResult struct {
	Count int
}

// ReportService sends a read-only copy of a date range to the reporting
// sheet. It never changes local state, synced flags included.
type ReportService interface {
	Export(ctx context.Context, start, end string) (ExportResult, error)
	// Rows builds the report rows without sending them.
	Rows(ctx context.Context, start, end string) ([]models.ReportRow, error)
}

type reportService struct {
	attendance attendance.Repository
	masters    masters.Repository
	remote     client.Remote
	gate       *Gate
	clock      timex.Clock
	log        logging.Logger
}

func NewReportService(att attendance.Repository, m masters.Repository, remote client.Remote, gate *Gate, clock timex.Clock, log logging.Logger) ReportService {
	return &reportService{
		attendance: att,
		masters:    m,
		remote:     remote,
		gate:       gate,
		clock:      clock,
		log:        log.With("component", "report"),
	}
}

func (s *reportService) Rows(ctx context.Context, start, end string) ([]models.ReportRow, error) {
	for _, d := range []string{start, end} {
		if d != "" && !timex.ValidDate(d) {
			return nil, fmt.Errorf("%w: date %q", common.ErrorValidation, d)
		}
	}

	rows, err := s.attendance.FindByDateRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load range: %w", err)
	}
	students, err := s.masters.Students().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load students: %w", err)
	}
	class := make(map[string]string, len(students))
	for _, st := range students {
		class[st.ID] = st.Class
	}

	stamp := s.clock.Stamp()
	out := make([]models.ReportRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.ReportRow{
			TimestampLocal: stamp,
			Date:           r.Date,
			StudentID:      r.StudentID,
			StudentName:    r.StudentName,
			Class:          class[r.StudentID],
			Teacher:        r.Responsible,
			Mode:           r.Mode,
			HourSlot:       r.HourSlot,
			Subject:        r.Subject,
			Activity:       r.Activity,
			Status:         r.Status,
		})
	}
	return out, nil
}

func (s *reportService) Export(ctx context.Context, start, end string) (ExportResult, error) {
	u, err := s.gate.Open(ctx)
	if err != nil {
		return ExportResult{}, err
	}

	rows, err := s.Rows(ctx, start, end)
	if err != nil {
		return ExportResult{}, err
	}

	if err := s.remote.PushReport(ctx, u, rows); err != nil {
		s.log.Warn(ctx, "export failed", "rows", len(rows), "error", err)
		return ExportResult{}, fetchFailed("export report", err)
	}

	s.log.Info(ctx, "report exported", "start", start, "end", end, "rows", len(rows))
	return ExportResult{Count: len(rows)}, nil
}
