package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/absensi/internal/client/client"
	"github.com/dmitrijs2005/absensi/internal/client/models"
	"github.com/dmitrijs2005/absensi/internal/client/repositories/attendance"
	"github.com/dmitrijs2005/absensi/internal/common"
	"github.com/dmitrijs2005/absensi/internal/logging"
	"github.com/dmitrijs2005/absensi/internal/timex"
)

// maxRangeDays bounds PullRange so a typo in a year does not fire thousands
// of requests.
const maxRangeDays = 366

type PushResult struct {
	Sent int
	// Acknowledged is the number of rows flagged synced.
	Acknowledged int64
	// Optimistic is set when the endpoint did not list saved ids and the
	// whole batch was assumed accepted.
	Optimistic bool
}

type PullResult struct {
	Date    string
	Added   int
	Updated int
	// Kept counts remote rows ignored because the local row has a pending
	// edit.
	Kept int
	// Skipped counts remote rows that could not be used.
	Skipped int
}

// RangeResult reports a sync-all. A failed push does not stop the pulls;
// PushErr and Failed say what went wrong.
type RangeResult struct {
	Push    PushResult
	PushErr error
	Days    []PullResult
	Failed  []string
}

func (r RangeResult) Totals() (added, updated int) {
	for _, d := range r.Days {
		added += d.Added
		updated += d.Updated
	}
	return added, updated
}

// UnsyncedNotifier receives the number of pending rows after every push.
type UnsyncedNotifier func(ctx context.Context, count int)

type SyncService interface {
	// Push sends every unsynced row to the endpoint and flags the accepted
	// ones. It does not touch the network when nothing is pending.
	Push(ctx context.Context) (PushResult, error)

	// PullAttendance merges the endpoint's rows for date into the store.
	// Rows with a pending local edit are never overwritten.
	PullAttendance(ctx context.Context, date string) (PullResult, error)

	// PullRange pushes once and then pulls every date from start to end,
	// carrying on past failures.
	PullRange(ctx context.Context, start, end string) (RangeResult, error)

	// Ping checks that the configured endpoint answers.
	Ping(ctx context.Context) error

	UnsyncedCount(ctx context.Context) (int, error)
}

type SyncOptions struct {
	// StrictAck makes a push fail when the endpoint does not list saved ids
	// instead of assuming the whole batch was stored.
	StrictAck bool
	Notify    UnsyncedNotifier
}

type syncService struct {
	attendance attendance.Repository
	remote     client.Remote
	gate       *Gate
	locks      *KeyLocks
	log        logging.Logger
	opts       SyncOptions

	pushMu sync.Mutex
}

func NewSyncService(repo attendance.Repository, remote client.Remote, gate *Gate, locks *KeyLocks, log logging.Logger, opts SyncOptions) SyncService {
	return &syncService{
		attendance: repo,
		remote:     remote,
		gate:       gate,
		locks:      locks,
		log:        log.With("component", "sync"),
		opts:       opts,
	}
}

func (s *syncService) UnsyncedCount(ctx context.Context) (int, error) {
	return s.attendance.CountUnsynced(ctx)
}

func (s *syncService) notifyUnsynced(ctx context.Context) {
	if s.opts.Notify == nil {
		return
	}
	n, err := s.attendance.CountUnsynced(ctx)
	if err != nil {
		s.log.Warn(ctx, "count unsynced failed", "error", err)
		return
	}
	s.opts.Notify(ctx, n)
}

func (s *syncService) Push(ctx context.Context) (PushResult, error) {
	s.pushMu.Lock()
	defer s.pushMu.Unlock()
	defer s.notifyUnsynced(ctx)

	rows, err := s.attendance.FindUnsynced(ctx)
	if err != nil {
		return PushResult{}, fmt.Errorf("load unsynced: %w", err)
	}
	if len(rows) == 0 {
		return PushResult{}, nil
	}

	u, err := s.gate.Open(ctx)
	if err != nil {
		return PushResult{}, err
	}

	res := PushResult{Sent: len(rows)}

	reply, err := s.remote.PushAttendance(ctx, u, rows)
	if err != nil {
		s.log.Warn(ctx, "push failed", "rows", len(rows), "error", err)
		return res, fetchFailed("push attendance", err)
	}

	acks := make([]attendance.Ack, 0, len(rows))
	switch {
	case reply.Acknowledged:
		sent := make(map[int64]attendance.Ack, len(rows))
		for _, r := range rows {
			sent[r.ID] = attendance.AckOf(r)
		}
		for _, id := range reply.SavedIDs {
			if a, ok := sent[id]; ok {
				acks = append(acks, a)
			}
		}
	case s.opts.StrictAck:
		return res, fmt.Errorf("%w: push attendance: endpoint did not list saved ids", ErrFailedFetch)
	default:
		res.Optimistic = true
		for _, r := range rows {
			acks = append(acks, attendance.AckOf(r))
		}
	}

	n, err := s.attendance.MarkSynced(ctx, acks)
	if err != nil {
		return res, fmt.Errorf("mark synced: %w", err)
	}
	res.Acknowledged = n

	s.log.Info(ctx, "push finished", "sent", res.Sent, "acknowledged", n, "optimistic", res.Optimistic)
	return res, nil
}

func (s *syncService) PullAttendance(ctx context.Context, date string) (PullResult, error) {
	res := PullResult{Date: date}
	if !timex.ValidDate(date) {
		return res, fmt.Errorf("%w: date %q", common.ErrorValidation, date)
	}

	u, err := s.gate.Open(ctx)
	if err != nil {
		return res, err
	}

	snap, err := s.remote.FetchAttendance(ctx, u, date)
	if err != nil {
		s.log.Warn(ctx, "pull failed", "date", date, "error", err)
		return res, fetchFailed("pull attendance", err)
	}
	res.Skipped = snap.Malformed

	for _, remote := range snap.Rows {
		row, ok := cleanRemoteRow(remote, date)
		if !ok {
			res.Skipped++
			continue
		}
		if err := s.mergeRow(ctx, row, &res); err != nil {
			return res, err
		}
	}

	s.log.Info(ctx, "pull finished", "date", date, "added", res.Added, "updated", res.Updated,
		"kept", res.Kept, "skipped", res.Skipped)
	return res, nil
}

// cleanRemoteRow normalises a pulled row and rejects rows that cannot be
// keyed or stored.
func cleanRemoteRow(r models.Attendance, date string) (models.Attendance, bool) {
	if r.Date == "" {
		r.Date = date
	}
	if r.Date != date || models.KeyOf(r).Complete() != nil {
		return r, false
	}
	st, err := models.ParseStatus(string(r.Status))
	if err != nil {
		return r, false
	}
	r.Status = st
	r.Normalize()

	r.ID = 0
	r.Synced = true
	r.Photo = nil
	r.PhotoKey = ""
	r.Revision = 0
	return r, true
}

func (s *syncService) mergeRow(ctx context.Context, remote models.Attendance, res *PullResult) error {
	key := models.KeyOf(remote)
	unlock := s.locks.Lock(key.String())
	defer unlock()

	local, err := s.attendance.FindByNaturalKey(ctx, key)
	if err != nil {
		return fmt.Errorf("load local row: %w", err)
	}

	if local == nil {
		if _, err := s.attendance.Append(ctx, remote); err != nil {
			return fmt.Errorf("insert pulled row: %w", err)
		}
		res.Added++
		return nil
	}

	if !local.Synced {
		res.Kept++
		return nil
	}

	changed, err := s.attendance.ApplyRemote(ctx, local.ID, remote)
	if err != nil {
		return fmt.Errorf("update pulled row: %w", err)
	}
	if changed {
		res.Updated++
	} else {
		res.Kept++
	}
	return nil
}

func (s *syncService) PullRange(ctx context.Context, start, end string) (RangeResult, error) {
	var res RangeResult

	days, err := timex.DateRange(start, end, maxRangeDays)
	if err != nil {
		return res, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	if len(days) == 0 {
		return res, fmt.Errorf("%w: start %s is after end %s", common.ErrorValidation, start, end)
	}

	res.Push, res.PushErr = s.Push(ctx)
	if gated(res.PushErr) {
		return res, res.PushErr
	}

	errs := []error{res.PushErr}
	for _, d := range days {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		day, err := s.PullAttendance(ctx, d)
		res.Days = append(res.Days, day)
		if err != nil {
			res.Failed = append(res.Failed, d)
			errs = append(errs, fmt.Errorf("%s: %w", d, err))
			if gated(err) {
				break
			}
		}
	}
	return res, errors.Join(errs...)
}

// gated reports a failure every later request would repeat.
func gated(err error) bool {
	r := ReasonOf(err)
	return r == ReasonMissingOrInvalidURL || r == ReasonOffline
}

func (s *syncService) Ping(ctx context.Context) error {
	u, err := s.gate.URL(ctx)
	if err != nil {
		return err
	}
	if err := s.remote.Ping(ctx, u); err != nil {
		return fetchFailed("ping", err)
	}
	return nil
}
