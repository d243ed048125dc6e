package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/absensi/internal/client/client"
	"github.com/dmitrijs2005/absensi/internal/client/models"
	"github.com/dmitrijs2005/absensi/internal/client/repositories/masters"
	"github.com/dmitrijs2005/absensi/internal/common"
	"github.com/dmitrijs2005/absensi/internal/logging"
	"github.com/dmitrijs2005/absensi/internal/timex"
)

type MergeCounts struct {
	Pulled int
	Pushed int
}

type MergeResult struct {
	Students MergeCounts
	Teachers MergeCounts
	Subjects MergeCounts
	Skipped  int
}

type PullMastersResult struct {
	Students int
	Teachers int
	Subjects int
	Skipped  int
}

type MasterService interface {
	// MergeMasters reconciles the three master tables with the endpoint,
	// last writer wins on updatedAt. Locally newer and local-only rows are
	// pushed back in one request.
	MergeMasters(ctx context.Context) (MergeResult, error)

	// PullMasters upserts the endpoint's full snapshot without comparing
	// timestamps and without deleting anything.
	PullMasters(ctx context.Context) (PullMastersResult, error)

	// Import reads a {siswa, guru, mapel} JSON document into the store.
	Import(ctx context.Context, r io.Reader) (PullMastersResult, error)

	List(ctx context.Context) (models.MasterSet, error)

	// Save upserts local edits, stamping each row with the current instant.
	Save(ctx context.Context, set models.MasterSet) error

	Delete(ctx context.Context, kind models.MasterKind, id string) error
}

type masterService struct {
	repo     masters.Repository
	remote   client.Remote
	gate     *Gate
	locks    *KeyLocks
	clock    timex.Clock
	validate *validator.Validate
	log      logging.Logger
}

func NewMasterService(repo masters.Repository, remote client.Remote, gate *Gate, locks *KeyLocks, clock timex.Clock, log logging.Logger) MasterService {
	return &masterService{
		repo:     repo,
		remote:   remote,
		gate:     gate,
		locks:    locks,
		clock:    clock,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log.With("component", "masters"),
	}
}

type master[T any] interface {
	models.Master
	WithStamp(ts string) T
}

type kindMerge[T any] struct {
	push   []T
	pulled int
}

// mergeKind compares one master table against the remote rows. Remote-only
// and remote-newer rows are written locally right away; local-only and
// local-newer rows are returned for pushing. Equal timestamps, including
// two missing ones, leave both sides alone.
func mergeKind[T master[T]](ctx context.Context, s *masterService, kind models.MasterKind, table masters.Table[T], remote []T, skipped *int) (kindMerge[T], error) {
	var out kindMerge[T]
	now := s.clock.Stamp()

	local, err := table.List(ctx)
	if err != nil {
		return out, fmt.Errorf("load local %s: %w", kind, err)
	}

	remoteIDs := make(map[string]struct{}, len(remote))
	for _, r := range remote {
		if r.Key() == "" {
			*skipped++
			continue
		}
		remoteIDs[r.Key()] = struct{}{}
	}

	for _, l := range local {
		if _, ok := remoteIDs[l.Key()]; ok {
			continue
		}
		if l.Stamp() == "" {
			l = l.WithStamp(now)
		}
		out.push = append(out.push, l)
	}

	seen := make(map[string]struct{}, len(remote))
	for _, r := range remote {
		id := r.Key()
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if err := mergeOne(ctx, s.locks, kind, table, r, now, &out); err != nil {
			return out, err
		}
	}
	return out, nil
}

func mergeOne[T master[T]](ctx context.Context, locks *KeyLocks, kind models.MasterKind, table masters.Table[T], remote T, now string, out *kindMerge[T]) error {
	unlock := locks.Lock(string(kind) + ":" + remote.Key())
	defer unlock()

	local, err := table.Get(ctx, remote.Key())
	if err != nil {
		return fmt.Errorf("load local %s[%s]: %w", kind, remote.Key(), err)
	}

	if local == nil {
		if err := table.Upsert(ctx, remote); err != nil {
			return err
		}
		out.pulled++
		return nil
	}

	lt := timex.InstantMillis((*local).Stamp())
	rt := timex.InstantMillis(remote.Stamp())
	switch {
	case lt > rt:
		l := *local
		if l.Stamp() == "" {
			l = l.WithStamp(now)
		}
		out.push = append(out.push, l)
	case rt > lt:
		if err := table.Upsert(ctx, remote); err != nil {
			return err
		}
		out.pulled++
	}
	return nil
}

func (s *masterService) MergeMasters(ctx context.Context) (MergeResult, error) {
	var res MergeResult

	u, err := s.gate.Open(ctx)
	if err != nil {
		return res, err
	}

	snap, err := s.remote.FetchMasters(ctx, u)
	if err != nil {
		s.log.Warn(ctx, "fetch masters failed", "error", err)
		return res, fetchFailed("fetch masters", err)
	}
	res.Skipped = snap.Malformed

	students, err := mergeKind(ctx, s, models.KindStudent, s.repo.Students(), snap.Set.Students, &res.Skipped)
	if err != nil {
		return res, err
	}
	res.Students.Pulled = students.pulled

	teachers, err := mergeKind(ctx, s, models.KindTeacher, s.repo.Teachers(), snap.Set.Teachers, &res.Skipped)
	if err != nil {
		return res, err
	}
	res.Teachers.Pulled = teachers.pulled

	subjects, err := mergeKind(ctx, s, models.KindSubject, s.repo.Subjects(), snap.Set.Subjects, &res.Skipped)
	if err != nil {
		return res, err
	}
	res.Subjects.Pulled = subjects.pulled

	outgoing := models.MasterSet{Students: students.push, Teachers: teachers.push, Subjects: subjects.push}
	if outgoing.Len() > 0 {
		if err := s.remote.PushMasters(ctx, u, outgoing); err != nil {
			s.log.Warn(ctx, "push masters failed", "rows", outgoing.Len(), "error", err)
			return res, fetchFailed("push masters", err)
		}
		res.Students.Pushed = len(students.push)
		res.Teachers.Pushed = len(teachers.push)
		res.Subjects.Pushed = len(subjects.push)
	}

	s.log.Info(ctx, "masters merged",
		"students_pulled", res.Students.Pulled, "students_pushed", res.Students.Pushed,
		"teachers_pulled", res.Teachers.Pulled, "teachers_pushed", res.Teachers.Pushed,
		"subjects_pulled", res.Subjects.Pulled, "subjects_pushed", res.Subjects.Pushed,
		"skipped", res.Skipped)
	return res, nil
}

// withIDs drops rows without a natural id and counts them.
func withIDs[T models.Master](rows []T, skipped *int) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if r.Key() == "" {
			*skipped++
			continue
		}
		out = append(out, r)
	}
	return out
}

func (s *masterService) store(ctx context.Context, set models.MasterSet, skipped int) (PullMastersResult, error) {
	res := PullMastersResult{Skipped: skipped}
	clean := models.MasterSet{
		Students: withIDs(set.Students, &res.Skipped),
		Teachers: withIDs(set.Teachers, &res.Skipped),
		Subjects: withIDs(set.Subjects, &res.Skipped),
	}
	if err := s.repo.BulkUpsert(ctx, clean); err != nil {
		return res, fmt.Errorf("store masters: %w", err)
	}
	res.Students = len(clean.Students)
	res.Teachers = len(clean.Teachers)
	res.Subjects = len(clean.Subjects)
	return res, nil
}

func (s *masterService) PullMasters(ctx context.Context) (PullMastersResult, error) {
	u, err := s.gate.Open(ctx)
	if err != nil {
		return PullMastersResult{}, err
	}

	snap, err := s.remote.FetchMasters(ctx, u)
	if err != nil {
		return PullMastersResult{}, fetchFailed("fetch masters", err)
	}
	return s.store(ctx, snap.Set, snap.Malformed)
}

func (s *masterService) Import(ctx context.Context, r io.Reader) (PullMastersResult, error) {
	var set models.MasterSet
	if err := json.NewDecoder(r).Decode(&set); err != nil {
		return PullMastersResult{}, fmt.Errorf("%w: masters file: %v", common.ErrorValidation, err)
	}
	return s.store(ctx, set, 0)
}

func (s *masterService) List(ctx context.Context) (models.MasterSet, error) {
	var set models.MasterSet
	var err error
	if set.Students, err = s.repo.Students().List(ctx); err != nil {
		return set, err
	}
	if set.Teachers, err = s.repo.Teachers().List(ctx); err != nil {
		return set, err
	}
	set.Subjects, err = s.repo.Subjects().List(ctx)
	return set, err
}

func saveAll[T master[T]](ctx context.Context, table masters.Table[T], rows []T, now string) error {
	for _, r := range rows {
		if err := table.Upsert(ctx, r.WithStamp(now)); err != nil {
			return err
		}
	}
	return nil
}

func (s *masterService) Save(ctx context.Context, set models.MasterSet) error {
	for _, st := range set.Students {
		if err := s.validate.Struct(st); err != nil {
			return fmt.Errorf("%w: %v", common.ErrorValidation, err)
		}
	}
	for _, t := range set.Teachers {
		if err := s.validate.Struct(t); err != nil {
			return fmt.Errorf("%w: %v", common.ErrorValidation, err)
		}
	}
	for _, sb := range set.Subjects {
		if err := s.validate.Struct(sb); err != nil {
			return fmt.Errorf("%w: %v", common.ErrorValidation, err)
		}
	}

	now := s.clock.Stamp()
	if err := saveAll(ctx, s.repo.Students(), set.Students, now); err != nil {
		return err
	}
	if err := saveAll(ctx, s.repo.Teachers(), set.Teachers, now); err != nil {
		return err
	}
	return saveAll(ctx, s.repo.Subjects(), set.Subjects, now)
}

func (s *masterService) Delete(ctx context.Context, kind models.MasterKind, id string) error {
	switch kind {
	case models.KindStudent:
		return s.repo.Students().Delete(ctx, id)
	case models.KindTeacher:
		return s.repo.Teachers().Delete(ctx, id)
	case models.KindSubject:
		return s.repo.Subjects().Delete(ctx, id)
	}
	return fmt.Errorf("%w: unknown master kind %q", common.ErrorValidation, kind)
}
