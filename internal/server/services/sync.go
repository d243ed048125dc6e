// Package services holds the endpoint's use cases: storing pushed
// attendance, serving snapshots, merging masters, collecting report lines
// and signing photo uploads.
package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/absensi/internal/common"
	"github.com/dmitrijs2005/absensi/internal/dbx"
	"github.com/dmitrijs2005/absensi/internal/logging"
	"github.com/dmitrijs2005/absensi/internal/server/models"
	"github.com/dmitrijs2005/absensi/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/absensi/internal/timex"
)

// PushOutcome lists the device ids that were stored. Rejected rows failed
// validation and are left out of Saved, so the device keeps them pending.
type PushOutcome struct {
	Saved    []int64
	Rejected int
}

type MastersOutcome struct {
	Written  int
	Stale    int
	Rejected int
}

type ReportOutcome struct {
	Written  int
	Rejected int
}

type SyncService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	validate    *validator.Validate
	log         logging.Logger
}

func NewSyncService(db *sql.DB, rm repomanager.RepositoryManager, log logging.Logger) *SyncService {
	return &SyncService{
		db:          db,
		repomanager: rm,
		validate:    validator.New(),
		log:         log.With("component", "sync"),
	}
}

// PushAttendance upserts rows by natural key in one transaction.
func (s *SyncService) PushAttendance(ctx context.Context, deviceID string, rows []models.Attendance) (PushOutcome, error) {
	out := PushOutcome{Saved: []int64{}}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Attendance(tx)
		for i := range rows {
			a := rows[i]
			a.Normalize()
			a.DeviceID = deviceID
			if err := s.validate.Struct(a); err != nil {
				s.log.Warn(ctx, "rejected attendance row", "device", deviceID, "id", a.ID, "error", err)
				out.Rejected++
				continue
			}
			if _, err := repo.Upsert(ctx, &a); err != nil {
				return err
			}
			out.Saved = append(out.Saved, a.ID)
		}
		return nil
	})
	if err != nil {
		return PushOutcome{}, err
	}
	return out, nil
}

func (s *SyncService) Attendance(ctx context.Context, date string) ([]models.Attendance, error) {
	if !timex.ValidDate(date) {
		return nil, fmt.Errorf("%w: tanggal must be YYYY-MM-DD, got %q", common.ErrorValidation, date)
	}
	return s.repomanager.Attendance(s.db).FindByDate(ctx, date)
}

func (s *SyncService) Masters(ctx context.Context) (models.MasterSet, error) {
	repo := s.repomanager.Masters(s.db)

	var set models.MasterSet
	var err error
	if set.Students, err = repo.ListStudents(ctx); err != nil {
		return models.MasterSet{}, err
	}
	if set.Teachers, err = repo.ListTeachers(ctx); err != nil {
		return models.MasterSet{}, err
	}
	if set.Subjects, err = repo.ListSubjects(ctx); err != nil {
		return models.MasterSet{}, err
	}
	return set, nil
}

// UpsertMasters stores every valid master row whose updatedAt is not older
// than the stored one. Rows that lose are counted as stale.
func (s *SyncService) UpsertMasters(ctx context.Context, set models.MasterSet) (MastersOutcome, error) {
	var out MastersOutcome

	count := func(written bool) {
		if written {
			out.Written++
		} else {
			out.Stale++
		}
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Masters(tx)
		for _, st := range set.Students {
			if s.validate.Struct(st) != nil {
				out.Rejected++
				continue
			}
			ok, err := repo.UpsertStudent(ctx, st)
			if err != nil {
				return err
			}
			count(ok)
		}
		for _, t := range set.Teachers {
			if s.validate.Struct(t) != nil {
				out.Rejected++
				continue
			}
			ok, err := repo.UpsertTeacher(ctx, t)
			if err != nil {
				return err
			}
			count(ok)
		}
		for _, sub := range set.Subjects {
			if s.validate.Struct(sub) != nil {
				out.Rejected++
				continue
			}
			ok, err := repo.UpsertSubject(ctx, sub)
			if err != nil {
				return err
			}
			count(ok)
		}
		return nil
	})
	if err != nil {
		return MastersOutcome{}, err
	}
	return out, nil
}

func (s *SyncService) UpsertReport(ctx context.Context, rows []models.ReportRow) (ReportOutcome, error) {
	var out ReportOutcome

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Reports(tx)
		for _, r := range rows {
			if r.HourSlot <= 0 {
				r.HourSlot = 1
			}
			if s.validate.Struct(r) != nil {
				out.Rejected++
				continue
			}
			if err := repo.Upsert(ctx, r); err != nil {
				return err
			}
			out.Written++
		}
		return nil
	})
	if err != nil {
		return ReportOutcome{}, err
	}
	return out, nil
}
