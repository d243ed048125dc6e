package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/absensi/internal/client/models"
	"github.com/dmitrijs2005/absensi/internal/client/repositories/attendance"
	"github.com/dmitrijs2005/absensi/internal/client/repositories/masters"
	"github.com/dmitrijs2005/absensi/internal/common"
	"github.com/dmitrijs2005/absensi/internal/logging"
	"github.com/dmitrijs2005/absensi/internal/timex"
)

// Slot is the context a scan is recorded into: everything except the
// student and the status.
type Slot struct {
	Date        string
	Mode        models.Mode
	HourSlot    int
	Subject     string
	Activity    string
	Responsible string
	Location    string
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Status models.Status
	Mode   models.Mode
	Synced *bool
	// Query matches student id, name, subject or activity, case-insensitively.
	Query string
}

func (f Filter) match(a models.Attendance) bool {
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.Mode != "" && a.Mode != f.Mode {
		return false
	}
	if f.Synced != nil && a.Synced != *f.Synced {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		hay := strings.ToLower(strings.Join([]string{a.StudentID, a.StudentName, a.Subject, a.Activity}, " "))
		if !strings.Contains(hay, q) {
			return false
		}
	}
	return true
}

type AttendanceService interface {
	// Record stores a, or updates the row with the same natural key in
	// place. Either way the row ends up unsynced. created reports which
	// happened.
	Record(ctx context.Context, a models.Attendance) (rec models.Attendance, created bool, err error)

	// RecordQR records a "STUDENTID|NAME" scan as present in slot.
	RecordQR(ctx context.Context, payload string, slot Slot) (models.Attendance, bool, error)

	Edit(ctx context.Context, id int64, p models.Patch) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*models.Attendance, error)
	List(ctx context.Context, date string, f Filter) ([]models.Attendance, error)
}

type attendanceService struct {
	repo     attendance.Repository
	masters  masters.Repository
	locks    *KeyLocks
	clock    timex.Clock
	validate *validator.Validate
	log      logging.Logger
}

func NewAttendanceService(repo attendance.Repository, m masters.Repository, locks *KeyLocks, clock timex.Clock, log logging.Logger) AttendanceService {
	return &attendanceService{
		repo:     repo,
		masters:  m,
		locks:    locks,
		clock:    clock,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log.With("component", "attendance"),
	}
}

func (s *attendanceService) prepare(ctx context.Context, a *models.Attendance) error {
	if a.Date == "" {
		a.Date = s.clock.Today()
	}
	if a.Time == "" {
		a.Time = s.clock.TimeOfDay()
	}
	a.StudentID = strings.TrimSpace(a.StudentID)
	a.Responsible = strings.TrimSpace(a.Responsible)
	a.Normalize()

	if err := s.validate.Struct(a); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("%w: %s", common.ErrorValidation, describe(verrs))
		}
		return fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}

	if a.StudentName == "" {
		st, err := s.masters.Students().Get(ctx, a.StudentID)
		if err != nil {
			return fmt.Errorf("look up student: %w", err)
		}
		if st != nil {
			a.StudentName = st.Name
		}
	}
	return nil
}

func describe(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

func (s *attendanceService) Record(ctx context.Context, a models.Attendance) (models.Attendance, bool, error) {
	a.ID = 0
	a.Synced = false
	if err := s.prepare(ctx, &a); err != nil {
		return a, false, err
	}

	key := models.KeyOf(a)
	unlock := s.locks.Lock(key.String())
	defer unlock()

	existing, err := s.repo.FindByNaturalKey(ctx, key)
	if err != nil {
		return a, false, fmt.Errorf("find existing: %w", err)
	}

	if existing == nil {
		id, err := s.repo.Append(ctx, a)
		if err != nil {
			return a, false, err
		}
		a.ID = id
		s.log.Debug(ctx, "attendance recorded", "id", id, "key", key.String())
		return a, true, nil
	}

	p := models.Patch{
		Status:      &a.Status,
		Time:        &a.Time,
		Responsible: &a.Responsible,
		Reason:      &a.Reason,
		Location:    &a.Location,
		StudentName: &a.StudentName,
		Photo:       a.Photo,
	}
	if err := s.repo.Update(ctx, existing.ID, p); err != nil {
		return a, false, err
	}

	rec := *existing
	p.Apply(&rec)
	rec.Synced = false
	rec.Revision++
	s.log.Debug(ctx, "attendance updated in place", "id", rec.ID, "key", key.String())
	return rec, false, nil
}

func (s *attendanceService) RecordQR(ctx context.Context, payload string, slot Slot) (models.Attendance, bool, error) {
	id, name, err := models.ParseQRPayload(payload)
	if err != nil {
		return models.Attendance{}, false, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}

	return s.Record(ctx, models.Attendance{
		Date:        slot.Date,
		Mode:        slot.Mode,
		HourSlot:    slot.HourSlot,
		Subject:     slot.Subject,
		Activity:    slot.Activity,
		Responsible: slot.Responsible,
		Location:    slot.Location,
		StudentID:   id,
		StudentName: name,
		Status:      models.StatusPresent,
	})
}

func (s *attendanceService) Edit(ctx context.Context, id int64, p models.Patch) error {
	if p.Status != nil {
		st, err := models.ParseStatus(string(*p.Status))
		if err != nil {
			return fmt.Errorf("%w: %v", common.ErrorValidation, err)
		}
		p.Status = &st
	}
	return s.repo.Update(ctx, id, p)
}

func (s *attendanceService) Delete(ctx context.Context, id int64) error {
	return s.repo.Remove(ctx, id)
}

func (s *attendanceService) Get(ctx context.Context, id int64) (*models.Attendance, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *attendanceService) List(ctx context.Context, date string, f Filter) ([]models.Attendance, error) {
	if date == "" {
		date = s.clock.Today()
	}
	rows, err := s.repo.FindByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	out := rows[:0]
	for _, r := range rows {
		if f.match(r) {
			out = append(out, r)
		}
	}
	return out, nil
}
