// Package models defines the attendance and master data types stored on the
// device and exchanged with the remote endpoint.
package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Mode says whether a record belongs to a lesson or to an activity.
type Mode string

const (
	ModeSubject  Mode = "mapel"
	ModeActivity Mode = "kegiatan"
)

func (m Mode) Valid() bool {
	return m == ModeSubject || m == ModeActivity
}

// ParseMode accepts the wire values and their English names.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mapel", "subject", "lesson":
		return ModeSubject, nil
	case "kegiatan", "activity":
		return ModeActivity, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// Status is the attendance outcome. Values are the wire strings.
type Status string

const (
	StatusPresent      Status = "Hadir"
	StatusLate         Status = "Terlambat"
	StatusExcusedLeave Status = "Izin"
	StatusSick         Status = "Sakit"
	StatusAbsent       Status = "Alpa"
)

var Statuses = []Status{StatusPresent, StatusLate, StatusExcusedLeave, StatusSick, StatusAbsent}

var statusAliases = map[string]Status{
	"hadir": StatusPresent, "present": StatusPresent,
	"terlambat": StatusLate, "late": StatusLate,
	"izin": StatusExcusedLeave, "excused": StatusExcusedLeave, "leave": StatusExcusedLeave,
	"sakit": StatusSick, "sick": StatusSick,
	"alpa": StatusAbsent, "absent": StatusAbsent,
}

func ParseStatus(s string) (Status, error) {
	if st, ok := statusAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return st, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Attendance is one student's attendance for one slot.
//
// Exactly one of Subject and Activity is set, depending on Mode. Synced is
// false after every local change and becomes true only once the endpoint has
// accepted the row or the row came from a pull. Revision counts local edits
// and is never sent.
type Attendance struct {
	ID          int64  `json:"id"`
	Date        string `json:"tanggal" validate:"required,datetime=2006-01-02"`
	Mode        Mode   `json:"mode" validate:"required,oneof=mapel kegiatan"`
	HourSlot    int    `json:"jamKe" validate:"min=1"`
	Subject     string `json:"mapel" validate:"required_if=Mode mapel"`
	Activity    string `json:"kegiatan" validate:"required_if=Mode kegiatan"`
	StudentID   string `json:"siswaId" validate:"required"`
	StudentName string `json:"nama"`
	Status      Status `json:"status" validate:"required,oneof=Hadir Terlambat Izin Sakit Alpa"`
	Time        string `json:"waktu"`
	Responsible string `json:"penanggungJawab" validate:"required"`
	Reason      string `json:"alasan,omitempty"`
	Location    string `json:"lokasi,omitempty"`
	Synced      bool   `json:"synced"`

	Photo    []byte `json:"-"`
	PhotoKey string `json:"-"`
	Revision int64  `json:"-"`
}

// Normalize clears the field that does not belong to the mode and defaults
// the hour slot.
func (a *Attendance) Normalize() {
	if a.HourSlot <= 0 {
		a.HourSlot = 1
	}
	switch a.Mode {
	case ModeSubject:
		a.Activity = ""
	case ModeActivity:
		a.Subject = ""
	}
}

// Target is the subject or the activity, whichever the mode selects.
func (a Attendance) Target() string {
	if a.Mode == ModeSubject {
		return a.Subject
	}
	return a.Activity
}

// UnmarshalJSON tolerates the loose typing of spreadsheet rows: jamKe and
// siswaId may arrive as numbers or strings, and a non-numeric id is dropped.
func (a *Attendance) UnmarshalJSON(b []byte) error {
	type alias Attendance
	aux := struct {
		*alias
		ID        flexString `json:"id"`
		HourSlot  flexInt    `json:"jamKe"`
		StudentID flexString `json:"siswaId"`
		Synced    *bool      `json:"synced"`
	}{alias: (*alias)(a)}

	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	a.ID, _ = strconv.ParseInt(string(aux.ID), 10, 64)
	a.HourSlot = int(aux.HourSlot)
	a.StudentID = string(aux.StudentID)
	a.Synced = aux.Synced != nil && *aux.Synced
	return nil
}

// Patch carries the editable fields of an attendance record. Nil fields are
// left unchanged.
type Patch struct {
	Status      *Status
	Time        *string
	Responsible *string
	Reason      *string
	Location    *string
	StudentName *string
	Photo       []byte
}

// Apply writes the non-nil fields of p into a.
func (p Patch) Apply(a *Attendance) {
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.Time != nil {
		a.Time = *p.Time
	}
	if p.Responsible != nil {
		a.Responsible = *p.Responsible
	}
	if p.Reason != nil {
		a.Reason = *p.Reason
	}
	if p.Location != nil {
		a.Location = *p.Location
	}
	if p.StudentName != nil {
		a.StudentName = *p.StudentName
	}
	if p.Photo != nil {
		a.Photo = p.Photo
		a.PhotoKey = ""
	}
}
