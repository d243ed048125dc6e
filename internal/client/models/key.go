package models

import (
	"errors"
	"strconv"
	"strings"
)

// NaturalKey identifies an attendance slot independently of local ids, so
// the same slot recorded twice, or pulled from the endpoint, maps to one row.
type NaturalKey struct {
	Date      string
	Mode      Mode
	HourSlot  int
	Target    string
	StudentID string
}

// KeyOf derives the natural key of a. A missing hour slot counts as 1.
func KeyOf(a Attendance) NaturalKey {
	hour := a.HourSlot
	if hour <= 0 {
		hour = 1
	}
	return NaturalKey{
		Date:      a.Date,
		Mode:      a.Mode,
		HourSlot:  hour,
		Target:    a.Target(),
		StudentID: a.StudentID,
	}
}

// String renders the key as date|mode|hour|target|student.
func (k NaturalKey) String() string {
	return strings.Join([]string{
		k.Date,
		string(k.Mode),
		strconv.Itoa(k.HourSlot),
		k.Target,
		k.StudentID,
	}, "|")
}

var ErrIncompleteKey = errors.New("date, student id and mode are required")

// Complete reports whether the key carries enough to look a record up.
func (k NaturalKey) Complete() error {
	if k.Date == "" || k.StudentID == "" || !k.Mode.Valid() {
		return ErrIncompleteKey
	}
	return nil
}
