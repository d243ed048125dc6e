package models

import "encoding/json"

// MasterKind names a master table. The values are the wire collection names.
type MasterKind string

const (
	KindStudent MasterKind = "siswa"
	KindTeacher MasterKind = "guru"
	KindSubject MasterKind = "mapel"
)

var MasterKinds = []MasterKind{KindStudent, KindTeacher, KindSubject}

// Master is implemented by Student, Teacher and Subject.
type Master interface {
	Key() string
	Stamp() string
}

type Student struct {
	ID        string `json:"siswaId" validate:"required"`
	Name      string `json:"nama"`
	Class     string `json:"kelas"`
	UpdatedAt string `json:"updatedAt"`
}

func (s Student) Key() string   { return s.ID }
func (s Student) Stamp() string { return s.UpdatedAt }

func (s Student) WithStamp(ts string) Student {
	s.UpdatedAt = ts
	return s
}

func (s *Student) UnmarshalJSON(b []byte) error {
	type alias Student
	aux := struct {
		*alias
		ID flexString `json:"siswaId"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	s.ID = string(aux.ID)
	return nil
}

type Teacher struct {
	ID        string `json:"guruId" validate:"required"`
	Name      string `json:"nama"`
	UpdatedAt string `json:"updatedAt"`
}

func (t Teacher) Key() string   { return t.ID }
func (t Teacher) Stamp() string { return t.UpdatedAt }

func (t Teacher) WithStamp(ts string) Teacher {
	t.UpdatedAt = ts
	return t
}

func (t *Teacher) UnmarshalJSON(b []byte) error {
	type alias Teacher
	aux := struct {
		*alias
		ID flexString `json:"guruId"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	t.ID = string(aux.ID)
	return nil
}

type Subject struct {
	ID        string `json:"mapelId" validate:"required"`
	Name      string `json:"nama"`
	UpdatedAt string `json:"updatedAt"`
}

func (s Subject) Key() string   { return s.ID }
func (s Subject) Stamp() string { return s.UpdatedAt }

func (s Subject) WithStamp(ts string) Subject {
	s.UpdatedAt = ts
	return s
}

func (s *Subject) UnmarshalJSON(b []byte) error {
	type alias Subject
	aux := struct {
		*alias
		ID flexString `json:"mapelId"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	s.ID = string(aux.ID)
	return nil
}

// MasterSet is the three master tables together, as exchanged with the
// endpoint and as read from an import file.
type MasterSet struct {
	Students []Student `json:"siswa"`
	Teachers []Teacher `json:"guru"`
	Subjects []Subject `json:"mapel"`
}

func (m MasterSet) Len() int {
	return len(m.Students) + len(m.Teachers) + len(m.Subjects)
}
