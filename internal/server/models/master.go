package models

type Student struct {
	ID        string `json:"siswaId" validate:"required"`
	Name      string `json:"nama"`
	Class     string `json:"kelas"`
	UpdatedAt string `json:"updatedAt"`
}

type Teacher struct {
	ID        string `json:"guruId" validate:"required"`
	Name      string `json:"nama"`
	UpdatedAt string `json:"updatedAt"`
}

type Subject struct {
	ID        string `json:"mapelId" validate:"required"`
	Name      string `json:"nama"`
	UpdatedAt string `json:"updatedAt"`
}

// MasterSet is the body of a mastersUpsert and the masters snapshot.
type MasterSet struct {
	Students []Student `json:"siswa"`
	Teachers []Teacher `json:"guru"`
	Subjects []Subject `json:"mapel"`
}
