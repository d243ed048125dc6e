package models

type ReportRow struct {
	TimestampLocal string `json:"timestampLocal"`
	Date           string `json:"tanggal" validate:"required,datetime=2006-01-02"`
	StudentID      string `json:"siswaId" validate:"required"`
	StudentName    string `json:"nama"`
	Class          string `json:"kelas"`
	Teacher        string `json:"guru"`
	Mode           string `json:"mode" validate:"required,oneof=mapel kegiatan"`
	HourSlot       int    `json:"jamKe"`
	Subject        string `json:"mapel"`
	Activity       string `json:"kegiatan"`
	Status         string `json:"status" validate:"required"`
}
