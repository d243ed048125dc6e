package models

// ReportRow is one line of the exported attendance report. Guru carries the
// responsible party of the record, Kelas comes from the student master.
type ReportRow struct {
	TimestampLocal string `json:"timestampLocal"`
	Date           string `json:"tanggal"`
	StudentID      string `json:"siswaId"`
	StudentName    string `json:"nama"`
	Class          string `json:"kelas"`
	Teacher        string `json:"guru"`
	Mode           Mode   `json:"mode"`
	HourSlot       int    `json:"jamKe"`
	Subject        string `json:"mapel"`
	Activity       string `json:"kegiatan"`
	Status         Status `json:"status"`
}
