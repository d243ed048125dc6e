package models

// Template is a named slot the user can re-apply later. Only the field
// matching Mode is kept.
type Template struct {
	Name        string `json:"name"`
	Mode        Mode   `json:"mode"`
	Subject     string `json:"mapel"`
	Activity    string `json:"kegiatan"`
	HourSlot    int    `json:"jamKe"`
	Responsible string `json:"penanggungJawab"`
	Location    string `json:"lokasi"`
}
