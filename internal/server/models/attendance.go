// Package models holds the rows stored by the endpoint. JSON tags follow
// the wire names the devices use.
package models

const (
	ModeSubject  = "mapel"
	ModeActivity = "kegiatan"
)

// Attendance is one stored attendance row.
//
// On push, ID carries the device's local id and is echoed back in savedIds.
// On fetch it is the endpoint's own id.
type Attendance struct {
	ID          int64  `json:"id"`
	Date        string `json:"tanggal" validate:"required,datetime=2006-01-02"`
	Mode        string `json:"mode" validate:"required,oneof=mapel kegiatan"`
	HourSlot    int    `json:"jamKe"`
	Subject     string `json:"mapel" validate:"required_if=Mode mapel"`
	Activity    string `json:"kegiatan" validate:"required_if=Mode kegiatan"`
	StudentID   string `json:"siswaId" validate:"required"`
	StudentName string `json:"nama"`
	Status      string `json:"status" validate:"required,oneof=Hadir Terlambat Izin Sakit Alpa"`
	Time        string `json:"waktu"`
	Responsible string `json:"penanggungJawab"`
	Reason      string `json:"alasan,omitempty"`
	Location    string `json:"lokasi,omitempty"`
	Synced      bool   `json:"synced"`

	DeviceID string `json:"-"`
}

// Normalize defaults the hour slot and clears the field the mode does not
// use, so the natural key is stable.
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
