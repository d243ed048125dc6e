package client

import (
	"context"

	"github.com/dmitrijs2005/absensi/internal/client/models"
)

// Remote is the spreadsheet-style endpoint the device syncs with. The
// endpoint URL is passed on every call because it is a user setting that
// may change between calls.
type Remote interface {
	Ping(ctx context.Context, url string) error

	// PushAttendance posts {rows} and reports which ids were acknowledged.
	PushAttendance(ctx context.Context, url string, rows []models.Attendance) (*PushResponse, error)

	// FetchAttendance gets the authoritative rows for one date.
	FetchAttendance(ctx context.Context, url, date string) (*AttendanceSnapshot, error)

	FetchMasters(ctx context.Context, url string) (*MasterSnapshot, error)
	PushMasters(ctx context.Context, url string, set models.MasterSet) error
	PushReport(ctx context.Context, url string, rows []models.ReportRow) error

	// PhotoUploadURL asks for a presigned PUT URL for an object key.
	PhotoUploadURL(ctx context.Context, url, key string) (string, error)
}

// PushResponse is the decoded acknowledgement of a push.
//
// Acknowledged is true only for {ok:true, savedIds:[...]}; otherwise the
// caller decides what an ambiguous answer means.
type PushResponse struct {
	Acknowledged bool
	SavedIDs     []int64
}

// AttendanceSnapshot holds the rows that decoded cleanly and the number of
// rows that did not.
type AttendanceSnapshot struct {
	Rows      []models.Attendance
	Malformed int
}

type MasterSnapshot struct {
	Set       models.MasterSet
	Malformed int
}
