// Package attendance persists attendance records on the device and owns the
// lifecycle of their synced flag.
//
// Uniqueness per natural key is not a table constraint: callers look a key
// up with FindByNaturalKey before appending, under their own per-key lock.
package attendance

import (
	"context"

	"github.com/dmitrijs2005/absensi/internal/client/models"
)

// Ack identifies the version of a row the endpoint accepted.
type Ack struct {
	ID       int64
	Revision int64
}

// AckOf returns the ack for a row as it was read.
func AckOf(a models.Attendance) Ack {
	return Ack{ID: a.ID, Revision: a.Revision}
}

type Repository interface {
	// Append inserts a and returns the new local id. The id field of a is
	// ignored.
	Append(ctx context.Context, a models.Attendance) (int64, error)

	// Update applies a local edit and marks the row unsynced.
	// It returns common.ErrorNotFound for an unknown id.
	Update(ctx context.Context, id int64, p models.Patch) error

	// ApplyRemote overwrites the remote-owned fields of a row that has no
	// pending local edit and marks it synced. Empty remote time or
	// responsible keep the local value. It reports whether the row was
	// changed; a pending row is left alone.
	ApplyRemote(ctx context.Context, id int64, remote models.Attendance) (bool, error)

	// Remove deletes a row. Unknown ids are not an error.
	Remove(ctx context.Context, id int64) error

	GetByID(ctx context.Context, id int64) (*models.Attendance, error)

	// FindByNaturalKey returns nil, nil when no row matches.
	FindByNaturalKey(ctx context.Context, key models.NaturalKey) (*models.Attendance, error)

	FindByDate(ctx context.Context, date string) ([]models.Attendance, error)

	// FindByDateRange is inclusive; empty bounds are open.
	FindByDateRange(ctx context.Context, start, end string) ([]models.Attendance, error)

	FindUnsynced(ctx context.Context) ([]models.Attendance, error)
	CountUnsynced(ctx context.Context) (int, error)

	// MarkSynced flags rows as synced and returns how many changed. A row is
	// only flagged while its revision still matches the acknowledged one, so
	// an edit made during a push stays pending. Unknown ids are ignored and
	// repeating a call changes nothing.
	MarkSynced(ctx context.Context, acks []Ack) (int64, error)

	// FindPhotosToArchive lists rows with a photo and no object key yet.
	FindPhotosToArchive(ctx context.Context) ([]models.Attendance, error)
	SetPhotoKey(ctx context.Context, id int64, key string) error
}
