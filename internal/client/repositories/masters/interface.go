// Package masters persists the student, teacher and subject master tables
// on the device, keyed by their natural ids.
package masters

import (
	"context"

	"github.com/dmitrijs2005/absensi/internal/client/models"
)

// Table is the per-kind store. Get returns nil, nil for an unknown id.
// Upsert stamps UpdatedAt with the current instant when it is empty.
type Table[T models.Master] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (*T, error)
	Upsert(ctx context.Context, v T) error
	Delete(ctx context.Context, id string) error
}

type Repository interface {
	Students() Table[models.Student]
	Teachers() Table[models.Teacher]
	Subjects() Table[models.Subject]

	// BulkUpsert writes a whole master set in one transaction.
	BulkUpsert(ctx context.Context, set models.MasterSet) error
}
