// Package templates stores named slot presets on the device.
package templates

import (
	"context"

	"github.com/dmitrijs2005/absensi/internal/client/models"
)

// Repository keys templates by name. Get and Delete fail with
// common.ErrorNotFound for an unknown name.
type Repository interface {
	List(ctx context.Context) ([]models.Template, error)
	Get(ctx context.Context, name string) (*models.Template, error)
	Upsert(ctx context.Context, t models.Template) error
	Delete(ctx context.Context, name string) error
}
