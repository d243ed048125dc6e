package attendance

import (
	"context"

	"github.com/dmitrijs2005/absensi/internal/server/models"
)

type Repository interface {
	// Upsert stores a by its natural key and returns the endpoint id.
	Upsert(ctx context.Context, a *models.Attendance) (int64, error)
	FindByDate(ctx context.Context, date string) ([]models.Attendance, error)
}
