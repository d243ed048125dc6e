package reports

import (
	"context"

	"github.com/dmitrijs2005/absensi/internal/server/models"
)

type Repository interface {
	// Upsert stores a report line, replacing the line of the same record.
	Upsert(ctx context.Context, row models.ReportRow) error
	CountByDate(ctx context.Context, date string) (int, error)
}
