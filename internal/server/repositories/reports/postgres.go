package reports

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/absensi/internal/dbx"
	"github.com/dmitrijs2005/absensi/internal/server/models"
)

// PostgresRepository stores exported report lines over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, row models.ReportRow) error {
	query := `
		INSERT INTO report_rows (timestamp_local, tanggal, siswa_id, nama, kelas, guru, mode, jam_ke, mapel, kegiatan, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT ON CONSTRAINT report_rows_natural_key
		DO UPDATE SET
			timestamp_local = EXCLUDED.timestamp_local,
			nama = EXCLUDED.nama,
			kelas = EXCLUDED.kelas,
			guru = EXCLUDED.guru,
			status = EXCLUDED.status,
			received_at = now()
	`
	_, err := r.db.ExecContext(ctx, query,
		row.TimestampLocal, row.Date, row.StudentID, row.StudentName, row.Class, row.Teacher,
		row.Mode, row.HourSlot, row.Subject, row.Activity, row.Status)
	if err != nil {
		return fmt.Errorf("upsert report row: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CountByDate(ctx context.Context, date string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM report_rows WHERE tanggal = $1`, date).Scan(&n); err != nil {
		return 0, fmt.Errorf("count report rows: %w", err)
	}
	return n, nil
}
