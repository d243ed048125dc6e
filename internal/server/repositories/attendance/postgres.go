package attendance

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/absensi/internal/dbx"
	"github.com/dmitrijs2005/absensi/internal/server/models"
)

// PostgresRepository implements attendance storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert inserts a or, when a row with the same natural key exists,
// overwrites its outcome fields. The caller normalizes a first.
func (r *PostgresRepository) Upsert(ctx context.Context, a *models.Attendance) (int64, error) {
	query := `
		INSERT INTO attendance (tanggal, mode, jam_ke, mapel, kegiatan, siswa_id, nama, status, waktu,
			penanggung_jawab, alasan, lokasi, device_id, local_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT ON CONSTRAINT attendance_natural_key
		DO UPDATE SET
			nama = EXCLUDED.nama,
			status = EXCLUDED.status,
			waktu = EXCLUDED.waktu,
			penanggung_jawab = EXCLUDED.penanggung_jawab,
			alasan = EXCLUDED.alasan,
			lokasi = EXCLUDED.lokasi,
			device_id = EXCLUDED.device_id,
			local_id = EXCLUDED.local_id,
			updated_at = now()
		RETURNING id
	`
	var id int64
	err := r.db.QueryRowContext(ctx, query,
		a.Date, a.Mode, a.HourSlot, a.Subject, a.Activity, a.StudentID, a.StudentName, a.Status, a.Time,
		a.Responsible, a.Reason, a.Location, a.DeviceID, a.ID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert attendance: %w", err)
	}
	return id, nil
}

// FindByDate returns the rows of one date ordered by id. Every returned
// row is marked synced, since the endpoint is the authority.
func (r *PostgresRepository) FindByDate(ctx context.Context, date string) ([]models.Attendance, error) {
	query := `SELECT id, tanggal, mode, jam_ke, mapel, kegiatan, siswa_id, nama, status, waktu,
			penanggung_jawab, alasan, lokasi, device_id
		FROM attendance WHERE tanggal = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to select attendance: %w", err)
	}
	defer rows.Close()

	result := []models.Attendance{}
	for rows.Next() {
		var a models.Attendance
		if err := rows.Scan(&a.ID, &a.Date, &a.Mode, &a.HourSlot, &a.Subject, &a.Activity, &a.StudentID,
			&a.StudentName, &a.Status, &a.Time, &a.Responsible, &a.Reason, &a.Location, &a.DeviceID); err != nil {
			return nil, err
		}
		a.Synced = true
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
