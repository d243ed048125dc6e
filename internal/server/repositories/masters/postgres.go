package masters

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/absensi/internal/dbx"
	"github.com/dmitrijs2005/absensi/internal/server/models"
	"github.com/dmitrijs2005/absensi/internal/timex"
)

// PostgresRepository implements master storage over a dbx.DBTX.
//
// updated_at keeps the instant string as sent; updated_ms is its parsed
// value and is what the last-writer-wins guard compares.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) exec(ctx context.Context, what, query string, args ...any) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("upsert %s: %w", what, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) UpsertStudent(ctx context.Context, s models.Student) (bool, error) {
	query := `
		INSERT INTO students (siswa_id, nama, kelas, updated_at, updated_ms)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (siswa_id)
		DO UPDATE SET
			nama = EXCLUDED.nama,
			kelas = EXCLUDED.kelas,
			updated_at = EXCLUDED.updated_at,
			updated_ms = EXCLUDED.updated_ms
			WHERE students.updated_ms <= EXCLUDED.updated_ms
	`
	return r.exec(ctx, "student", query, s.ID, s.Name, s.Class, s.UpdatedAt, timex.InstantMillis(s.UpdatedAt))
}

func (r *PostgresRepository) UpsertTeacher(ctx context.Context, t models.Teacher) (bool, error) {
	query := `
		INSERT INTO teachers (guru_id, nama, updated_at, updated_ms)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (guru_id)
		DO UPDATE SET
			nama = EXCLUDED.nama,
			updated_at = EXCLUDED.updated_at,
			updated_ms = EXCLUDED.updated_ms
			WHERE teachers.updated_ms <= EXCLUDED.updated_ms
	`
	return r.exec(ctx, "teacher", query, t.ID, t.Name, t.UpdatedAt, timex.InstantMillis(t.UpdatedAt))
}

func (r *PostgresRepository) UpsertSubject(ctx context.Context, s models.Subject) (bool, error) {
	query := `
		INSERT INTO subjects (mapel_id, nama, updated_at, updated_ms)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (mapel_id)
		DO UPDATE SET
			nama = EXCLUDED.nama,
			updated_at = EXCLUDED.updated_at,
			updated_ms = EXCLUDED.updated_ms
			WHERE subjects.updated_ms <= EXCLUDED.updated_ms
	`
	return r.exec(ctx, "subject", query, s.ID, s.Name, s.UpdatedAt, timex.InstantMillis(s.UpdatedAt))
}

// list runs query and scans every row with scan.
func list[T any](ctx context.Context, db dbx.DBTX, what, query string, scan func(*sql.Rows, *T) error) ([]T, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select %s: %w", what, err)
	}
	defer rows.Close()

	result := []T{}
	for rows.Next() {
		var item T
		if err := scan(rows, &item); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) ListStudents(ctx context.Context) ([]models.Student, error) {
	return list(ctx, r.db, "students", `SELECT siswa_id, nama, kelas, updated_at FROM students ORDER BY siswa_id`,
		func(rows *sql.Rows, s *models.Student) error {
			return rows.Scan(&s.ID, &s.Name, &s.Class, &s.UpdatedAt)
		})
}

func (r *PostgresRepository) ListTeachers(ctx context.Context) ([]models.Teacher, error) {
	return list(ctx, r.db, "teachers", `SELECT guru_id, nama, updated_at FROM teachers ORDER BY guru_id`,
		func(rows *sql.Rows, t *models.Teacher) error {
			return rows.Scan(&t.ID, &t.Name, &t.UpdatedAt)
		})
}

func (r *PostgresRepository) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	return list(ctx, r.db, "subjects", `SELECT mapel_id, nama, updated_at FROM subjects ORDER BY mapel_id`,
		func(rows *sql.Rows, s *models.Subject) error {
			return rows.Scan(&s.ID, &s.Name, &s.UpdatedAt)
		})
}
