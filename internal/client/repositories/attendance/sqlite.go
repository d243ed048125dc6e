package attendance

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/absensi/internal/client/models"
	"github.com/dmitrijs2005/absensi/internal/common"
	"github.com/dmitrijs2005/absensi/internal/dbx"
)

const (
	minDate = "0000-01-01"
	maxDate = "9999-12-31"

	listColumns = `id, date, mode, hour_slot, subject, activity, student_id, student_name,
		status, time, responsible, reason, location, photo_key, synced, revision`
	fullColumns = listColumns + `, photo`

	orderBy = ` ORDER BY date, hour_slot, id`
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(s scanner, withPhoto bool) (models.Attendance, error) {
	var a models.Attendance
	dest := []any{
		&a.ID, &a.Date, &a.Mode, &a.HourSlot, &a.Subject, &a.Activity, &a.StudentID, &a.StudentName,
		&a.Status, &a.Time, &a.Responsible, &a.Reason, &a.Location, &a.PhotoKey, &a.Synced, &a.Revision,
	}
	if withPhoto {
		dest = append(dest, &a.Photo)
	}
	err := s.Scan(dest...)
	return a, err
}

func (r *SQLiteRepository) query(ctx context.Context, what string, withPhoto bool, query string, args ...any) ([]models.Attendance, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select %s: %w", what, err)
	}
	defer rows.Close()

	result := []models.Attendance{}
	for rows.Next() {
		a, err := scanRow(rows, withPhoto)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", what, err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", what, err)
	}
	return result, nil
}

func (r *SQLiteRepository) Append(ctx context.Context, a models.Attendance) (int64, error) {
	a.Normalize()

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance (date, mode, hour_slot, subject, activity, student_id, student_name,
			status, time, responsible, reason, location, photo, photo_key, synced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Date, a.Mode, a.HourSlot, a.Subject, a.Activity, a.StudentID, a.StudentName,
		a.Status, a.Time, a.Responsible, a.Reason, a.Location, a.Photo, a.PhotoKey, a.Synced,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert attendance: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get attendance id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, id int64, p models.Patch) error {
	var sets []string
	var args []any

	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if p.Status != nil {
		add("status", *p.Status)
	}
	if p.Time != nil {
		add("time", *p.Time)
	}
	if p.Responsible != nil {
		add("responsible", *p.Responsible)
	}
	if p.Reason != nil {
		add("reason", *p.Reason)
	}
	if p.Location != nil {
		add("location", *p.Location)
	}
	if p.StudentName != nil {
		add("student_name", *p.StudentName)
	}
	if p.Photo != nil {
		add("photo", p.Photo)
		add("photo_key", "")
	}
	sets = append(sets, "synced = 0", "revision = revision + 1")
	args = append(args, id)

	res, err := r.db.ExecContext(ctx,
		`UPDATE attendance SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("failed to update attendance %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("attendance %d: %w", id, common.ErrorNotFound)
	}
	return nil
}

func (r *SQLiteRepository) ApplyRemote(ctx context.Context, id int64, remote models.Attendance) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE attendance SET
			student_name = ?,
			status = ?,
			time = CASE WHEN ? = '' THEN time ELSE ? END,
			responsible = CASE WHEN ? = '' THEN responsible ELSE ? END,
			synced = 1
		WHERE id = ? AND synced = 1`,
		remote.StudentName, remote.Status,
		remote.Time, remote.Time,
		remote.Responsible, remote.Responsible,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to apply remote attendance %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) Remove(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM attendance WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete attendance %d: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.Attendance, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+fullColumns+` FROM attendance WHERE id = ?`, id)
	a, err := scanRow(row, true)
	if dbx.IsNoRows(err) {
		return nil, fmt.Errorf("attendance %d: %w", id, common.ErrorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance %d: %w", id, err)
	}
	return &a, nil
}

func (r *SQLiteRepository) FindByNaturalKey(ctx context.Context, key models.NaturalKey) (*models.Attendance, error) {
	if err := key.Complete(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorValidation, err)
	}
	hour := key.HourSlot
	if hour <= 0 {
		hour = 1
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT `+fullColumns+` FROM attendance
		WHERE date = ? AND student_id = ? AND mode = ? AND hour_slot = ?
		  AND (CASE mode WHEN 'mapel' THEN subject ELSE activity END) = ?
		ORDER BY id LIMIT 1`,
		key.Date, key.StudentID, key.Mode, hour, key.Target,
	)
	a, err := scanRow(row, true)
	if dbx.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find attendance %s: %w", key, err)
	}
	return &a, nil
}

func (r *SQLiteRepository) FindByDate(ctx context.Context, date string) ([]models.Attendance, error) {
	return r.query(ctx, "attendance by date", false,
		`SELECT `+listColumns+` FROM attendance WHERE date = ?`+orderBy, date)
}

func (r *SQLiteRepository) FindByDateRange(ctx context.Context, start, end string) ([]models.Attendance, error) {
	if start == "" {
		start = minDate
	}
	if end == "" {
		end = maxDate
	}
	return r.query(ctx, "attendance by range", false,
		`SELECT `+listColumns+` FROM attendance WHERE date BETWEEN ? AND ?`+orderBy, start, end)
}

func (r *SQLiteRepository) FindUnsynced(ctx context.Context) ([]models.Attendance, error) {
	return r.query(ctx, "unsynced attendance", false,
		`SELECT `+listColumns+` FROM attendance WHERE synced = 0 ORDER BY id`)
}

func (r *SQLiteRepository) CountUnsynced(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attendance WHERE synced = 0`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count unsynced attendance: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, acks []Ack) (int64, error) {
	if len(acks) == 0 {
		return 0, nil
	}
	values := make([]string, len(acks))
	args := make([]any, 0, len(acks)*2)
	for i, a := range acks {
		values[i] = "(?, ?)"
		args = append(args, a.ID, a.Revision)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE attendance SET synced = 1
		 WHERE synced = 0 AND (id, revision) IN (VALUES `+strings.Join(values, ", ")+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to mark attendance synced: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) FindPhotosToArchive(ctx context.Context) ([]models.Attendance, error) {
	return r.query(ctx, "photos to archive", true,
		`SELECT `+fullColumns+` FROM attendance
		 WHERE photo IS NOT NULL AND length(photo) > 0 AND photo_key = '' ORDER BY id`)
}

func (r *SQLiteRepository) SetPhotoKey(ctx context.Context, id int64, key string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE attendance SET photo_key = ? WHERE id = ?`, key, id); err != nil {
		return fmt.Errorf("failed to set photo key for attendance %d: %w", id, err)
	}
	return nil
}
