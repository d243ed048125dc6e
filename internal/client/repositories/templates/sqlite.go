package templates

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/absensi/internal/client/models"
	"github.com/dmitrijs2005/absensi/internal/common"
	"github.com/dmitrijs2005/absensi/internal/dbx"
)

const columns = `name, mode, subject, activity, hour_slot, responsible, location`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (models.Template, error) {
	var t models.Template
	var mode string
	err := s.Scan(&t.Name, &mode, &t.Subject, &t.Activity, &t.HourSlot, &t.Responsible, &t.Location)
	t.Mode = models.Mode(mode)
	return t, err
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.Template, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+columns+` FROM templates ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var result []models.Template
	for rows.Next() {
		t, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template row: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate template rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, name string) (*models.Template, error) {
	t, err := scan(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM templates WHERE name = ?`, name))
	if dbx.IsNoRows(err) {
		return nil, fmt.Errorf("template %q: %w", name, common.ErrorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template[%s]: %w", name, err)
	}
	return &t, nil
}

func (r *SQLiteRepository) Upsert(ctx context.Context, t models.Template) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO templates (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			mode = excluded.mode,
			subject = excluded.subject,
			activity = excluded.activity,
			hour_slot = excluded.hour_slot,
			responsible = excluded.responsible,
			location = excluded.location
	`, t.Name, string(t.Mode), t.Subject, t.Activity, t.HourSlot, t.Responsible, t.Location)
	if err != nil {
		return fmt.Errorf("failed to save template[%s]: %w", t.Name, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM templates WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete template[%s]: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete template[%s]: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("template %q: %w", name, common.ErrorNotFound)
	}
	return nil
}
