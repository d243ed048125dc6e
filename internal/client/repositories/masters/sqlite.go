package masters

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/absensi/internal/client/models"
	"github.com/dmitrijs2005/absensi/internal/dbx"
)

type stampable[T any] interface {
	models.Master
	WithStamp(ts string) T
}

// columns describes how one master kind maps onto its table. The first
// column is always the natural id and the last one updated_at.
type columns[T any] struct {
	table string
	names []string
	args  func(T) []any
	scan  func(s interface{ Scan(...any) error }) (T, error)
}

var studentColumns = columns[models.Student]{
	table: "students",
	names: []string{"id", "name", "class", "updated_at"},
	args:  func(s models.Student) []any { return []any{s.ID, s.Name, s.Class, s.UpdatedAt} },
	scan: func(sc interface{ Scan(...any) error }) (models.Student, error) {
		var s models.Student
		err := sc.Scan(&s.ID, &s.Name, &s.Class, &s.UpdatedAt)
		return s, err
	},
}

var teacherColumns = columns[models.Teacher]{
	table: "teachers",
	names: []string{"id", "name", "updated_at"},
	args:  func(t models.Teacher) []any { return []any{t.ID, t.Name, t.UpdatedAt} },
	scan: func(sc interface{ Scan(...any) error }) (models.Teacher, error) {
		var t models.Teacher
		err := sc.Scan(&t.ID, &t.Name, &t.UpdatedAt)
		return t, err
	},
}

var subjectColumns = columns[models.Subject]{
	table: "subjects",
	names: []string{"id", "name", "updated_at"},
	args:  func(s models.Subject) []any { return []any{s.ID, s.Name, s.UpdatedAt} },
	scan: func(sc interface{ Scan(...any) error }) (models.Subject, error) {
		var s models.Subject
		err := sc.Scan(&s.ID, &s.Name, &s.UpdatedAt)
		return s, err
	},
}

type sqliteTable[T stampable[T]] struct {
	db   dbx.DBTX
	cols columns[T]
	now  func() string
}

func (t *sqliteTable[T]) selectSQL() string {
	return `SELECT ` + strings.Join(t.cols.names, ", ") + ` FROM ` + t.cols.table
}

func (t *sqliteTable[T]) List(ctx context.Context) ([]T, error) {
	rows, err := t.db.QueryContext(ctx, t.selectSQL()+` ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", t.cols.table, err)
	}
	defer rows.Close()

	result := []T{}
	for rows.Next() {
		v, err := t.cols.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", t.cols.table, err)
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", t.cols.table, err)
	}
	return result, nil
}

func (t *sqliteTable[T]) Get(ctx context.Context, id string) (*T, error) {
	v, err := t.cols.scan(t.db.QueryRowContext(ctx, t.selectSQL()+` WHERE id = ?`, id))
	if dbx.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s[%s]: %w", t.cols.table, id, err)
	}
	return &v, nil
}

func (t *sqliteTable[T]) Upsert(ctx context.Context, v T) error {
	if v.Key() == "" {
		return fmt.Errorf("%s: empty id", t.cols.table)
	}
	if v.Stamp() == "" {
		v = v.WithStamp(t.now())
	}

	updates := make([]string, 0, len(t.cols.names)-1)
	for _, c := range t.cols.names[1:] {
		updates = append(updates, c+" = excluded."+c)
	}
	query := `INSERT INTO ` + t.cols.table + ` (` + strings.Join(t.cols.names, ", ") + `)
		VALUES (` + dbx.Placeholders(len(t.cols.names)) + `)
		ON CONFLICT(id) DO UPDATE SET ` + strings.Join(updates, ", ")

	if _, err := t.db.ExecContext(ctx, query, t.cols.args(v)...); err != nil {
		return fmt.Errorf("failed to upsert %s[%s]: %w", t.cols.table, v.Key(), err)
	}
	return nil
}

func (t *sqliteTable[T]) Delete(ctx context.Context, id string) error {
	if _, err := t.db.ExecContext(ctx, `DELETE FROM `+t.cols.table+` WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete %s[%s]: %w", t.cols.table, id, err)
	}
	return nil
}

type SQLiteRepository struct {
	db  *sql.DB
	now func() string
}

// NewSQLiteRepository builds the master store. now supplies the updatedAt
// stamp for rows that arrive without one.
func NewSQLiteRepository(db *sql.DB, now func() string) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: now}
}

func (r *SQLiteRepository) students(db dbx.DBTX) *sqliteTable[models.Student] {
	return &sqliteTable[models.Student]{db: db, cols: studentColumns, now: r.now}
}

func (r *SQLiteRepository) teachers(db dbx.DBTX) *sqliteTable[models.Teacher] {
	return &sqliteTable[models.Teacher]{db: db, cols: teacherColumns, now: r.now}
}

func (r *SQLiteRepository) subjects(db dbx.DBTX) *sqliteTable[models.Subject] {
	return &sqliteTable[models.Subject]{db: db, cols: subjectColumns, now: r.now}
}

func (r *SQLiteRepository) Students() Table[models.Student] { return r.students(r.db) }
func (r *SQLiteRepository) Teachers() Table[models.Teacher] { return r.teachers(r.db) }
func (r *SQLiteRepository) Subjects() Table[models.Subject] { return r.subjects(r.db) }

func (r *SQLiteRepository) BulkUpsert(ctx context.Context, set models.MasterSet) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := upsertAll(ctx, r.students(tx), set.Students); err != nil {
			return err
		}
		if err := upsertAll(ctx, r.teachers(tx), set.Teachers); err != nil {
			return err
		}
		return upsertAll(ctx, r.subjects(tx), set.Subjects)
	})
}

func upsertAll[T stampable[T]](ctx context.Context, t *sqliteTable[T], items []T) error {
	for _, v := range items {
		if err := t.Upsert(ctx, v); err != nil {
			return err
		}
	}
	return nil
}
