package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/absensi/internal/client/migrations"
	"github.com/dmitrijs2005/absensi/internal/client/repositories/attendance"
	"github.com/dmitrijs2005/absensi/internal/client/repositories/masters"
	"github.com/dmitrijs2005/absensi/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/absensi/internal/client/repositories/templates"
	"github.com/dmitrijs2005/absensi/internal/filex"
)

type Repositories struct {
	DB         *sql.DB
	Settings   metadata.Repository
	Attendance attendance.Repository
	Masters    masters.Repository
	Templates  templates.Repository
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// OpenDatabase opens the device database at path, creating the file and its
// directory if needed, and applies pending migrations. A single connection
// is used so writes are serialised by the handle itself.
func OpenDatabase(ctx context.Context, path string) (*sql.DB, error) {
	if err := filex.EnsureParentDir(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return db, nil
}

// InitDatabase opens the database and wires the repositories. now stamps
// master rows that arrive without updatedAt.
func InitDatabase(ctx context.Context, path string, now func() string) (*Repositories, error) {
	db, err := OpenDatabase(ctx, path)
	if err != nil {
		return nil, err
	}

	return &Repositories{
		DB:         db,
		Settings:   metadata.NewSQLiteRepository(db),
		Attendance: attendance.NewSQLiteRepository(db),
		Masters:    masters.NewSQLiteRepository(db, now),
		Templates:  templates.NewSQLiteRepository(db),
	}, nil
}

func (r *Repositories) Close() error {
	return r.DB.Close()
}
