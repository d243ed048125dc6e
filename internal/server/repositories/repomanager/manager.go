package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/absensi/internal/dbx"
	"github.com/dmitrijs2005/absensi/internal/server/repositories/attendance"
	"github.com/dmitrijs2005/absensi/internal/server/repositories/masters"
	"github.com/dmitrijs2005/absensi/internal/server/repositories/reports"
)

// RepositoryManager vends repositories bound to a DBTX, so the same
// service code runs on the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Attendance(db dbx.DBTX) attendance.Repository
	Masters(db dbx.DBTX) masters.Repository
	Reports(db dbx.DBTX) reports.Repository
}
