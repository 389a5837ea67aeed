package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	jobsql "github.com/goliatone/go-job/queue/adapters/postgres"
	lazymintmigrations "github.com/goliatone/go-lazymint/migrations"
)

const (
	JobQueueTable      = "lazymint_job_queue"
	JobDeadLetterTable = "lazymint_job_dlq"
	JobDispatchTable   = "lazymint_job_status"
)

// OpenJobQueue builds the go-job SQL queue on db and creates its tables.
// Mint jobs share the database that holds sequence state and receipts.
// opts are applied after the table and dialect defaults.
func OpenJobQueue(ctx context.Context, db *sql.DB, driver string, opts ...jobsql.Option) (*jobsql.Adapter, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: job queue requires a database")
	}
	_, migrationDialect, err := resolveDialect(normalizeDriver(driver))
	if err != nil {
		return nil, err
	}
	dialect := jobsql.DialectPostgres
	if migrationDialect == lazymintmigrations.DialectSQLite {
		dialect = jobsql.DialectSQLite
	}

	storageOpts := []jobsql.Option{
		jobsql.WithDialect(dialect),
		jobsql.WithTableName(JobQueueTable),
		jobsql.WithDLQTableName(JobDeadLetterTable),
		jobsql.WithStatusTableName(JobDispatchTable),
	}
	storage := jobsql.NewStorage(db, append(storageOpts, opts...)...)
	if err := storage.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("sqlstore: migrate job queue: %w", err)
	}
	return jobsql.NewAdapter(storage), nil
}
