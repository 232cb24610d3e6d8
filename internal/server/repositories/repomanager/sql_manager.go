// Package repomanager provides a RepositoryManager for the supported SQL
// drivers, wiring together repository constructors and database migrations
// (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophsignup/internal/dbx"
	"github.com/dmitrijs2005/gophsignup/internal/logging"
	"github.com/dmitrijs2005/gophsignup/internal/server/config"
	"github.com/dmitrijs2005/gophsignup/internal/server/migrations"
	"github.com/dmitrijs2005/gophsignup/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/gophsignup/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

// SQLRepositoryManager vends SQL-backed repository implementations and
// exposes a schema migration hook for its goose dialect.
type SQLRepositoryManager struct {
	dialect string
	logger  logging.Logger
}

// Option configures a SQLRepositoryManager.
type Option func(*SQLRepositoryManager)

// WithLogger sends goose migration output to l. Without it migrations run
// silently.
func WithLogger(l logging.Logger) Option {
	return func(m *SQLRepositoryManager) { m.logger = l }
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(db)
}

// Sessions returns a sessions.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Sessions(db dbx.DBTX) sessions.Repository {
	return sessions.NewSQLRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if m.logger != nil {
		goose.SetLogger(newGooseLogger(ctx, m.logger))
	} else {
		goose.SetLogger(goose.NopLogger())
	}
	if err := goose.SetDialect(m.dialect); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

// NewSQLRepositoryManager constructs a RepositoryManager for the given
// database driver name ("pgx" or "sqlite").
func NewSQLRepositoryManager(driver string, opts ...Option) (RepositoryManager, error) {
	m := &SQLRepositoryManager{}
	switch driver {
	case config.DriverPostgres:
		m.dialect = "postgres"
	case config.DriverSQLite:
		m.dialect = "sqlite3"
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}
