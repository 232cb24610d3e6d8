// Package db opens the *sql.DB the server runs on.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophsignup/internal/filex"
	"github.com/dmitrijs2005/gophsignup/internal/server/config"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const sqliteForeignKeys = "_pragma=foreign_keys(1)"

// Open connects to the database for driver and verifies the connection.
// SQLite connections always have foreign keys enabled, and the directory of
// an SQLite database file is created if missing.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	switch driver {
	case config.DriverPostgres:
	case config.DriverSQLite:
		if path, ok := sqliteFilePath(dsn); ok {
			if _, err := filex.EnsureParentDir(path); err != nil {
				return nil, fmt.Errorf("prepare database directory: %w", err)
			}
		}
		dsn = sqliteDSN(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// each connection to a private in-memory database is a separate database
	if driver == config.DriverSQLite && isPrivateMemory(dsn) {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return conn, nil
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqliteForeignKeys
	}
	return dsn + "?" + sqliteForeignKeys
}

func isPrivateMemory(dsn string) bool {
	return isMemory(dsn) && !strings.Contains(dsn, "cache=shared")
}

// sqliteFilePath returns the on-disk path named by an SQLite DSN, if any.
func sqliteFilePath(dsn string) (string, bool) {
	if isMemory(dsn) {
		return "", false
	}
	path, _, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	return path, path != ""
}

func isMemory(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
