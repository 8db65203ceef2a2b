package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"
)

const sqliteMemory = ":memory:"

// Per-connection settings, applied by the driver to every new connection.
var sqliteConnPragmas = []string{
	"busy_timeout(5000)",
	"foreign_keys(1)",
	"synchronous(NORMAL)",
}

// OpenSQLite opens (or creates) the SQLite database at path, runs the
// migrations and returns a repository. ":memory:" opens a private in-memory
// database, which lives as long as the repository.
func OpenSQLite(ctx context.Context, path string) (*SQLRepo, error) {
	memory := path == sqliteMemory
	if !memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, err
	}

	// One connection: SQLite has a single writer, and an in-memory database
	// exists only inside its connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if !memory {
		// WAL is a property of the database file, not the connection.
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable wal: %w", err)
		}
	}
	if err := RunMigrations(ctx, db, DialectSQLite); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLRepo{db: db, dialect: DialectSQLite}, nil
}

// sqliteDSN appends modernc's _pragma parameters to path.
func sqliteDSN(path string) string {
	params := make([]string, 0, len(sqliteConnPragmas))
	for _, p := range sqliteConnPragmas {
		params = append(params, "_pragma="+p)
	}
	return path + "?" + strings.Join(params, "&")
}
