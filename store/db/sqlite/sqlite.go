package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/ailurusbio/synvectordb/internal/profile"
	"github.com/ailurusbio/synvectordb/store"
)

// SQLite is the development and single-node deployment backend. Vector
// similarity search is computed in the application layer over BLOB-encoded
// embeddings; the postgres driver uses pgvector instead.

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a database specified by its database driver name and a
// driver-specific data source name.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	// WAL journal mode avoids reader/writer lock contention; the busy timeout
	// covers the ingest job running alongside the server.
	//
	// Note: with the `modernc.org/sqlite` driver, each pragma must be
	// prefixed with `_pragma=`.
	sqliteDB, err := sql.Open("sqlite", profile.DSN+"?_pragma=foreign_keys(0)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	// SQLite: a single connection is optimal with WAL.
	sqliteDB.SetMaxOpenConns(1)
	sqliteDB.SetMaxIdleConns(1)
	sqliteDB.SetConnMaxLifetime(0)
	sqliteDB.SetConnMaxIdleTime(0)

	driver := DB{db: sqliteDB, profile: profile}

	return &driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) IsInitialized(ctx context.Context) (bool, error) {
	var exists bool
	err := d.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM sqlite_master WHERE type='table' AND name='part')").Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "failed to check if database is initialized")
	}
	return exists, nil
}

// Migrate creates the schema if it does not exist. The parts catalog itself
// is populated by the external ingestion pipeline; Migrate only guarantees
// the server can start against an empty database with a clear state.
func (d *DB) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS part (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			uid TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL DEFAULT '',
			label TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL DEFAULT '',
			type_level_1 TEXT NOT NULL DEFAULT '',
			type_level_2 TEXT NOT NULL DEFAULT '',
			type_level_3 TEXT NOT NULL DEFAULT '',
			source_collection TEXT NOT NULL DEFAULT '',
			source_name TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			sequence TEXT NOT NULL DEFAULT '',
			organism TEXT NOT NULL DEFAULT '',
			expression_system TEXT NOT NULL DEFAULT '',
			created_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now')),
			updated_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now'))
		)`,
		`CREATE TABLE IF NOT EXISTS part_embedding (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			part_uid TEXT NOT NULL,
			model TEXT NOT NULL,
			embedding BLOB NOT NULL,
			created_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now')),
			UNIQUE(part_uid, model)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_part_type_level_1 ON part (type_level_1)`,
		`CREATE INDEX IF NOT EXISTS idx_part_source_collection ON part (source_collection)`,
	}
	for _, stmt := range stmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to migrate schema")
		}
	}
	return nil
}
