package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"

	"github.com/ailurusbio/synvectordb/internal/profile"
	"github.com/ailurusbio/synvectordb/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a PostgreSQL database. Vector search requires the pgvector
// extension; Migrate fails with a setup hint when it is missing.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	pgDB, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	driver := DB{db: pgDB, profile: profile}

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
	err := d.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM information_schema.tables WHERE table_name = 'part')").Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "failed to check if database is initialized")
	}
	return exists, nil
}

func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return errors.Wrap(err, "pgvector extension unavailable; install pgvector before starting the server")
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS part (
			id BIGSERIAL PRIMARY KEY,
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
			created_ts BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW()),
			updated_ts BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS part_embedding (
			id BIGSERIAL PRIMARY KEY,
			part_uid TEXT NOT NULL,
			model TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			created_ts BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW()),
			UNIQUE(part_uid, model)
		)`, d.profile.EmbeddingDimensions),
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

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func placeholders(n int) string {
	list := []string{}
	for i := 1; i <= n; i++ {
		list = append(list, placeholder(i))
	}
	return strings.Join(list, ", ")
}
