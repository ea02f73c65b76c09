package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"

	"github.com/booksync/booksync/internal/profile"
	"github.com/booksync/booksync/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a PostgreSQL database using the DSN from the profile.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	postgresDB, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	driver := DB{db: postgresDB, profile: profile}

	return &driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Migrate creates the vector extension and the records table.
func (d *DB) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS record (
				id UUID PRIMARY KEY,
				metadata JSONB,
				contents TEXT,
				embedding vector(%d),
				created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
			)`, d.profile.EmbeddingDimensions),
		`CREATE INDEX IF NOT EXISTS idx_record_created_at ON record (created_at, id)`,
	}

	// HNSW indexes are capped at 2000 dimensions; larger embedding models
	// (e.g. text-embedding-3-large at 3072) fall back to sequential scans
	// over the bounded candidate window.
	if d.profile.EmbeddingDimensions <= 2000 {
		stmts = append(stmts,
			`CREATE INDEX IF NOT EXISTS idx_record_embedding ON record USING hnsw (embedding vector_cosine_ops)`)
	}

	for _, stmt := range stmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to execute migration statement: %s", strings.Fields(stmt)[0])
		}
	}
	return nil
}

// placeholder returns a positional parameter marker, e.g. $1.
func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}
