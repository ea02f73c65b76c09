package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for database drivers.
// Implementations live in store/db/postgres and store/db/sqlite.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// Migrate creates the schema objects the store needs
	// (vector extension, records table, indexes).
	Migrate(ctx context.Context) error

	// UpsertRecords inserts or replaces records by id. Idempotent: the
	// last write for a given id wins.
	UpsertRecords(ctx context.Context, records []*Record) error

	// ScanRecords returns up to find.Limit rows matching the filter, in
	// stable (created_at, id) order. Similarity is not computed here; the
	// ranker scores the returned candidate window.
	ScanRecords(ctx context.Context, find *FindRecord) ([]*Record, error)

	// DeleteRecords removes records matching exactly one criterion and
	// returns the number of rows removed.
	DeleteRecords(ctx context.Context, delete *DeleteRecord) (int64, error)
}
