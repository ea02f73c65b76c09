package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/booksync/booksync/internal/profile"
)

// Store provides database access to catalog records.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// Migrate creates the schema objects the store needs.
func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

// UpsertRecords inserts or replaces records by id. Records without an id
// are assigned a fresh UUID before the write.
func (s *Store) UpsertRecords(ctx context.Context, records []*Record) error {
	for _, record := range records {
		if record.ID == "" {
			record.ID = uuid.New().String()
		}
	}
	return s.driver.UpsertRecords(ctx, records)
}

// ScanRecords returns the bounded candidate window matching the filter.
func (s *Store) ScanRecords(ctx context.Context, find *FindRecord) ([]*Record, error) {
	if find.Limit <= 0 {
		find.Limit = s.profile.CandidateWindow
	}
	return s.driver.ScanRecords(ctx, find)
}

// DeleteRecords validates the criterion and removes matching records.
func (s *Store) DeleteRecords(ctx context.Context, delete *DeleteRecord) (int64, error) {
	if err := delete.Validate(); err != nil {
		return 0, err
	}
	return s.driver.DeleteRecords(ctx, delete)
}
