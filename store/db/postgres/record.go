package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/booksync/booksync/store"
)

// UpsertRecords inserts or replaces records by id.
func (d *DB) UpsertRecords(ctx context.Context, records []*store.Record) error {
	stmt := `
		INSERT INTO record (id, metadata, contents, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			metadata = EXCLUDED.metadata,
			contents = EXCLUDED.contents,
			embedding = EXCLUDED.embedding
	`

	for _, record := range records {
		metadataJSON, err := json.Marshal(record.Metadata)
		if err != nil {
			return errors.Wrap(err, "failed to marshal record metadata")
		}

		var embedding any
		if len(record.Embedding) > 0 {
			embedding = pgvector.NewVector(record.Embedding)
		}

		if _, err := d.db.ExecContext(ctx, stmt, record.ID, metadataJSON, record.Contents, embedding); err != nil {
			return errors.Wrapf(err, "failed to upsert record %s", record.ID)
		}
	}
	return nil
}

// ScanRecords returns up to find.Limit rows matching the filter in stable
// (created_at, id) order.
func (d *DB) ScanRecords(ctx context.Context, find *store.FindRecord) ([]*store.Record, error) {
	where, args, err := buildWhere(find)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, metadata, contents, embedding, created_at
		FROM record
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_at, id
		LIMIT ` + placeholder(len(args)+1)
	args = append(args, find.Limit)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan records")
	}
	defer rows.Close()

	list := []*store.Record{}
	for rows.Next() {
		var record store.Record
		var metadataJSON []byte
		var rawVector []byte

		if err := rows.Scan(&record.ID, &metadataJSON, &record.Contents, &rawVector, &record.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan record row")
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &record.Metadata); err != nil {
				return nil, errors.Wrapf(err, "failed to unmarshal metadata for record %s", record.ID)
			}
		}

		// NULL embeddings stay nil; the ranker excludes them.
		if rawVector != nil {
			var vector pgvector.Vector
			if err := vector.Scan(rawVector); err != nil {
				return nil, errors.Wrapf(err, "failed to parse embedding for record %s", record.ID)
			}
			record.Embedding = vector.Slice()
		}

		list = append(list, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

// DeleteRecords removes records matching exactly one criterion.
func (d *DB) DeleteRecords(ctx context.Context, delete *store.DeleteRecord) (int64, error) {
	if err := delete.Validate(); err != nil {
		return 0, err
	}

	var result sql.Result
	var err error

	switch {
	case delete.All:
		result, err = d.db.ExecContext(ctx, `DELETE FROM record`)
	case len(delete.IDs) > 0:
		result, err = d.db.ExecContext(ctx, `DELETE FROM record WHERE id = ANY($1)`, pq.Array(delete.IDs))
	default:
		where, args := []string{}, []any{}
		for _, key := range sortedKeys(delete.MetadataFilter) {
			where = append(where, fmt.Sprintf("metadata ->> %s = %s", placeholder(len(args)+1), placeholder(len(args)+2)))
			args = append(args, key, delete.MetadataFilter[key])
		}
		result, err = d.db.ExecContext(ctx, `DELETE FROM record WHERE `+strings.Join(where, " AND "), args...)
	}
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete records")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed to count deleted records")
	}
	return rows, nil
}

// buildWhere renders the filter into WHERE clauses and positional args.
func buildWhere(find *store.FindRecord) ([]string, []any, error) {
	where, args := []string{"1 = 1"}, []any{}

	for _, key := range sortedKeys(find.MetadataFilter) {
		where = append(where, fmt.Sprintf("metadata ->> %s = %s", placeholder(len(args)+1), placeholder(len(args)+2)))
		args = append(args, key, find.MetadataFilter[key])
	}

	if find.Predicate != nil {
		if err := find.Predicate.Validate(); err != nil {
			return nil, nil, err
		}
		clause, err := renderPredicate(find.Predicate, &args)
		if err != nil {
			return nil, nil, err
		}
		where = append(where, clause)
	}

	if find.CreatedAfter != nil {
		where, args = append(where, "created_at >= "+placeholder(len(args)+1)), append(args, *find.CreatedAfter)
	}
	if find.CreatedBefore != nil {
		where, args = append(where, "created_at <= "+placeholder(len(args)+1)), append(args, *find.CreatedBefore)
	}

	return where, args, nil
}

// renderPredicate translates a predicate tree into a SQL clause. Compound
// nodes render structurally with parentheses; there is no approximation of
// unsupported shapes, they fail in Predicate.Validate before reaching here.
func renderPredicate(p *store.Predicate, args *[]any) (string, error) {
	if p.IsCompound() {
		left, err := renderPredicate(p.Left, args)
		if err != nil {
			return "", err
		}
		right, err := renderPredicate(p.Right, args)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s %s %s)", left, p.Conjunction, right), nil
	}

	// Numeric values compare numerically; JSONB text extraction would
	// otherwise compare "10" < "2".
	if store.IsNumericValue(p.Value) {
		clause := fmt.Sprintf("(metadata ->> %s)::numeric %s %s",
			placeholder(len(*args)+1), p.Operator, placeholder(len(*args)+2))
		*args = append(*args, p.Field, p.Value)
		return clause, nil
	}

	clause := fmt.Sprintf("metadata ->> %s %s %s",
		placeholder(len(*args)+1), p.Operator, placeholder(len(*args)+2))
	*args = append(*args, p.Field, fmt.Sprintf("%v", p.Value))
	return clause, nil
}

// sortedKeys returns map keys in deterministic order so rendered SQL is
// stable across runs.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
