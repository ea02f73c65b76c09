package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/booksync/booksync/store"
)

// UpsertRecords inserts or replaces records by id.
func (d *DB) UpsertRecords(ctx context.Context, records []*store.Record) error {
	stmt := `
		INSERT INTO record (id, metadata, contents, embedding)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			metadata = excluded.metadata,
			contents = excluded.contents,
			embedding = excluded.embedding
	`

	for _, record := range records {
		metadataJSON, err := json.Marshal(record.Metadata)
		if err != nil {
			return errors.Wrap(err, "failed to marshal record metadata")
		}

		var embeddingBLOB []byte
		if len(record.Embedding) > 0 {
			embeddingBLOB, err = float32ArrayToBLOB(record.Embedding, d.profile.EmbeddingDimensions)
			if err != nil {
				return errors.Wrapf(err, "failed to encode embedding for record %s", record.ID)
			}
		}

		if _, err := d.db.ExecContext(ctx, stmt, record.ID, metadataJSON, record.Contents, embeddingBLOB); err != nil {
			return errors.Wrapf(err, "failed to upsert record %s", record.ID)
		}
	}
	return nil
}

// ScanRecords returns up to find.Limit rows matching the filter in stable
// (created_ts, id) order.
func (d *DB) ScanRecords(ctx context.Context, find *store.FindRecord) ([]*store.Record, error) {
	where, args, err := buildWhere(find)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, metadata, contents, embedding, created_ts
		FROM record
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts, id
		LIMIT ?`
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
		var embeddingBLOB []byte
		var createdTs int64

		if err := rows.Scan(&record.ID, &metadataJSON, &record.Contents, &embeddingBLOB, &createdTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan record row")
		}
		record.CreatedAt = time.Unix(createdTs, 0)

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &record.Metadata); err != nil {
				return nil, errors.Wrapf(err, "failed to unmarshal metadata for record %s", record.ID)
			}
		}

		// NULL embeddings stay nil; the ranker excludes them.
		if len(embeddingBLOB) > 0 {
			vector, err := blobToFloat32Array(embeddingBLOB, d.profile.EmbeddingDimensions)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to decode embedding for record %s", record.ID)
			}
			record.Embedding = vector
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
		marks := strings.TrimSuffix(strings.Repeat("?,", len(delete.IDs)), ",")
		args := make([]any, len(delete.IDs))
		for i, id := range delete.IDs {
			args[i] = id
		}
		result, err = d.db.ExecContext(ctx, `DELETE FROM record WHERE id IN (`+marks+`)`, args...)
	default:
		where, args := []string{}, []any{}
		for _, key := range sortedKeys(delete.MetadataFilter) {
			where = append(where, "json_extract(metadata, ?) = ?")
			args = append(args, "$."+key, delete.MetadataFilter[key])
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

// buildWhere renders the filter into WHERE clauses and args.
func buildWhere(find *store.FindRecord) ([]string, []any, error) {
	where, args := []string{"1 = 1"}, []any{}

	for _, key := range sortedKeys(find.MetadataFilter) {
		where = append(where, "json_extract(metadata, ?) = ?")
		args = append(args, "$."+key, find.MetadataFilter[key])
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
		where, args = append(where, "created_ts >= ?"), append(args, find.CreatedAfter.Unix())
	}
	if find.CreatedBefore != nil {
		where, args = append(where, "created_ts <= ?"), append(args, find.CreatedBefore.Unix())
	}

	return where, args, nil
}

// renderPredicate translates a predicate tree into SQL. Both compound
// shapes render structurally; unsupported shapes are rejected by
// Predicate.Validate before reaching here.
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

	if store.IsNumericValue(p.Value) {
		clause := fmt.Sprintf("CAST(json_extract(metadata, ?) AS NUMERIC) %s ?", p.Operator)
		*args = append(*args, "$."+p.Field, p.Value)
		return clause, nil
	}

	clause := fmt.Sprintf("json_extract(metadata, ?) %s ?", p.Operator)
	*args = append(*args, "$."+p.Field, fmt.Sprintf("%v", p.Value))
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
