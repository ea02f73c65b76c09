package store

import (
	"time"

	"github.com/pkg/errors"
)

// Metadata key constants for Record.Metadata.
// The metadata document is schema-free JSON; these are the keys the catalog
// ingestion writes and the recommendation pipeline reads.
const (
	// MetadataKeySerieID stores the catalog series identifier.
	MetadataKeySerieID = "serie_id"

	// MetadataKeySerieTitle stores the series title. It is the grouping key
	// used to deduplicate recommendations across sub-queries.
	MetadataKeySerieTitle = "serie_title"

	// MetadataKeyGenre stores the genre label (e.g. "Manga", "Roman").
	MetadataKeyGenre = "genre"

	// MetadataKeyCategorie stores the category label (e.g. "Shonen", "Seinen").
	MetadataKeyCategorie = "categorie"

	// MetadataKeyVolumeID stores the volume identifier.
	MetadataKeyVolumeID = "volume_id"

	// MetadataKeyVolumeNumber stores the volume number within the series.
	MetadataKeyVolumeNumber = "volume_number"
)

// Record is a catalog entry: one embedded document describing a volume.
type Record struct {
	CreatedAt time.Time
	Metadata  map[string]any
	ID        string
	Contents  string
	Embedding []float32
}

// GetMetadataString retrieves a string value from record metadata,
// returning the empty string when the key is absent or not a string.
func (r *Record) GetMetadataString(key string) string {
	if r.Metadata == nil {
		return ""
	}
	val, ok := r.Metadata[key].(string)
	if !ok {
		return ""
	}
	return val
}

// SerieTitle returns the grouping key for deduplication.
func (r *Record) SerieTitle() string {
	return r.GetMetadataString(MetadataKeySerieTitle)
}

// Genre returns the genre label, or "No Genre" when absent.
func (r *Record) Genre() string {
	if g := r.GetMetadataString(MetadataKeyGenre); g != "" {
		return g
	}
	return "No Genre"
}

// Categorie returns the category label, or "No Categorie" when absent.
func (r *Record) Categorie() string {
	if c := r.GetMetadataString(MetadataKeyCategorie); c != "" {
		return c
	}
	return "No Categorie"
}

// VolumeNumber returns the volume number, handling both int and the
// float64 that JSON decoding produces.
func (r *Record) VolumeNumber() (int, bool) {
	if r.Metadata == nil {
		return 0, false
	}
	switch v := r.Metadata[MetadataKeyVolumeNumber].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// FindRecord describes a filtered candidate scan.
// All filter fields are optional and combine conjunctively.
type FindRecord struct {
	// MetadataFilter is a conjunction of per-key equality constraints
	// over the metadata document.
	MetadataFilter map[string]string

	// Predicate is an optional comparison tree over metadata fields.
	Predicate *Predicate

	// CreatedAfter and CreatedBefore bound created_at inclusively.
	CreatedAfter  *time.Time
	CreatedBefore *time.Time

	// Limit caps the number of rows returned. Drivers order scans by
	// (created_at, id) so repeated scans over identical data return
	// identical rows in identical order.
	Limit int
}

// ErrInvalidDeleteCriteria is returned when a delete request does not carry
// exactly one criterion.
var ErrInvalidDeleteCriteria = errors.New("provide exactly one of: ids, metadata filter, or all")

// DeleteRecord describes a delete request. Exactly one of IDs,
// MetadataFilter, or All must be set.
type DeleteRecord struct {
	MetadataFilter map[string]string
	IDs            []string
	All            bool
}

// Validate checks that exactly one delete criterion is supplied.
func (d *DeleteRecord) Validate() error {
	criteria := 0
	if len(d.IDs) > 0 {
		criteria++
	}
	if len(d.MetadataFilter) > 0 {
		criteria++
	}
	if d.All {
		criteria++
	}
	if criteria != 1 {
		return errors.Wrapf(ErrInvalidDeleteCriteria, "got %d criteria", criteria)
	}
	return nil
}
