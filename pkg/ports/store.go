package ports

import (
	"context"
	"errors"

	"github.com/aretw0/setledger/pkg/keys"
)

// ErrRecordNotFound is returned by reads when no record exists at the key.
var ErrRecordNotFound = errors.New("record not found")

// ErrConditionFailed is the store's low-level conditional-failure signal:
// an existence-conditioned write or update found no record at the key.
// Repositories translate it into domain NotFound kinds at their boundary.
var ErrConditionFailed = errors.New("store condition failed")

// Record is a raw stored record: flat attribute names to their string
// encodings, exactly as the backend holds them.
type Record map[string]string

// IndexEntry describes the secondary-index placement of a record: the
// partition it is grouped under and the sort score (createdAt epoch
// seconds). The index member is always the record's item key.
type IndexEntry struct {
	Partition string
	Score     int64
}

// Update is an atomic read-modify-write applied to a single record. Add
// deltas and Set assignments are applied together or not at all; the store
// guarantees linearizability per key, which is what serializes concurrent
// sequence allocations.
type Update struct {
	// Add maps attribute names to signed integer deltas.
	Add map[string]int64

	// Set maps attribute names to plain overwrites, applied after Add.
	Set map[string]string

	// MustExist conditions the whole update on the record existing;
	// when it does not, the update is a no-op failing ErrConditionFailed.
	// Without MustExist an update of an absent record is a tolerated no-op
	// (it never creates the record).
	MustExist bool

	// Return names the Add field whose post-increment value is reported
	// back. Empty means the caller does not care.
	Return string
}

// RecordStore abstracts the single-table key-value store: point
// reads/writes, conditional deletes, atomic counters, and index-scoped
// range queries.
type RecordStore interface {
	// Put writes a record unconditionally, replacing any previous
	// attributes, and registers it under index when non-nil. The write and
	// the index registration are applied atomically.
	Put(ctx context.Context, key keys.RecordKey, attrs map[string]any, index *IndexEntry) error

	// Get returns the record at key, or ErrRecordNotFound.
	Get(ctx context.Context, key keys.RecordKey) (Record, error)

	// GetMany fetches the given records in one round trip, preserving
	// input order. Keys with no record are skipped, not errors.
	GetMany(ctx context.Context, recordKeys []keys.RecordKey) ([]Record, error)

	// Update atomically applies upd to the record at key and returns the
	// post-apply value of upd.Return (zero when Return is empty).
	Update(ctx context.Context, key keys.RecordKey, upd Update) (int64, error)

	// DeleteExisting removes the record and its entry in indexPartition,
	// conditioned on the record existing; ErrConditionFailed otherwise.
	DeleteExisting(ctx context.Context, key keys.RecordKey, indexPartition string) error

	// BatchDelete removes the given records, chunking to the store's batch
	// limit and retrying failed chunks (deletes are idempotent). Returns
	// how many records actually existed and were removed.
	BatchDelete(ctx context.Context, recordKeys []keys.RecordKey) (int, error)

	// QueryIndexDesc returns up to limit item keys from the index
	// partition, highest score first. Ties order is unspecified.
	QueryIndexDesc(ctx context.Context, partition string, limit int) ([]string, error)

	// IndexPage returns one ascending page of item keys from the index
	// partition, for bounded enumeration of arbitrarily large partitions.
	IndexPage(ctx context.Context, partition string, offset, count int64) ([]string, error)

	// DropIndex removes an entire index partition.
	DropIndex(ctx context.Context, partition string) error
}
