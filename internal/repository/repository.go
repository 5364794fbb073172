// Package repository implements the session and set repositories on top of
// the record store port. This is the core of the system: the single-table
// layout, the atomic sequence-allocation protocol for appends, and the
// cascading-delete protocol for sessions all live here.
package repository

import (
	"fmt"
	"time"

	"github.com/aretw0/setledger/pkg/domain"
	"github.com/aretw0/setledger/pkg/keys"
	"github.com/aretw0/setledger/pkg/ports"
	"github.com/mitchellh/mapstructure"
)

// Clock supplies the current time. Injected so tests control timestamps.
type Clock func() time.Time

// Listing limits. Callers cannot page past the limit; there is no cursor.
const (
	DefaultSessionLimit = 10
	DefaultSetLimit     = 20
	MaxListLimit        = 100
)

// cascadePageSize bounds one enumeration round trip during cascading
// deletes, keeping memory flat for arbitrarily large sessions.
const cascadePageSize = 100

// Stored attribute names, shared by both repositories.
const (
	attrType          = "type"
	attrSessionID     = "sessionId"
	attrCreatedAt     = "createdAt"
	attrLastUpdatedAt = "lastUpdatedAt"
	attrNote          = "note"
	attrSetSeq        = "setSeq"
	attrSetCount      = "setCount"
	attrSeq           = "seq"
	attrWeight        = "weight"
	attrReps          = "reps"
)

func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// decodeRecord maps a raw stored record onto a typed struct. The store
// hands back string encodings, so decoding is weakly typed.
func decodeRecord(rec ports.Record, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to build record decoder: %w", err)
	}
	if err := dec.Decode(map[string]string(rec)); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	return nil
}

// storeErr wraps a transient store failure into the domain error kind the
// caller can retry on.
func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, op, err)
}

func toRecordKeys(ownerID string, items []string) []keys.RecordKey {
	owner := keys.OwnerPartition(ownerID)
	recordKeys := make([]keys.RecordKey, len(items))
	for i, item := range items {
		recordKeys[i] = keys.RecordKey{Owner: owner, Item: item}
	}
	return recordKeys
}
