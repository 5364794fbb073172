package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/aretw0/setledger/internal/logging"
	"github.com/aretw0/setledger/pkg/domain"
	"github.com/aretw0/setledger/pkg/keys"
	"github.com/aretw0/setledger/pkg/ports"
)

// SetRepository appends, lists, and deletes sets within a session. It owns
// the sequence-allocation protocol but mutates the session aggregate only
// through SessionRepository.Touch.
type SetRepository struct {
	store    ports.RecordStore
	sessions *SessionRepository
	logger   *slog.Logger
	clock    Clock
}

// NewSetRepository builds a set repository sharing the session repository's
// store. logger and clock may be nil.
func NewSetRepository(store ports.RecordStore, sessions *SessionRepository, logger *slog.Logger, clock Clock) *SetRepository {
	if logger == nil {
		logger = logging.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	return &SetRepository{
		store:    store,
		sessions: sessions,
		logger:   logger,
		clock:    clock,
	}
}

// Append records a new set at the next sequence number of the session.
//
// The sequence number comes from the conditioned atomic increment in Touch:
// concurrent appends to the same session are serialized by the store and
// never share a number. If the set-record write fails after the increment
// succeeded, the allocated number is lost — a permanent gap, which the
// layout tolerates (sequence numbers are unique and monotonic, not
// contiguous).
func (r *SetRepository) Append(ctx context.Context, ownerID, sessionID string, weight float64, reps int64, note string) (domain.AppendReceipt, error) {
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight < 0 {
		return domain.AppendReceipt{}, fmt.Errorf("%w: weight must be a finite non-negative number", domain.ErrInvalidInput)
	}
	if reps < 0 {
		return domain.AppendReceipt{}, fmt.Errorf("%w: reps must be a non-negative integer", domain.ErrInvalidInput)
	}

	now := r.clock().Unix()
	seq, err := r.sessions.Touch(ctx, ownerID, sessionID, 1, true, now)
	if err != nil {
		return domain.AppendReceipt{}, err
	}

	attrs := map[string]any{
		attrType:      string(domain.TypeSet),
		attrSessionID: sessionID,
		attrSeq:       seq,
		attrWeight:    weight,
		attrReps:      reps,
		attrNote:      note,
		attrCreatedAt: now,
	}
	err = r.store.Put(ctx, keys.SetRecord(ownerID, sessionID, seq), attrs, &ports.IndexEntry{
		Partition: keys.SessionPartition(sessionID),
		Score:     now,
	})
	if err != nil {
		return domain.AppendReceipt{}, storeErr("writing set", err)
	}

	r.logger.Debug("set appended", "owner", ownerID, "session", sessionID, "seq", seq)
	return domain.AppendReceipt{
		SessionID: sessionID,
		Seq:       seq,
		CreatedAt: now,
	}, nil
}

// List returns the session's sets, newest first, capped at limit
// (DefaultSetLimit when limit is not positive). It does not verify that the
// session itself still exists; a late read of an orphaned index is empty,
// not an error.
func (r *SetRepository) List(ctx context.Context, ownerID, sessionID string, limit int) ([]domain.Set, error) {
	limit = clampLimit(limit, DefaultSetLimit)

	members, err := r.store.QueryIndexDesc(ctx, keys.SessionPartition(sessionID), limit)
	if err != nil {
		return nil, storeErr("querying set index", err)
	}

	records, err := r.store.GetMany(ctx, toRecordKeys(ownerID, members))
	if err != nil {
		return nil, storeErr("loading sets", err)
	}

	sets := make([]domain.Set, 0, len(records))
	for _, rec := range records {
		if rec[attrType] != string(domain.TypeSet) {
			continue
		}
		var set domain.Set
		if err := decodeRecord(rec, &set); err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	return sets, nil
}

// Delete removes one set, conditioned on it existing, then compensates the
// session aggregate (setCount -1, lastUpdatedAt) best-effort. The
// compensation never fails the call: the set record is already gone and the
// aggregate fields are advisory.
func (r *SetRepository) Delete(ctx context.Context, ownerID, sessionID string, seq int64) error {
	if seq < 1 {
		return fmt.Errorf("%w: sequence number must be a positive integer", domain.ErrInvalidInput)
	}

	err := r.store.DeleteExisting(ctx, keys.SetRecord(ownerID, sessionID, seq), keys.SessionPartition(sessionID))
	if errors.Is(err, ports.ErrConditionFailed) {
		return domain.ErrSetNotFound
	}
	if err != nil {
		return storeErr("deleting set", err)
	}

	if _, err := r.sessions.Touch(ctx, ownerID, sessionID, -1, false, r.clock().Unix()); err != nil {
		r.logger.Warn("failed to compensate session aggregate after set delete",
			"owner", ownerID, "session", sessionID, "seq", seq, "error", err)
	}

	r.logger.Debug("set deleted", "owner", ownerID, "session", sessionID, "seq", seq)
	return nil
}
