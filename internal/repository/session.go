package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aretw0/setledger/internal/logging"
	"github.com/aretw0/setledger/pkg/domain"
	"github.com/aretw0/setledger/pkg/keys"
	"github.com/aretw0/setledger/pkg/ports"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Session IDs are short opaque tokens. 12 characters over a 36-symbol
// alphabet is ~62 bits of randomness; creation does not check for an
// existing session under the same ID, so uniqueness is probabilistic, not
// guaranteed.
const (
	sessionIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	sessionIDLength   = 12
)

// SessionRepository owns the session aggregate: creation, listing, the
// cascading delete, and the aggregate counters (setSeq, setCount,
// lastUpdatedAt). The SetRepository mutates those counters only through
// Touch, never by direct overwrite.
type SessionRepository struct {
	store  ports.RecordStore
	logger *slog.Logger
	clock  Clock
}

// NewSessionRepository builds a session repository. logger and clock may be
// nil; they default to a no-op logger and wall-clock time.
func NewSessionRepository(store ports.RecordStore, logger *slog.Logger, clock Clock) *SessionRepository {
	if logger == nil {
		logger = logging.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	return &SessionRepository{
		store:  store,
		logger: logger,
		clock:  clock,
	}
}

// Create writes a fresh session with zeroed counters and registers it in
// the owner's session index. It always succeeds against a healthy store:
// there is no uniqueness check on the generated ID.
func (r *SessionRepository) Create(ctx context.Context, ownerID, note string) (domain.Session, error) {
	sessionID, err := gonanoid.Generate(sessionIDAlphabet, sessionIDLength)
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to generate session id: %w", err)
	}

	now := r.clock().Unix()
	sess := domain.Session{
		SessionID:     sessionID,
		CreatedAt:     now,
		LastUpdatedAt: now,
		Note:          note,
	}

	attrs := map[string]any{
		attrType:          string(domain.TypeSession),
		attrSessionID:     sessionID,
		attrCreatedAt:     now,
		attrLastUpdatedAt: now,
		attrNote:          note,
		attrSetSeq:        int64(0),
		attrSetCount:      int64(0),
	}
	err = r.store.Put(ctx, keys.SessionRecord(ownerID, sessionID), attrs, &ports.IndexEntry{
		Partition: keys.OwnerPartition(ownerID),
		Score:     now,
	})
	if err != nil {
		return domain.Session{}, storeErr("creating session", err)
	}

	r.logger.Debug("session created", "owner", ownerID, "session", sessionID)
	return sess, nil
}

// List returns the owner's sessions, newest first, capped at limit
// (DefaultSessionLimit when limit is not positive).
func (r *SessionRepository) List(ctx context.Context, ownerID string, limit int) ([]domain.Session, error) {
	limit = clampLimit(limit, DefaultSessionLimit)

	members, err := r.store.QueryIndexDesc(ctx, keys.OwnerPartition(ownerID), limit)
	if err != nil {
		return nil, storeErr("querying session index", err)
	}

	records, err := r.store.GetMany(ctx, toRecordKeys(ownerID, members))
	if err != nil {
		return nil, storeErr("loading sessions", err)
	}

	sessions := make([]domain.Session, 0, len(records))
	for _, rec := range records {
		if rec[attrType] != string(domain.TypeSession) {
			continue
		}
		var sess domain.Session
		if err := decodeRecord(rec, &sess); err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

// Delete removes a session and all of its sets.
//
// The cascade runs as a paginated enumerate-then-chunk-delete loop: child
// set records go first (in bounded batches, failed chunks retried by the
// store), then the set index, then the session record itself conditioned on
// existence. A session that is already gone at the final step is treated as
// success, which makes the whole operation idempotent.
func (r *SessionRepository) Delete(ctx context.Context, ownerID, sessionID string) (domain.DeleteSessionResult, error) {
	var res domain.DeleteSessionResult
	part := keys.SessionPartition(sessionID)

	var offset int64
	for {
		page, err := r.store.IndexPage(ctx, part, offset, cascadePageSize)
		if err != nil {
			return res, storeErr("enumerating sets", err)
		}
		if len(page) == 0 {
			break
		}

		deleted, err := r.store.BatchDelete(ctx, toRecordKeys(ownerID, page))
		if err != nil {
			return res, storeErr("deleting sets", err)
		}
		res.SetsDeleted += deleted
		offset += int64(len(page))
	}

	if err := r.store.DropIndex(ctx, part); err != nil {
		return res, storeErr("dropping set index", err)
	}

	err := r.store.DeleteExisting(ctx, keys.SessionRecord(ownerID, sessionID), keys.OwnerPartition(ownerID))
	switch {
	case err == nil:
		res.SessionDeleted = true
	case errors.Is(err, ports.ErrConditionFailed):
		// Already deleted, possibly by a concurrent call.
	default:
		return res, storeErr("deleting session", err)
	}

	r.logger.Debug("session deleted", "owner", ownerID, "session", sessionID,
		"sets_deleted", res.SetsDeleted, "session_deleted", res.SessionDeleted)
	return res, nil
}

// Touch applies set-aggregate bookkeeping to the session record: countDelta
// on setCount, lastUpdatedAt = now, and — when allocate is set — a +1 on
// the sequence counter whose post-increment value is returned. Internal to
// the repositories; the SetRepository calls it on append and delete.
//
// With allocate the update is conditioned on the session existing and a
// miss is ErrSessionNotFound: this is the linearization point serializing
// concurrent appends. Without allocate a missing session is a tolerated
// no-op, since the session may have been deleted concurrently.
func (r *SessionRepository) Touch(ctx context.Context, ownerID, sessionID string, countDelta int64, allocate bool, now int64) (int64, error) {
	upd := ports.Update{
		Add: map[string]int64{attrSetCount: countDelta},
		Set: map[string]string{attrLastUpdatedAt: strconv.FormatInt(now, 10)},
	}
	if allocate {
		upd.Add[attrSetSeq] = 1
		upd.MustExist = true
		upd.Return = attrSetSeq
	}

	seq, err := r.store.Update(ctx, keys.SessionRecord(ownerID, sessionID), upd)
	if errors.Is(err, ports.ErrConditionFailed) {
		return 0, domain.ErrSessionNotFound
	}
	if err != nil {
		return 0, storeErr("touching session", err)
	}
	return seq, nil
}

// Get loads one session record. Used by tests and the facade to inspect
// aggregate state; listings go through the index instead.
func (r *SessionRepository) Get(ctx context.Context, ownerID, sessionID string) (domain.Session, error) {
	rec, err := r.store.Get(ctx, keys.SessionRecord(ownerID, sessionID))
	if errors.Is(err, ports.ErrRecordNotFound) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, storeErr("loading session", err)
	}

	var sess domain.Session
	if err := decodeRecord(rec, &sess); err != nil {
		return domain.Session{}, err
	}
	return sess, nil
}
