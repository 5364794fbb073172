package domain

import "errors"

// ErrInvalidInput is returned when a mutation is rejected before any store
// access (malformed weight, reps, or sequence number).
var ErrInvalidInput = errors.New("invalid input")

// ErrSessionNotFound is returned when the referenced session does not exist
// at the point of mutation.
var ErrSessionNotFound = errors.New("session not found")

// ErrSetNotFound is returned when the referenced set does not exist at
// delete time.
var ErrSetNotFound = errors.New("set not found")

// ErrStoreUnavailable wraps transient failures of the underlying store.
// Read-only and conditional-write operations are safe to retry; the sequence
// allocation in AppendSet is at-most-once, so a retry after this error may
// leave a gap in the sequence.
var ErrStoreUnavailable = errors.New("store unavailable")
