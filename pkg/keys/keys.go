// Package keys implements the single-table key scheme: pure functions
// mapping domain identifiers (owner id, session id, sequence number) to
// record keys and secondary-index partitions. No side effects.
package keys

import "fmt"

// SeqPadWidth is the zero-padding width applied to sequence numbers inside
// set item keys, so that lexicographic order of the primary key matches
// numeric order. Three digits bounds the sortable range to 999 sets per
// session; appends beyond that still allocate correct numeric sequence
// numbers but break key ordering, so widen this before deployments that
// expect bigger sessions.
const SeqPadWidth = 3

// RecordKey is the composite primary key of a record: the owner partition
// and the item key within it.
type RecordKey struct {
	Owner string
	Item  string
}

// OwnerPartition returns the partition key under which all of an owner's
// records (and the owner's session index) live.
func OwnerPartition(ownerID string) string {
	return "OWNER#" + ownerID
}

// SessionPartition returns the index partition grouping a session's sets.
func SessionPartition(sessionID string) string {
	return "SESSION#" + sessionID
}

// SessionRecord returns the primary key of a session record.
func SessionRecord(ownerID, sessionID string) RecordKey {
	return RecordKey{
		Owner: OwnerPartition(ownerID),
		Item:  "SESSION#" + sessionID,
	}
}

// SetRecord returns the primary key of a set record. The sequence number is
// zero-padded to SeqPadWidth (wider numbers are not truncated).
func SetRecord(ownerID, sessionID string, seq int64) RecordKey {
	return RecordKey{
		Owner: OwnerPartition(ownerID),
		Item:  fmt.Sprintf("SET#%s#%0*d", sessionID, SeqPadWidth, seq),
	}
}
