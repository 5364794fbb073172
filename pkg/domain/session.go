package domain

// RecordType discriminates the two entity kinds sharing the single table.
type RecordType string

const (
	TypeSession RecordType = "SESSION"
	TypeSet     RecordType = "SET"
)

// Session represents a workout occasion owned by a single user.
//
// SetSequenceCounter only ever grows: it is the source of sequence numbers
// for appended sets and is never decremented, so SetSequenceCounter >=
// SetCount holds at all times. SetCount is advisory — it is decremented
// best-effort when sets are deleted and can drift (even below zero under
// double-delete races) without affecting the correctness of the set records
// themselves.
type Session struct {
	SessionID string `mapstructure:"sessionId"`

	// CreatedAt and LastUpdatedAt are epoch seconds. LastUpdatedAt is
	// monotonically non-decreasing; it moves on every set append/delete.
	CreatedAt     int64 `mapstructure:"createdAt"`
	LastUpdatedAt int64 `mapstructure:"lastUpdatedAt"`

	Note string `mapstructure:"note"`

	SetSequenceCounter int64 `mapstructure:"setSeq"`
	SetCount           int64 `mapstructure:"setCount"`
}

// DeleteSessionResult reports the outcome of a cascading session delete.
// SessionDeleted is false when the session record was already gone (the
// operation is idempotent); SetsDeleted counts the child records removed by
// this call.
type DeleteSessionResult struct {
	SessionDeleted bool
	SetsDeleted    int
}
