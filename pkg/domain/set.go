package domain

// Set is one recorded exercise set within a session.
//
// Seq is assigned exactly once per session by the atomic allocation in
// AppendSet. Within a session sequence numbers are unique and drawn from
// {1..SetSequenceCounter}; gaps appear after deletes, duplicates never.
type Set struct {
	SessionID string  `mapstructure:"sessionId"`
	Seq       int64   `mapstructure:"seq"`
	Weight    float64 `mapstructure:"weight"`
	Reps      int64   `mapstructure:"reps"`
	Note      string  `mapstructure:"note"`
	CreatedAt int64   `mapstructure:"createdAt"`
}

// AppendReceipt is returned by AppendSet once the new set is durable.
type AppendReceipt struct {
	SessionID string
	Seq       int64
	CreatedAt int64
}
