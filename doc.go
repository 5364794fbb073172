/*
Package setledger is a workout-tracking record store: users create sessions
(a workout occasion) and append ordered sets (weight/reps/note) to them.

Everything is persisted in a single-table key-value layout on Redis — one
record kind per entity, disambiguated by a type discriminator and composite
keys, with ZSET secondary indexes for reverse-chronological listings. The
interesting parts are the atomic sequence-allocation protocol that keeps
concurrent appends to one session from ever sharing a sequence number, and
the paginated cascading delete that removes a session together with all of
its sets.

# Architecture

The code follows Hexagonal Architecture: pkg/domain holds the pure models,
pkg/ports the store contract, and the repositories in internal/repository
implement the protocols against any ports.RecordStore. The HTTP layer is a
thin collaborator that parses requests and renders domain errors; it holds
no invariants of its own.

# Usage

	svc := setledger.New("localhost:6379", "", 0)
	defer svc.Close()

	sess, err := svc.CreateSession(ctx, "u1", "legs day")
	if err != nil {
		log.Fatal(err)
	}
	receipt, err := svc.AppendSet(ctx, "u1", sess.SessionID, 100.5, 8, "")
*/
package setledger
