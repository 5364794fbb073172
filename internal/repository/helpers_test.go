package repository_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisadapter "github.com/aretw0/setledger/internal/adapters/redis"
	"github.com/aretw0/setledger/internal/repository"
	backend "github.com/redis/go-redis/v9"
)

// newTestRepos wires both repositories over a fresh miniredis. The injected
// clock starts at epoch 1000 and advances one second per call, so every
// write gets a distinct, increasing createdAt.
func newTestRepos(t *testing.T) (*repository.SessionRepository, *repository.SetRepository) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	store := redisadapter.NewFromClient(client, redisadapter.WithPrefix("test:"))

	tick := int64(999)
	clock := func() time.Time {
		return time.Unix(atomic.AddInt64(&tick, 1), 0)
	}

	sessions := repository.NewSessionRepository(store, nil, clock)
	sets := repository.NewSetRepository(store, sessions, nil, clock)
	return sessions, sets
}
