package repository_test

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/aretw0/setledger/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppend_AllocatesSequentially(t *testing.T) {
	sessions, sets := newTestRepos(t)
	ctx := context.Background()

	sess, err := sessions.Create(ctx, "u1", "legs")
	require.NoError(t, err)
	require.Equal(t, int64(1000), sess.CreatedAt)

	first, err := sets.Append(ctx, "u1", sess.SessionID, 100.5, 8, "")
	require.NoError(t, err)
	assert.Equal(t, sess.SessionID, first.SessionID)
	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, int64(1001), first.CreatedAt)

	second, err := sets.Append(ctx, "u1", sess.SessionID, 102.5, 6, "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Seq)
	assert.Greater(t, second.CreatedAt, first.CreatedAt)

	stored, err := sessions.Get(ctx, "u1", sess.SessionID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.SetSequenceCounter)
	assert.Equal(t, int64(2), stored.SetCount)
	assert.Equal(t, second.CreatedAt, stored.LastUpdatedAt)
}

func TestAppend_Validation(t *testing.T) {
	sessions, sets := newTestRepos(t)
	ctx := context.Background()

	sess, err := sessions.Create(ctx, "u1", "")
	require.NoError(t, err)

	cases := []struct {
		name   string
		weight float64
		reps   int64
	}{
		{"negative weight", -1, 8},
		{"NaN weight", math.NaN(), 8},
		{"infinite weight", math.Inf(1), 8},
		{"negative reps", 100, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := sets.Append(ctx, "u1", sess.SessionID, tc.weight, tc.reps, "")
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	// Validation is rejected before any store access: the aggregate did not
	// move, and invalid input against a missing session is still
	// ErrInvalidInput, not ErrSessionNotFound.
	stored, err := sessions.Get(ctx, "u1", sess.SessionID)
	require.NoError(t, err)
	assert.Zero(t, stored.SetSequenceCounter)
	assert.Zero(t, stored.SetCount)

	_, err = sets.Append(ctx, "u1", "ghost", -1, 8, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAppend_SessionNotFound(t *testing.T) {
	_, sets := newTestRepos(t)
	ctx := context.Background()

	_, err := sets.Append(ctx, "u1", "ghost", 100, 8, "")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// No set record was written.
	listed, err := sets.List(ctx, "u1", "ghost", 50)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestAppend_ConcurrentAllocationsAreDistinct(t *testing.T) {
	sessions, sets := newTestRepos(t)
	ctx := context.Background()

	sess, err := sessions.Create(ctx, "u1", "")
	require.NoError(t, err)

	const appenders = 25
	receipts := make(chan int64, appenders)
	var wg sync.WaitGroup
	for i := 0; i < appenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			receipt, err := sets.Append(ctx, "u1", sess.SessionID, 80, 10, "")
			assert.NoError(t, err)
			receipts <- receipt.Seq
		}()
	}
	wg.Wait()
	close(receipts)

	seen := make(map[int64]bool)
	for seq := range receipts {
		assert.False(t, seen[seq], "sequence %d allocated twice", seq)
		assert.GreaterOrEqual(t, seq, int64(1))
		assert.LessOrEqual(t, seq, int64(appenders))
		seen[seq] = true
	}
	assert.Len(t, seen, appenders)

	stored, err := sessions.Get(ctx, "u1", sess.SessionID)
	require.NoError(t, err)
	assert.Equal(t, int64(appenders), stored.SetSequenceCounter)
}

func TestList_NewestFirstSkippingDeleted(t *testing.T) {
	sessions, sets := newTestRepos(t)
	ctx := context.Background()

	sess, err := sessions.Create(ctx, "u1", "")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := sets.Append(ctx, "u1", sess.SessionID, 100, 8, "")
		require.NoError(t, err)
	}
	require.NoError(t, sets.Delete(ctx, "u1", sess.SessionID, 3))

	listed, err := sets.List(ctx, "u1", sess.SessionID, 20)
	require.NoError(t, err)
	require.Len(t, listed, 4)

	seqs := make([]int64, len(listed))
	for i, set := range listed {
		seqs[i] = set.Seq
	}
	assert.Equal(t, []int64{5, 4, 2, 1}, seqs)
}

func TestList_RoundTripsAttributes(t *testing.T) {
	sessions, sets := newTestRepos(t)
	ctx := context.Background()

	sess, err := sessions.Create(ctx, "u1", "")
	require.NoError(t, err)
	receipt, err := sets.Append(ctx, "u1", sess.SessionID, 102.5, 6, "paused rep")
	require.NoError(t, err)

	listed, err := sets.List(ctx, "u1", sess.SessionID, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, sess.SessionID, listed[0].SessionID)
	assert.Equal(t, receipt.Seq, listed[0].Seq)
	assert.Equal(t, 102.5, listed[0].Weight)
	assert.Equal(t, int64(6), listed[0].Reps)
	assert.Equal(t, "paused rep", listed[0].Note)
	assert.Equal(t, receipt.CreatedAt, listed[0].CreatedAt)
}

func TestList_DefaultLimit(t *testing.T) {
	sessions, sets := newTestRepos(t)
	ctx := context.Background()

	sess, err := sessions.Create(ctx, "u1", "")
	require.NoError(t, err)
	for i := 0; i < 25; i++ {
		_, err := sets.Append(ctx, "u1", sess.SessionID, 60, 15, "")
		require.NoError(t, err)
	}

	listed, err := sets.List(ctx, "u1", sess.SessionID, 0)
	require.NoError(t, err)
	assert.Len(t, listed, 20)
}

func TestDelete_Validation(t *testing.T) {
	_, sets := newTestRepos(t)
	ctx := context.Background()

	assert.ErrorIs(t, sets.Delete(ctx, "u1", "s", 0), domain.ErrInvalidInput)
	assert.ErrorIs(t, sets.Delete(ctx, "u1", "s", -3), domain.ErrInvalidInput)
}

func TestDelete_NotFoundLeavesAggregateUntouched(t *testing.T) {
	sessions, sets := newTestRepos(t)
	ctx := context.Background()

	sess, err := sessions.Create(ctx, "u1", "")
	require.NoError(t, err)
	_, err = sets.Append(ctx, "u1", sess.SessionID, 100, 8, "")
	require.NoError(t, err)

	before, err := sessions.Get(ctx, "u1", sess.SessionID)
	require.NoError(t, err)

	err = sets.Delete(ctx, "u1", sess.SessionID, 9)
	assert.ErrorIs(t, err, domain.ErrSetNotFound)

	after, err := sessions.Get(ctx, "u1", sess.SessionID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestDelete_DecrementsCountNeverCounter(t *testing.T) {
	sessions, sets := newTestRepos(t)
	ctx := context.Background()

	sess, err := sessions.Create(ctx, "u1", "")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := sets.Append(ctx, "u1", sess.SessionID, 100, 8, "")
		require.NoError(t, err)
	}

	require.NoError(t, sets.Delete(ctx, "u1", sess.SessionID, 2))

	stored, err := sessions.Get(ctx, "u1", sess.SessionID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stored.SetSequenceCounter)
	assert.Equal(t, int64(2), stored.SetCount)

	// A later append continues after the highest allocated number; deleted
	// numbers are never reused.
	receipt, err := sets.Append(ctx, "u1", sess.SessionID, 100, 8, "")
	require.NoError(t, err)
	assert.Equal(t, int64(4), receipt.Seq)
}
