package repository_test

import (
	"context"
	"testing"

	"github.com/aretw0/setledger/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionCreate(t *testing.T) {
	sessions, _ := newTestRepos(t)
	ctx := context.Background()

	sess, err := sessions.Create(ctx, "u1", "legs")
	require.NoError(t, err)
	assert.Len(t, sess.SessionID, 12)
	assert.Equal(t, int64(1000), sess.CreatedAt)
	assert.Equal(t, sess.CreatedAt, sess.LastUpdatedAt)
	assert.Equal(t, "legs", sess.Note)

	stored, err := sessions.Get(ctx, "u1", sess.SessionID)
	require.NoError(t, err)
	assert.Equal(t, sess.SessionID, stored.SessionID)
	assert.Zero(t, stored.SetSequenceCounter)
	assert.Zero(t, stored.SetCount)
}

func TestSessionCreate_DistinctIDs(t *testing.T) {
	sessions, _ := newTestRepos(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		sess, err := sessions.Create(ctx, "u1", "")
		require.NoError(t, err)
		assert.False(t, seen[sess.SessionID])
		seen[sess.SessionID] = true
	}
}

func TestSessionList_NewestFirst(t *testing.T) {
	sessions, _ := newTestRepos(t)
	ctx := context.Background()

	first, err := sessions.Create(ctx, "u1", "mon")
	require.NoError(t, err)
	second, err := sessions.Create(ctx, "u1", "wed")
	require.NoError(t, err)
	third, err := sessions.Create(ctx, "u1", "fri")
	require.NoError(t, err)

	listed, err := sessions.List(ctx, "u1", 50)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, third.SessionID, listed[0].SessionID)
	assert.Equal(t, second.SessionID, listed[1].SessionID)
	assert.Equal(t, first.SessionID, listed[2].SessionID)
}

func TestSessionList_DefaultAndExplicitLimit(t *testing.T) {
	sessions, _ := newTestRepos(t)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, err := sessions.Create(ctx, "u1", "")
		require.NoError(t, err)
	}

	listed, err := sessions.List(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, listed, 10)

	listed, err = sessions.List(ctx, "u1", 3)
	require.NoError(t, err)
	assert.Len(t, listed, 3)
}

func TestSessionList_ScopedToOwner(t *testing.T) {
	sessions, _ := newTestRepos(t)
	ctx := context.Background()

	_, err := sessions.Create(ctx, "u1", "mine")
	require.NoError(t, err)
	_, err = sessions.Create(ctx, "u2", "theirs")
	require.NoError(t, err)

	listed, err := sessions.List(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "mine", listed[0].Note)
}

func TestSessionDelete_CascadesAndIsIdempotent(t *testing.T) {
	sessions, sets := newTestRepos(t)
	ctx := context.Background()

	sess, err := sessions.Create(ctx, "u1", "legs")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := sets.Append(ctx, "u1", sess.SessionID, 100, 8, "")
		require.NoError(t, err)
	}

	res, err := sessions.Delete(ctx, "u1", sess.SessionID)
	require.NoError(t, err)
	assert.True(t, res.SessionDeleted)
	assert.Equal(t, 5, res.SetsDeleted)

	// No residual set records or session record.
	remaining, err := sets.List(ctx, "u1", sess.SessionID, 50)
	require.NoError(t, err)
	assert.Empty(t, remaining)
	_, err = sessions.Get(ctx, "u1", sess.SessionID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// Second delete finds nothing, and does not fail.
	res, err = sessions.Delete(ctx, "u1", sess.SessionID)
	require.NoError(t, err)
	assert.False(t, res.SessionDeleted)
	assert.Zero(t, res.SetsDeleted)
}

func TestSessionDelete_ManySetsPaginates(t *testing.T) {
	sessions, sets := newTestRepos(t)
	ctx := context.Background()

	// More children than one enumeration page (100) or delete batch (25).
	sess, err := sessions.Create(ctx, "u1", "volume day")
	require.NoError(t, err)
	for i := 0; i < 130; i++ {
		_, err := sets.Append(ctx, "u1", sess.SessionID, 60, 12, "")
		require.NoError(t, err)
	}

	res, err := sessions.Delete(ctx, "u1", sess.SessionID)
	require.NoError(t, err)
	assert.True(t, res.SessionDeleted)
	assert.Equal(t, 130, res.SetsDeleted)

	remaining, err := sets.List(ctx, "u1", sess.SessionID, 100)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestSessionDelete_NonExistent(t *testing.T) {
	sessions, _ := newTestRepos(t)

	res, err := sessions.Delete(context.Background(), "u1", "nope")
	require.NoError(t, err)
	assert.False(t, res.SessionDeleted)
	assert.Zero(t, res.SetsDeleted)
}

func TestSessionTouch(t *testing.T) {
	sessions, _ := newTestRepos(t)
	ctx := context.Background()

	t.Run("Allocate On Missing Session", func(t *testing.T) {
		_, err := sessions.Touch(ctx, "u1", "ghost", 1, true, 2000)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Compensation Tolerates Missing Session", func(t *testing.T) {
		_, err := sessions.Touch(ctx, "u1", "ghost", -1, false, 2000)
		assert.NoError(t, err)

		// The tolerated no-op must not resurrect a record.
		_, err = sessions.Get(ctx, "u1", "ghost")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Allocate Returns Increasing Sequence", func(t *testing.T) {
		sess, err := sessions.Create(ctx, "u1", "")
		require.NoError(t, err)

		seq, err := sessions.Touch(ctx, "u1", sess.SessionID, 1, true, 3000)
		require.NoError(t, err)
		assert.Equal(t, int64(1), seq)

		seq, err = sessions.Touch(ctx, "u1", sess.SessionID, 1, true, 3001)
		require.NoError(t, err)
		assert.Equal(t, int64(2), seq)

		stored, err := sessions.Get(ctx, "u1", sess.SessionID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), stored.SetSequenceCounter)
		assert.Equal(t, int64(2), stored.SetCount)
		assert.Equal(t, int64(3001), stored.LastUpdatedAt)
	})
}
