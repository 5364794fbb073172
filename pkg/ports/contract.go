package ports

import (
	"context"
	"testing"

	"github.com/aretw0/setledger/pkg/keys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunRecordStoreContract runs a suite of tests verifying that a RecordStore
// implementation adheres to the interface contract. Backend test files call
// this against a fresh, empty store.
func RunRecordStoreContract(t *testing.T, store RecordStore) {
	ctx := context.Background()

	t.Run("Put and Get", func(t *testing.T) {
		key := keys.SessionRecord("contract", "s1")
		err := store.Put(ctx, key, map[string]any{
			"type":      "SESSION",
			"sessionId": "s1",
			"note":      "legs",
			"createdAt": int64(1000),
		}, nil)
		require.NoError(t, err)

		rec, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "SESSION", rec["type"])
		assert.Equal(t, "legs", rec["note"])
		assert.Equal(t, "1000", rec["createdAt"])
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, keys.SessionRecord("contract", "missing"))
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("Update Increments And Returns", func(t *testing.T) {
		key := keys.SessionRecord("contract", "ctr")
		require.NoError(t, store.Put(ctx, key, map[string]any{
			"setSeq":   int64(0),
			"setCount": int64(0),
		}, nil))

		for want := int64(1); want <= 3; want++ {
			got, err := store.Update(ctx, key, Update{
				Add:       map[string]int64{"setSeq": 1, "setCount": 1},
				Set:       map[string]string{"lastUpdatedAt": "2000"},
				MustExist: true,
				Return:    "setSeq",
			})
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}

		rec, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "3", rec["setSeq"])
		assert.Equal(t, "3", rec["setCount"])
		assert.Equal(t, "2000", rec["lastUpdatedAt"])
	})

	t.Run("Update MustExist On Missing Record", func(t *testing.T) {
		_, err := store.Update(ctx, keys.SessionRecord("contract", "ghost"), Update{
			Add:       map[string]int64{"setSeq": 1},
			MustExist: true,
			Return:    "setSeq",
		})
		assert.ErrorIs(t, err, ErrConditionFailed)

		// The conditional miss must not have created the record.
		_, err = store.Get(ctx, keys.SessionRecord("contract", "ghost"))
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("Update Without MustExist Never Creates", func(t *testing.T) {
		key := keys.SessionRecord("contract", "ghost2")
		_, err := store.Update(ctx, key, Update{
			Add: map[string]int64{"setCount": -1},
			Set: map[string]string{"lastUpdatedAt": "3000"},
		})
		require.NoError(t, err)

		_, err = store.Get(ctx, key)
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("DeleteExisting", func(t *testing.T) {
		key := keys.SessionRecord("contract", "todelete")
		part := keys.OwnerPartition("contract")
		require.NoError(t, store.Put(ctx, key, map[string]any{"type": "SESSION"}, &IndexEntry{
			Partition: part,
			Score:     1000,
		}))

		require.NoError(t, store.DeleteExisting(ctx, key, part))

		_, err := store.Get(ctx, key)
		assert.ErrorIs(t, err, ErrRecordNotFound)

		members, err := store.QueryIndexDesc(ctx, part, 10)
		require.NoError(t, err)
		assert.NotContains(t, members, key.Item)

		// Second delete finds nothing.
		err = store.DeleteExisting(ctx, key, part)
		assert.ErrorIs(t, err, ErrConditionFailed)
	})

	t.Run("QueryIndexDesc Orders And Limits", func(t *testing.T) {
		part := keys.SessionPartition("contract-q")
		owner := "contract-q"
		for i, score := range []int64{100, 300, 200} {
			key := keys.SetRecord(owner, "contract-q", int64(i+1))
			require.NoError(t, store.Put(ctx, key, map[string]any{"seq": int64(i + 1)}, &IndexEntry{
				Partition: part,
				Score:     score,
			}))
		}

		members, err := store.QueryIndexDesc(ctx, part, 10)
		require.NoError(t, err)
		require.Len(t, members, 3)
		assert.Equal(t, keys.SetRecord(owner, "contract-q", 2).Item, members[0])
		assert.Equal(t, keys.SetRecord(owner, "contract-q", 3).Item, members[1])
		assert.Equal(t, keys.SetRecord(owner, "contract-q", 1).Item, members[2])

		members, err = store.QueryIndexDesc(ctx, part, 2)
		require.NoError(t, err)
		assert.Len(t, members, 2)
	})

	t.Run("GetMany Preserves Order And Skips Missing", func(t *testing.T) {
		owner := "contract-m"
		k1 := keys.SetRecord(owner, "m", 1)
		k2 := keys.SetRecord(owner, "m", 2)
		require.NoError(t, store.Put(ctx, k1, map[string]any{"seq": int64(1)}, nil))
		require.NoError(t, store.Put(ctx, k2, map[string]any{"seq": int64(2)}, nil))

		recs, err := store.GetMany(ctx, []keys.RecordKey{k2, keys.SetRecord(owner, "m", 9), k1})
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, "2", recs[0]["seq"])
		assert.Equal(t, "1", recs[1]["seq"])
	})

	t.Run("BatchDelete And DropIndex", func(t *testing.T) {
		owner := "contract-b"
		part := keys.SessionPartition("contract-b")
		var recordKeys []keys.RecordKey
		for seq := int64(1); seq <= 60; seq++ {
			key := keys.SetRecord(owner, "contract-b", seq)
			require.NoError(t, store.Put(ctx, key, map[string]any{"seq": seq}, &IndexEntry{
				Partition: part,
				Score:     seq,
			}))
			recordKeys = append(recordKeys, key)
		}

		// Pages walk the partition ascending.
		page, err := store.IndexPage(ctx, part, 0, 25)
		require.NoError(t, err)
		require.Len(t, page, 25)
		assert.Equal(t, keys.SetRecord(owner, "contract-b", 1).Item, page[0])

		deleted, err := store.BatchDelete(ctx, recordKeys)
		require.NoError(t, err)
		assert.Equal(t, 60, deleted)

		// Deletes are idempotent; a second pass removes nothing.
		deleted, err = store.BatchDelete(ctx, recordKeys)
		require.NoError(t, err)
		assert.Equal(t, 0, deleted)

		require.NoError(t, store.DropIndex(ctx, part))
		members, err := store.QueryIndexDesc(ctx, part, 10)
		require.NoError(t, err)
		assert.Empty(t, members)
	})
}
