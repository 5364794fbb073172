// Package redis implements ports.RecordStore on Redis.
//
// Records are hashes; secondary indexes are ZSETs scored by createdAt, with
// the record's item key as member. The conditional update and conditional
// delete run as Lua scripts, so they are atomic per key — that is what makes
// sequence allocation linearizable under concurrent appenders.
package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aretw0/setledger/pkg/keys"
	"github.com/aretw0/setledger/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// batchLimit bounds one batched delete round trip, mirroring the 25-item
// write-batch limit of comparable stores.
const batchLimit = 25

// maxChunkAttempts bounds retries of a failed delete chunk. Chunk deletes
// are idempotent, so retrying a partially applied chunk is safe.
const maxChunkAttempts = 3

// updateScript applies integer deltas and field overwrites to an existing
// hash in one atomic step. It never creates the hash: a missing record is a
// conditional failure when ARGV[1] demands existence, otherwise a no-op.
// Reply is {applied, returnValue}.
//
// ARGV layout: mustExist, nAdd, returnField, nAdd*(field, delta), nSet,
// nSet*(field, value).
var updateScript = backend.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	if ARGV[1] == "1" then
		return {0, 0}
	end
	return {1, 0}
end
local ret = 0
local nadd = tonumber(ARGV[2])
local i = 4
for n = 1, nadd do
	local v = redis.call("HINCRBY", KEYS[1], ARGV[i], ARGV[i+1])
	if ARGV[i] == ARGV[3] then
		ret = v
	end
	i = i + 2
end
local nset = tonumber(ARGV[i])
i = i + 1
for n = 1, nset do
	redis.call("HSET", KEYS[1], ARGV[i], ARGV[i+1])
	i = i + 2
end
return {1, ret}
`)

// deleteScript removes a record and its index entry only when the record
// exists. Reply is 1 when deleted, 0 on a conditional miss.
var deleteScript = backend.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
redis.call("DEL", KEYS[1])
redis.call("ZREM", KEYS[2], ARGV[1])
return 1
`)

// Store implements ports.RecordStore using Redis.
type Store struct {
	client *backend.Client
	prefix string
}

// Ensure Store implements the port.
var _ ports.RecordStore = (*Store)(nil)

type Option func(*Store)

// WithPrefix sets the key namespace for records and indexes.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "setledger:",
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *Store) recordKey(k keys.RecordKey) string {
	return s.prefix + "record:" + k.Owner + "|" + k.Item
}

func (s *Store) indexKey(partition string) string {
	return s.prefix + "index:" + partition
}

// Put writes the record and its optional index entry in one MULTI/EXEC
// batch. Any previous attributes at the key are replaced, not merged.
func (s *Store) Put(ctx context.Context, key keys.RecordKey, attrs map[string]any, index *ports.IndexEntry) error {
	_, err := s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		rk := s.recordKey(key)
		pipe.Del(ctx, rk)
		pipe.HSet(ctx, rk, attrs)
		if index != nil {
			pipe.ZAdd(ctx, s.indexKey(index.Partition), backend.Z{
				Score:  float64(index.Score),
				Member: key.Item,
			})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to put record: %w", err)
	}
	return nil
}

// Get returns the raw record at key.
func (s *Store) Get(ctx context.Context, key keys.RecordKey) (ports.Record, error) {
	rec, err := s.client.HGetAll(ctx, s.recordKey(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	if len(rec) == 0 {
		return nil, ports.ErrRecordNotFound
	}
	return rec, nil
}

// GetMany fetches records in one pipelined round trip, preserving input
// order and skipping keys with no record.
func (s *Store) GetMany(ctx context.Context, recordKeys []keys.RecordKey) ([]ports.Record, error) {
	if len(recordKeys) == 0 {
		return nil, nil
	}

	cmds := make([]*backend.MapStringStringCmd, len(recordKeys))
	_, err := s.client.Pipelined(ctx, func(pipe backend.Pipeliner) error {
		for i, k := range recordKeys {
			cmds[i] = pipe.HGetAll(ctx, s.recordKey(k))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get records: %w", err)
	}

	records := make([]ports.Record, 0, len(recordKeys))
	for _, cmd := range cmds {
		rec := cmd.Val()
		if len(rec) == 0 {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Update runs the conditional add-and-set script against the record.
func (s *Store) Update(ctx context.Context, key keys.RecordKey, upd ports.Update) (int64, error) {
	argv := make([]any, 0, 3+2*len(upd.Add)+1+2*len(upd.Set))
	mustExist := "0"
	if upd.MustExist {
		mustExist = "1"
	}
	argv = append(argv, mustExist, strconv.Itoa(len(upd.Add)), upd.Return)
	for field, delta := range upd.Add {
		argv = append(argv, field, strconv.FormatInt(delta, 10))
	}
	argv = append(argv, strconv.Itoa(len(upd.Set)))
	for field, value := range upd.Set {
		argv = append(argv, field, value)
	}

	reply, err := updateScript.Run(ctx, s.client, []string{s.recordKey(key)}, argv...).Int64Slice()
	if err != nil {
		return 0, fmt.Errorf("failed to update record: %w", err)
	}
	if len(reply) != 2 {
		return 0, fmt.Errorf("unexpected update script reply of length %d", len(reply))
	}
	if reply[0] == 0 {
		return 0, ports.ErrConditionFailed
	}
	return reply[1], nil
}

// DeleteExisting removes the record and its index entry, failing
// ports.ErrConditionFailed when the record is already gone.
func (s *Store) DeleteExisting(ctx context.Context, key keys.RecordKey, indexPartition string) error {
	scriptKeys := []string{s.recordKey(key), s.indexKey(indexPartition)}
	deleted, err := deleteScript.Run(ctx, s.client, scriptKeys, key.Item).Int()
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if deleted == 0 {
		return ports.ErrConditionFailed
	}
	return nil
}

// BatchDelete removes records in chunks of batchLimit, retrying each failed
// chunk as a whole. Returns the number of records that existed.
func (s *Store) BatchDelete(ctx context.Context, recordKeys []keys.RecordKey) (int, error) {
	deleted := 0
	for start := 0; start < len(recordKeys); start += batchLimit {
		end := min(start+batchLimit, len(recordKeys))
		n, err := s.deleteChunk(ctx, recordKeys[start:end])
		if err != nil {
			return deleted, err
		}
		deleted += n
	}
	return deleted, nil
}

func (s *Store) deleteChunk(ctx context.Context, chunk []keys.RecordKey) (int, error) {
	var lastErr error
	for attempt := 0; attempt < maxChunkAttempts; attempt++ {
		cmds := make([]*backend.IntCmd, len(chunk))
		_, err := s.client.Pipelined(ctx, func(pipe backend.Pipeliner) error {
			for i, k := range chunk {
				cmds[i] = pipe.Del(ctx, s.recordKey(k))
			}
			return nil
		})
		if err != nil {
			lastErr = err
			continue
		}

		n := 0
		for _, cmd := range cmds {
			n += int(cmd.Val())
		}
		return n, nil
	}
	return 0, fmt.Errorf("failed to delete chunk after %d attempts: %w", maxChunkAttempts, lastErr)
}

// QueryIndexDesc returns up to limit members of the partition, highest
// score first.
func (s *Store) QueryIndexDesc(ctx context.Context, partition string, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	members, err := s.client.ZRevRange(ctx, s.indexKey(partition), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query index: %w", err)
	}
	return members, nil
}

// IndexPage returns one ascending page of the partition's members.
func (s *Store) IndexPage(ctx context.Context, partition string, offset, count int64) ([]string, error) {
	members, err := s.client.ZRange(ctx, s.indexKey(partition), offset, offset+count-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to page index: %w", err)
	}
	return members, nil
}

// DropIndex removes the whole index partition.
func (s *Store) DropIndex(ctx context.Context, partition string) error {
	if err := s.client.Del(ctx, s.indexKey(partition)).Err(); err != nil {
		return fmt.Errorf("failed to drop index: %w", err)
	}
	return nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
