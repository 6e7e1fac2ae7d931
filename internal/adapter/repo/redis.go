package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"donasi/internal/domain"
)

// ErrConflict is returned when an optimistic update keeps losing the race.
var ErrConflict = errors.New("collection update conflict")

const redisMaxAttempts = 8

// RedisStore keeps each collection as a JSON string under its bare key, the
// layout the serverless deployment already used, plus a "<key>:seq" counter.
type RedisStore struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisStore connects to the Redis (or Upstash) instance at url.
func NewRedisStore(ctx context.Context, url string, logger zerolog.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisStoreFromClient(client, logger), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, logger zerolog.Logger) *RedisStore {
	return &RedisStore{client: client, logger: logger}
}

func redisSeqKey(key string) string { return key + ":seq" }

func (s *RedisStore) Get(ctx context.Context, key string) (domain.CollectionRecord, error) {
	return readRedisRecord(ctx, s.client, key)
}

// Update runs fn inside WATCH/MULTI and retries when another writer touched
// the collection in between.
func (s *RedisStore) Update(ctx context.Context, key string, fn func(domain.CollectionRecord) (domain.CollectionRecord, error)) error {
	txf := func(tx *redis.Tx) error {
		rec, err := readRedisRecord(ctx, tx, key)
		if err != nil {
			return err
		}
		next, err := fn(rec)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			writeRedisRecord(ctx, pipe, key, next)
			return nil
		})
		return err
	}

	for attempt := 1; attempt <= redisMaxAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, key, redisSeqKey(key))
		if err == nil {
			return nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		s.logger.Debug().Str("key", key).Int("attempt", attempt).Msg("redis update conflict, retrying")
	}
	return ErrConflict
}

func (s *RedisStore) Replace(ctx context.Context, key string, rec domain.CollectionRecord) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		writeRedisRecord(ctx, pipe, key, rec)
		return nil
	})
	return err
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// mgetter is satisfied by both *redis.Client and *redis.Tx.
type mgetter interface {
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
}

func readRedisRecord(ctx context.Context, c mgetter, key string) (domain.CollectionRecord, error) {
	var rec domain.CollectionRecord
	vals, err := c.MGet(ctx, key, redisSeqKey(key)).Result()
	if err != nil {
		return rec, err
	}
	if raw, ok := vals[0].(string); ok && raw != "" {
		if !json.Valid([]byte(raw)) {
			return rec, fmt.Errorf("redis key %q holds invalid json", key)
		}
		rec.Items = json.RawMessage(raw)
	}
	if raw, ok := vals[1].(string); ok && raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return rec, fmt.Errorf("redis key %q: %w", redisSeqKey(key), err)
		}
		rec.NextID = n
	}
	return rec, nil
}

func writeRedisRecord(ctx context.Context, pipe redis.Pipeliner, key string, rec domain.CollectionRecord) {
	pipe.Set(ctx, key, string(itemsOrEmpty(rec.Items)), 0)
	pipe.Set(ctx, redisSeqKey(key), rec.NextID, 0)
}

var _ domain.CollectionStore = (*RedisStore)(nil)
