package limits

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// redisRetries bounds the optimistic retry loop when another writer touches
// the same user's record between WATCH and EXEC.
const redisRetries = 8

// RedisStore persists usage records in Redis. Per-user linearizability comes
// from a WATCH/MULTI compare-and-swap loop on the record key; distinct users
// never contend.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

func NewRedisStore(client *redis.Client, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "compliance:limits"
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisStore) redisKey(key string) string {
	return fmt.Sprintf("%s:%s", s.keyPrefix, key)
}

func (s *RedisStore) Update(ctx context.Context, key string, fn func(*Usage) error) error {
	rkey := s.redisKey(key)

	txn := func(tx *redis.Tx) error {
		usage := newUsage()
		raw, err := tx.Get(ctx, rkey).Bytes()
		switch {
		case err == redis.Nil:
			// first use: record created lazily
		case err != nil:
			return err
		default:
			if err := json.Unmarshal(raw, usage); err != nil {
				return fmt.Errorf("limits: corrupt record %s: %w", rkey, err)
			}
		}

		if err := fn(usage); err != nil {
			return err
		}

		encoded, err := json.Marshal(usage)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, rkey, encoded, 0)
			return nil
		})
		return err
	}

	var err error
	for i := 0; i < redisRetries; i++ {
		err = s.client.Watch(ctx, txn, rkey)
		if err != redis.TxFailedErr {
			return err
		}
	}
	return fmt.Errorf("limits: contention on %s after %d retries: %w", rkey, redisRetries, err)
}
