package ratelimit

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sliding-window timestamps in a Redis sorted set per
// key (score = unix nanoseconds), so the quota holds across processes.
// Check-and-record runs under WATCH: a concurrent write to the same key
// aborts and retries the transaction instead of over-admitting.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	seq       atomic.Uint64
}

const redisTxRetries = 5

// NewRedisStore creates a Redis-backed store. Keys are namespaced with
// the given prefix ("ratelimit" when empty).
func NewRedisStore(client *redis.Client, keyPrefix string) *RedisStore {
	if client == nil {
		panic("ratelimit: redis client is required")
	}
	if keyPrefix == "" {
		keyPrefix = "ratelimit"
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisStore) RecordIfAllowed(ctx context.Context, key string, now time.Time, window time.Duration, limit, n int) (bool, int64, time.Time, error) {
	rkey := s.key(key)
	cutoff := strconv.FormatInt(now.Add(-window).UnixNano(), 10)

	var (
		allowed bool
		count   int64
		oldest  time.Time
	)

	txn := func(tx *redis.Tx) error {
		if err := tx.ZRemRangeByScore(ctx, rkey, "-inf", cutoff).Err(); err != nil {
			return err
		}

		current, err := tx.ZCard(ctx, rkey).Result()
		if err != nil {
			return err
		}

		first, err := tx.ZRangeWithScores(ctx, rkey, 0, 0).Result()
		if err != nil {
			return err
		}
		if len(first) > 0 {
			oldest = time.Unix(0, int64(first[0].Score))
		}

		if current+int64(n) > int64(limit) {
			allowed = false
			count = current
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			members := make([]redis.Z, 0, n)
			for range n {
				members = append(members, redis.Z{
					Score:  float64(now.UnixNano()),
					Member: s.member(now),
				})
			}
			pipe.ZAdd(ctx, rkey, members...)
			pipe.Expire(ctx, rkey, window)
			return nil
		})
		if err != nil {
			return err
		}

		allowed = true
		count = current + int64(n)
		if oldest.IsZero() {
			oldest = now
		}
		return nil
	}

	var err error
	for range redisTxRetries {
		err = s.client.Watch(ctx, txn, rkey)
		if err == nil {
			return allowed, count, oldest, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	return false, 0, time.Time{}, errors.Join(ErrStoreFailure, err)
}

func (s *RedisStore) CountInWindow(ctx context.Context, key string, now time.Time, window time.Duration) (int64, time.Time, error) {
	rkey := s.key(key)
	cutoff := strconv.FormatInt(now.Add(-window).UnixNano(), 10)

	if err := s.client.ZRemRangeByScore(ctx, rkey, "-inf", cutoff).Err(); err != nil {
		return 0, time.Time{}, errors.Join(ErrStoreFailure, err)
	}

	count, err := s.client.ZCard(ctx, rkey).Result()
	if err != nil {
		return 0, time.Time{}, errors.Join(ErrStoreFailure, err)
	}

	var oldest time.Time
	first, err := s.client.ZRangeWithScores(ctx, rkey, 0, 0).Result()
	if err != nil {
		return 0, time.Time{}, errors.Join(ErrStoreFailure, err)
	}
	if len(first) > 0 {
		oldest = time.Unix(0, int64(first[0].Score))
	}

	return count, oldest, nil
}

func (s *RedisStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	return nil
}

func (s *RedisStore) key(key string) string {
	return s.keyPrefix + ":" + key
}

// member builds a unique sorted-set member. The sequence suffix keeps
// two requests landing on the same nanosecond from collapsing into one
// entry.
func (s *RedisStore) member(now time.Time) string {
	return strconv.FormatInt(now.UnixNano(), 10) + "-" + strconv.FormatUint(s.seq.Add(1), 10)
}
