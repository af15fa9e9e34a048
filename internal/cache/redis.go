package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a store shared by every instance pointing at the same server.
// Values live under "<ns>:v:<key>"; a sorted set "<ns>:idx" scored by last
// access time tracks membership and recency.
type Redis struct {
	rdb      redis.Cmdable
	ns       string
	capacity int
	policy   Policy
}

func NewRedis(rdb redis.Cmdable, namespace string, capacity int, policy Policy) *Redis {
	if capacity < 1 {
		capacity = 1
	}
	return &Redis{rdb: rdb, ns: namespace, capacity: capacity, policy: policy}
}

// Connect parses a redis:// URL and verifies the server answers PING.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (r *Redis) valueKey(key string) string { return r.ns + ":v:" + key }
func (r *Redis) indexKey() string           { return r.ns + ":idx" }

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.rdb.Get(ctx, r.valueKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if r.policy == PolicyLRU {
		// XX: only refresh members still indexed, so a read racing an
		// eviction cannot put the key back into the index.
		score := float64(time.Now().UnixNano())
		if err := r.rdb.ZAddXX(ctx, r.indexKey(), redis.Z{Score: score, Member: key}).Err(); err != nil {
			return nil, false, err
		}
	}
	return val, true, nil
}

func (r *Redis) Put(ctx context.Context, key string, value []byte) error {
	err := r.rdb.ZScore(ctx, r.indexKey(), key).Err()
	isNew := errors.Is(err, redis.Nil)
	if err != nil && !isNew {
		return err
	}

	if isNew && r.policy == PolicyFreeze {
		n, err := r.rdb.ZCard(ctx, r.indexKey()).Result()
		if err != nil {
			return err
		}
		if n >= int64(r.capacity) {
			return nil
		}
	}

	score := float64(time.Now().UnixNano())
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.valueKey(key), value, 0)
		pipe.ZAdd(ctx, r.indexKey(), redis.Z{Score: score, Member: key})
		return nil
	})
	if err != nil {
		return err
	}

	if r.policy == PolicyLRU {
		return r.trim(ctx)
	}
	return nil
}

// trim removes the least recently used entries above capacity.
func (r *Redis) trim(ctx context.Context) error {
	n, err := r.rdb.ZCard(ctx, r.indexKey()).Result()
	if err != nil {
		return err
	}
	excess := n - int64(r.capacity)
	if excess <= 0 {
		return nil
	}
	evicted, err := r.rdb.ZPopMin(ctx, r.indexKey(), excess).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(evicted))
	for _, z := range evicted {
		if m, ok := z.Member.(string); ok {
			keys = append(keys, r.valueKey(m))
		}
	}
	if len(keys) == 0 {
		return nil
	}
	return r.rdb.Del(ctx, keys...).Err()
}

func (r *Redis) Len(ctx context.Context) (int, error) {
	n, err := r.rdb.ZCard(ctx, r.indexKey()).Result()
	return int(n), err
}

func (r *Redis) Capacity() int {
	return r.capacity
}
