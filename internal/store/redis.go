package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Khangurai/zap-admin/internal/observability"
)

// Redis is the shared cache: plans, geocode results, quotas, live positions.
type Redis struct {
	rdb *redis.Client
}

func InitRedis(ctx context.Context, addr string, db int) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Redis{rdb: rdb}, nil
}

// NewRedis wraps an existing client.
func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// SaveJSON stores v under key; ttl 0 keeps it forever.
func (r *Redis) SaveJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := r.rdb.Set(ctx, key, b, ttl).Err(); err != nil {
		observability.RedisErrors.Inc()
		return fmt.Errorf("redis SET %s: %w", key, err)
	}
	return nil
}

// LoadJSON decodes key into v. A missing key returns false and no error.
func (r *Redis) LoadJSON(ctx context.Context, key string, v any) (bool, error) {
	b, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		observability.RedisErrors.Inc()
		return false, fmt.Errorf("redis GET %s: %w", key, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		observability.RedisErrors.Inc()
		return fmt.Errorf("redis DEL: %w", err)
	}
	return nil
}

// IncDailyCounter bumps today's counter for name and reports whether the
// new value is within limit. A limit <= 0 disables the check.
func (r *Redis) IncDailyCounter(ctx context.Context, name string, limit int, now time.Time) (bool, int64, error) {
	key := DailyCounterKey(name, now)
	pipe := r.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, 48*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		observability.RedisErrors.Inc()
		return false, 0, fmt.Errorf("redis INCR %s: %w", key, err)
	}
	n := incr.Val()
	if limit > 0 && n > int64(limit) {
		return false, n, nil
	}
	return true, n, nil
}
