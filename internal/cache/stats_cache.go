package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"mock-exam/internal/exam"
)

const statsKey = "mock-exam:admin:stats"

type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStatsCache stores the admin stats as JSON under a single key.
type RedisStatsCache struct {
	client redisClient
	closer func() error
	ttl    time.Duration
}

func NewRedisStatsCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisStatsCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}

	return &RedisStatsCache{client: client, closer: client.Close, ttl: ttl}, nil
}

func (c *RedisStatsCache) GetStats(ctx context.Context) (exam.Stats, bool, error) {
	raw, err := c.client.Get(ctx, statsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return exam.Stats{}, false, nil
	}
	if err != nil {
		return exam.Stats{}, false, fmt.Errorf("read cached stats: %w", err)
	}

	var stats exam.Stats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return exam.Stats{}, false, fmt.Errorf("decode cached stats: %w", err)
	}
	return stats, true, nil
}

func (c *RedisStatsCache) SetStats(ctx context.Context, stats exam.Stats) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, statsKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("write cached stats: %w", err)
	}
	return nil
}

func (c *RedisStatsCache) InvalidateStats(ctx context.Context) error {
	if err := c.client.Del(ctx, statsKey).Err(); err != nil {
		return fmt.Errorf("invalidate cached stats: %w", err)
	}
	return nil
}

func (c *RedisStatsCache) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}
