package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"mock-exam/internal/exam"
)

type fakeRedis struct {
	values  map[string]string
	ttls    map[string]time.Duration
	failGet bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.failGet {
		return redis.NewStringResult("", errors.New("connection refused"))
	}
	value, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(value, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.values[key] = string(v)
	case string:
		f.values[key] = v
	}
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var removed int64
	for _, key := range keys {
		if _, ok := f.values[key]; ok {
			delete(f.values, key)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func TestRedisStatsCacheRoundTrip(t *testing.T) {
	client := newFakeRedis()
	cache := &RedisStatsCache{client: client, ttl: time.Minute}
	ctx := context.Background()

	if _, ok, err := cache.GetStats(ctx); ok || err != nil {
		t.Fatalf("expected a clean miss, got ok=%v err=%v", ok, err)
	}

	want := exam.Stats{TotalQuestions: 12, TotalExams: 3, AverageScore: 64, AverageTime: 1800}
	if err := cache.SetStats(ctx, want); err != nil {
		t.Fatalf("SetStats returned error: %v", err)
	}
	if client.ttls[statsKey] != time.Minute {
		t.Fatalf("expected ttl of a minute, got %v", client.ttls[statsKey])
	}

	got, ok, err := cache.GetStats(ctx)
	if err != nil || !ok || got != want {
		t.Fatalf("expected %+v, got %+v ok=%v err=%v", want, got, ok, err)
	}

	if err := cache.InvalidateStats(ctx); err != nil {
		t.Fatalf("InvalidateStats returned error: %v", err)
	}
	if _, ok, _ := cache.GetStats(ctx); ok {
		t.Fatal("expected miss after invalidation")
	}
}

func TestRedisStatsCacheSurfacesErrors(t *testing.T) {
	client := newFakeRedis()
	client.failGet = true
	cache := &RedisStatsCache{client: client, ttl: time.Minute}

	if _, ok, err := cache.GetStats(context.Background()); ok || err == nil {
		t.Fatalf("expected error, got ok=%v err=%v", ok, err)
	}

	client.failGet = false
	client.values[statsKey] = "{not json"
	if _, _, err := cache.GetStats(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestRedisStatsCacheBacksService(t *testing.T) {
	client := newFakeRedis()
	cache := &RedisStatsCache{client: client, ttl: time.Minute}
	service := exam.NewService(exam.NewMemoryStore(), nil, exam.WithStatsCache(cache))
	ctx := context.Background()

	if _, err := service.Stats(ctx); err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if _, ok := client.values[statsKey]; !ok {
		t.Fatal("expected stats to be written to redis")
	}

	if _, err := service.SubmitScore(ctx, exam.ScoreSubmission{TotalQuestions: 4, CorrectAnswers: 3, ExamType: exam.ExamTypeFull}); err != nil {
		t.Fatalf("SubmitScore returned error: %v", err)
	}
	if _, ok := client.values[statsKey]; ok {
		t.Fatal("expected score submission to invalidate cached stats")
	}

	stats, err := service.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if stats.TotalExams != 1 || stats.AverageScore != 75 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
