package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unreachableRedis points at a closed port so every read misses and every
// write fails. GetOrLoad must still serve loader results.
func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestCacheKeysCarryTenantQualifiers(t *testing.T) {
	assert.Equal(t, "league:L1", LeagueCacheKey("L1"))
	assert.Equal(t, "matchup:L1:13:2026", MatchupCacheKey("L1", "13", "2026"))
	assert.NotEqual(t, MatchupCacheKey("L1", "13", "2026"), MatchupCacheKey("L2", "13", "2026"))

	start := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 11, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, "schedule:2026-01-05:2026-01-11", ScheduleCacheKey(start, end))

	assert.Equal(t, "player_card:L1:2026:42", PlayerCardCacheKey("L1", "2026", 42))
}

func TestFreeAgentsKeyIsOrderInsensitive(t *testing.T) {
	a := FreeAgentsCacheKey("L1", "2026", []int{3, 1, 2}, []int{9, 8})
	b := FreeAgentsCacheKey("L1", "2026", []int{1, 2, 3}, []int{8, 9})
	assert.Equal(t, a, b)

	// A roster change produces a different key.
	c := FreeAgentsCacheKey("L1", "2026", []int{1, 2, 4}, []int{8, 9})
	assert.NotEqual(t, a, c)

	// Same rosters in another league never collide.
	d := FreeAgentsCacheKey("L2", "2026", []int{1, 2, 3}, []int{8, 9})
	assert.NotEqual(t, a, d)
}

func TestGetOrLoadServesLoaderWhenRedisDown(t *testing.T) {
	cache := NewCacheService(unreachableRedis())

	type payload struct {
		Name string `json:"name"`
	}

	var calls atomic.Int32
	loader := func(ctx context.Context) (interface{}, error) {
		calls.Add(1)
		return payload{Name: "fresh"}, nil
	}

	var got payload
	err := cache.GetOrLoad(context.Background(), "k1", time.Minute, &got, loader)
	require.NoError(t, err)
	assert.Equal(t, "fresh", got.Name)

	// With no cache to hit, a second call loads again.
	err = cache.GetOrLoad(context.Background(), "k1", time.Minute, &got, loader)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetOrLoadDeduplicatesConcurrentLoads(t *testing.T) {
	cache := NewCacheService(unreachableRedis())

	type payload struct {
		N int `json:"n"`
	}

	var calls atomic.Int32
	loader := func(ctx context.Context) (interface{}, error) {
		calls.Add(1)
		time.Sleep(50 * time.Millisecond)
		return payload{N: 7}, nil
	}

	const workers = 5
	var wg sync.WaitGroup
	results := make([]payload, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = cache.GetOrLoad(context.Background(), "shared", time.Minute, &results[i], loader)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, 7, results[i].N)
	}
	assert.Equal(t, int32(1), calls.Load())
}
