package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Cache TTLs. League and matchup data drift quickly during live games;
// the NBA schedule is effectively static within a day.
const (
	TTLLeague     = 60 * time.Second
	TTLMatchup    = 45 * time.Second
	TTLSchedule   = 6 * time.Hour
	TTLFreeAgents = 5 * time.Minute
)

var ErrCacheMiss = fmt.Errorf("key not found")

type CacheService struct {
	client *redis.Client
	group  singleflight.Group
}

func NewCacheService(client *redis.Client) *CacheService {
	return &CacheService{
		client: client,
	}
}

func (s *CacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	if err := s.client.Set(ctx, key, data, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}

	return nil
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return ErrCacheMiss
		}
		return fmt.Errorf("failed to get cache: %w", err)
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return fmt.Errorf("failed to unmarshal value: %w", err)
	}

	return nil
}

func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache: %w", err)
	}
	return nil
}

// GetOrLoad returns the cached value for key, or runs loader under a
// per-key single-flight and caches the result. Concurrent callers for the
// same key share one loader run.
func (s *CacheService) GetOrLoad(ctx context.Context, key string, ttl time.Duration, dest interface{}, loader func(ctx context.Context) (interface{}, error)) error {
	if err := s.Get(ctx, key, dest); err == nil {
		return nil
	}

	data, err, _ := s.group.Do(key, func() (interface{}, error) {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.Set(ctx, key, value, ttl); err != nil {
			logrus.Warnf("Failed to cache %s: %v", key, err)
		}
		return json.Marshal(value)
	})
	if err != nil {
		return err
	}

	return json.Unmarshal(data.([]byte), dest)
}

// Cache key generators. Every key touching league or team data includes
// the full tenant qualifier to prevent cross-tenant leakage.

func LeagueCacheKey(leagueID string) string {
	return fmt.Sprintf("league:%s", leagueID)
}

func MatchupCacheKey(leagueID, teamID, seasonID string) string {
	return fmt.Sprintf("matchup:%s:%s:%s", leagueID, teamID, seasonID)
}

func ScheduleCacheKey(start, end time.Time) string {
	return fmt.Sprintf("schedule:%s:%s", start.UTC().Format("2006-01-02"), end.UTC().Format("2006-01-02"))
}

func FreeAgentsCacheKey(leagueID, seasonID string, myRosterIDs, oppRosterIDs []int) string {
	return fmt.Sprintf("free_agents:%s:%s:%s:%s", leagueID, seasonID, joinSorted(myRosterIDs), joinSorted(oppRosterIDs))
}

func PlayerCardCacheKey(leagueID, seasonID string, playerID int) string {
	return fmt.Sprintf("player_card:%s:%s:%d", leagueID, seasonID, playerID)
}

func joinSorted(ids []int) string {
	sorted := make([]int, len(ids))
	copy(sorted, ids)
	sort.Ints(sorted)

	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ",")
}
