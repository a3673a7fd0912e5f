package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/core/domain"
)

func NewRedisClient(host, port, password string, dbIndex int) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%s", host, port)

	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           dbIndex,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return rdb, nil
}

const (
	snapshotTTL   = 30 * time.Minute
	generatingTTL = 30 * time.Second
)

// StatsCache stores derived-stats snapshots. It is a hint, never a source
// of truth: callers validate the snapshot's content hash before trusting
// it, and the generating marker is advisory with a short TTL so a crashed
// process simply lets it expire.
type StatsCache struct {
	rdb *redis.Client
}

func NewStatsCache(rdb *redis.Client) *StatsCache {
	return &StatsCache{rdb: rdb}
}

func (c *StatsCache) snapshotKey(userID string) string {
	return fmt.Sprintf("stats:%s", userID)
}

func (c *StatsCache) generatingKey(userID string) string {
	return fmt.Sprintf("stats_generating:%s", userID)
}

func (c *StatsCache) GetSnapshot(ctx context.Context, userID string) (*domain.UserStats, error) {
	val, err := c.rdb.Get(ctx, c.snapshotKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransientStore, err)
	}

	var stats domain.UserStats
	if err := json.Unmarshal([]byte(val), &stats); err != nil {
		log.Printf("[CACHE] Corrupted stats snapshot for user %s, cleaning up key", userID)
		c.rdb.Del(ctx, c.snapshotKey(userID))
		return nil, nil
	}
	return &stats, nil
}

func (c *StatsCache) SetSnapshot(ctx context.Context, userID string, stats *domain.UserStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, c.snapshotKey(userID), data, snapshotTTL).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransientStore, err)
	}
	return nil
}

// TryMarkGenerating claims the recompute slot via SET NX. No explicit
// release: the short TTL is the release.
func (c *StatsCache) TryMarkGenerating(ctx context.Context, userID string) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, c.generatingKey(userID), "1", generatingTTL).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrTransientStore, err)
	}
	return ok, nil
}

// Invalidate drops the snapshot eagerly. The content hash already protects
// readers; this just saves them a stale read-and-discard.
func (c *StatsCache) Invalidate(ctx context.Context, userID string) {
	if err := c.rdb.Del(ctx, c.snapshotKey(userID)).Err(); err != nil {
		log.Printf("[CACHE] Failed to invalidate stats for user %s: %v", userID, err)
	}
}
