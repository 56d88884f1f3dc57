package rubric

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DistLock is a short-TTL distributed dedupe lock backed by Redis, so two
// scorer processes running against the same output directory never spend
// an LLM call scoring the same applicant concurrently (§5: "a Redis client
// used for the LLM scorer's distributed dedupe lock").
type DistLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDistLock connects to the given Redis URL and verifies it is reachable
// before returning, since a lock that silently never locks is worse than
// no lock at all.
func NewDistLock(ctx context.Context, redisURL string, ttl time.Duration) (*DistLock, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return &DistLock{client: client, ttl: ttl}, nil
}

// TryAcquire claims the dedupe lock for one AMCAS ID, returning false
// when another process already holds it.
func (l *DistLock) TryAcquire(ctx context.Context, amcasID int64) (bool, error) {
	return l.client.SetNX(ctx, lockKey(amcasID), 1, l.ttl).Result()
}

// Release drops the lock once scoring for that applicant completes, so a
// retry elsewhere doesn't wait out the full TTL.
func (l *DistLock) Release(ctx context.Context, amcasID int64) error {
	return l.client.Del(ctx, lockKey(amcasID)).Err()
}

// Close releases the underlying Redis connection.
func (l *DistLock) Close() error {
	return l.client.Close()
}

func lockKey(amcasID int64) string {
	return fmt.Sprintf("triage:rubric:lock:%d", amcasID)
}
