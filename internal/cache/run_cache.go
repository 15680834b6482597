package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"snapshot-keeper/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	freshOutcomeKey = "snapshot:outcome:fresh"
	lastOutcomeKey  = "snapshot:outcome:last"
)

// RunCache gates how often the scheduler actually hits the snapshot source.
// A successful outcome stays fresh for ttl; callers bypass it with force.
// Without Redis every lookup misses.
type RunCache struct {
	redis RedisClient
	ttl   time.Duration
	now   func() time.Time
}

func NewRunCache(client RedisClient, ttl time.Duration) *RunCache {
	return &RunCache{redis: client, ttl: ttl, now: time.Now}
}

// Fresh returns the last successful outcome if it finished less than ttl ago.
func (c *RunCache) Fresh(ctx context.Context) (*domain.Outcome, error) {
	if c.redis == nil || c.ttl <= 0 {
		return nil, nil
	}
	outcome, err := c.read(ctx, freshOutcomeKey)
	if err != nil || outcome == nil {
		return nil, err
	}
	if c.now().Sub(outcome.FinishedAt) >= c.ttl {
		return nil, nil
	}
	return outcome, nil
}

// Last returns the most recent outcome of any kind.
func (c *RunCache) Last(ctx context.Context) (*domain.Outcome, error) {
	if c.redis == nil {
		return nil, nil
	}
	return c.read(ctx, lastOutcomeKey)
}

// Remember stores outcome as the last one and, when it succeeded, as fresh.
// Skipped outcomes are not stored; they only echo an earlier run.
func (c *RunCache) Remember(ctx context.Context, outcome domain.Outcome) error {
	if c.redis == nil || outcome.Skipped {
		return nil
	}
	data, err := json.Marshal(outcome)
	if err != nil {
		return err
	}
	if err := c.redis.Set(ctx, lastOutcomeKey, data, 0).Err(); err != nil {
		return err
	}
	if outcome.Success && c.ttl > 0 {
		return c.redis.Set(ctx, freshOutcomeKey, data, c.ttl).Err()
	}
	return nil
}

func (c *RunCache) read(ctx context.Context, key string) (*domain.Outcome, error) {
	data, err := c.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var outcome domain.Outcome
	if err := json.Unmarshal(data, &outcome); err != nil {
		return nil, err
	}
	return &outcome, nil
}
