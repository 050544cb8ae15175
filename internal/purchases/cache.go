package purchases

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const summaryCacheKey = "purchases:transit_summary"

// SummaryCache keeps the transit summary report in Redis for a short TTL.
// A nil cache or client degrades to calling the loader directly.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSummaryCache instantiates the cache helper.
func NewSummaryCache(client *redis.Client, ttl time.Duration) *SummaryCache {
	return &SummaryCache{client: client, ttl: ttl}
}

// Fetch loads the cached summary or populates it using the loader.
func (c *SummaryCache) Fetch(ctx context.Context, loader func(context.Context) ([]TransitSummary, error)) ([]TransitSummary, error) {
	if loader == nil {
		return nil, errors.New("purchases: cache loader required")
	}
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	raw, err := c.client.Get(ctx, summaryCacheKey).Bytes()
	if err == nil {
		var cached []TransitSummary
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		// Corrupt payload: fall through and rebuild.
	} else if !errors.Is(err, redis.Nil) {
		return nil, err
	}
	summaries, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(summaries)
	if err != nil {
		return nil, err
	}
	if err := c.client.Set(ctx, summaryCacheKey, encoded, c.ttl).Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}

// Invalidate drops the cached summary after a ledger-touching write.
func (c *SummaryCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, summaryCacheKey).Err()
}
