package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"stock-advisor/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	recommendationKeyPrefix = "recommendation:latest:"
	purgeScanCount          = 100
)

// RecommendationCache keeps the latest recommendation per symbol. A nil
// client turns every call into a miss.
type RecommendationCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRecommendationCache(client *redis.Client, ttl time.Duration) *RecommendationCache {
	return &RecommendationCache{client: client, ttl: ttl}
}

func recommendationKey(symbol string) string {
	return recommendationKeyPrefix + domain.NormalizeSymbol(symbol)
}

// Get returns nil without error on a miss.
func (c *RecommendationCache) Get(ctx context.Context, symbol string) (*domain.Recommendation, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	raw, err := c.client.Get(ctx, recommendationKey(symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec domain.Recommendation
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *RecommendationCache) Set(ctx context.Context, rec domain.Recommendation) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, recommendationKey(rec.Symbol), raw, c.ttl).Err()
}

// Purge drops every cached recommendation.
func (c *RecommendationCache) Purge(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	var keys []string
	iter := c.client.Scan(ctx, 0, recommendationKeyPrefix+"*", purgeScanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *RecommendationCache) Delete(ctx context.Context, symbol string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, recommendationKey(symbol)).Err()
}
