// README: Route cache backed by Redis; holds catalogue rows only, never computed prices.
package flight

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores the raw flights of one route and day. Quotes depend on the clock and are
// always recomputed, so they are never written here.
type Cache interface {
	GetRoute(ctx context.Context, key string) ([]Flight, bool, error)
	SetRoute(ctx context.Context, key string, flights []Flight, ttl time.Duration) error
}

type RedisCache struct {
	redis *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{redis: client}
}

func (c *RedisCache) GetRoute(ctx context.Context, key string) ([]Flight, bool, error) {
	val, err := c.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var flights []Flight
	if err := json.Unmarshal(val, &flights); err != nil {
		return nil, false, err
	}
	return flights, true, nil
}

func (c *RedisCache) SetRoute(ctx context.Context, key string, flights []Flight, ttl time.Duration) error {
	b, err := json.Marshal(flights)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, key, b, ttl).Err()
}

type NopCache struct{}

func (NopCache) GetRoute(context.Context, string) ([]Flight, bool, error) { return nil, false, nil }

func (NopCache) SetRoute(context.Context, string, []Flight, time.Duration) error { return nil }
