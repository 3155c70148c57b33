package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"github.com/robertarktes/event-marketplace/internal/domain"
)

const TrendingKey = "events:trending"

type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Client() *redis.Client {
	return c.client
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Trending returns the cached trending list; ok is false on a cache miss.
func (c *Cache) Trending(ctx context.Context) (events []domain.EventSummary, ok bool, err error) {
	val, err := c.client.Get(ctx, TrendingKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "get trending")
	}
	if err := json.Unmarshal(val, &events); err != nil {
		return nil, false, errors.Wrap(err, "decode trending")
	}
	return events, true, nil
}

func (c *Cache) SetTrending(ctx context.Context, events []domain.EventSummary, ttl time.Duration) error {
	data, err := json.Marshal(events)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, TrendingKey, data, ttl).Err()
}

func (c *Cache) InvalidateTrending(ctx context.Context) error {
	return c.client.Del(ctx, TrendingKey).Err()
}
