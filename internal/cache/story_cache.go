package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// StoryCache keeps rendered story-list pages in Redis for the hot
// unfiltered listing. Invalidated on every write to a story.
type StoryCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewStoryCache(client *redisv9.Client, ttl time.Duration) *StoryCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &StoryCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *StoryCache) GetList(ctx context.Context, page, pageSize int) ([]byte, bool, error) {
	raw, err := c.client.Get(ctx, c.listKey(page, pageSize)).Bytes()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get story list failed: %w", err)
	}
	return raw, true, nil
}

func (c *StoryCache) SetList(ctx context.Context, page, pageSize int, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal story list cache failed: %w", err)
	}
	if err := c.client.Set(ctx, c.listKey(page, pageSize), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set story list failed: %w", err)
	}
	return nil
}

// Invalidate drops all cached list pages.
func (c *StoryCache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, "stories:list:*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan story list keys failed: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis invalidate story list failed: %w", err)
	}
	return nil
}

func (c *StoryCache) listKey(page, pageSize int) string {
	return fmt.Sprintf("stories:list:%d:%d", page, pageSize)
}
