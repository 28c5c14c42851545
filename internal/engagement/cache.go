package engagement

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/inkwell-press/inkwell/internal/shared"
)

// Cache holds derived like counts in Redis. It is a read-side convenience
// only: the liked_by set in PostgreSQL stays the single source of truth and
// the cache converges to len(liked_by) after every settled mutation.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a like-count cache.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// SetCount stores the derived count.
func (c *Cache) SetCount(ctx context.Context, postID uuid.UUID, count int) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Set(ctx, shared.LikeCountKey(postID.String()), count, c.ttl).Err()
}

// GetCount returns the cached count. The second return is false on a miss.
func (c *Cache) GetCount(ctx context.Context, postID uuid.UUID) (int, bool, error) {
	if c == nil || c.client == nil {
		return 0, false, nil
	}
	count, err := c.client.Get(ctx, shared.LikeCountKey(postID.String())).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return count, true, nil
}

// Invalidate drops the cached count.
func (c *Cache) Invalidate(ctx context.Context, postID uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, shared.LikeCountKey(postID.String())).Err()
}
