package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/storefront/internal/catalog/transport"
)

var ErrCacheMiss = errors.New("cache miss")

// ProductCache holds rendered product details keyed by id and by slug.
type ProductCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewProductCache(client *redis.Client, ttl time.Duration) *ProductCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ProductCache{client: client, baseTTL: ttl}
}

func (c *ProductCache) Get(ctx context.Context, ref string) (*transport.ProductDetail, error) {
	data, err := c.client.Get(ctx, cacheKey(ref)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var d transport.ProductDetail
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("unmarshal product failed: %w", err)
	}
	return &d, nil
}

func (c *ProductCache) Set(ctx context.Context, d *transport.ProductDetail) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal product failed: %w", err)
	}

	ttl := c.baseTTL + time.Duration(rand.Int63n(int64(c.baseTTL/5)+1))
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, cacheKey(d.ID.String()), data, ttl)
	pipe.Set(ctx, cacheKey(d.Slug), data, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *ProductCache) Invalidate(ctx context.Context, id uuid.UUID, slug string) error {
	keys := []string{cacheKey(id.String())}
	if slug != "" {
		keys = append(keys, cacheKey(slug))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(ref string) string {
	return fmt.Sprintf("product:%s", ref)
}
