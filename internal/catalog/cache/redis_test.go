package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/catalog/transport"
)

func setupTestRedis(t *testing.T) (*ProductCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewProductCache(client, time.Minute), mr
}

func detail() *transport.ProductDetail {
	return &transport.ProductDetail{
		ProductResponse: transport.ProductResponse{
			ID:     uuid.New(),
			Name:   "Mug",
			Slug:   "mug",
			Price:  12.5,
			Stock:  3,
			Images: []string{"https://cdn.test/mug.png"},
		},
		AverageRating: 4.5,
		ReviewCount:   2,
	}
}

func TestProductCache_SetGetByIDAndSlug(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()
	d := detail()

	require.NoError(t, c.Set(ctx, d))
	assert.True(t, mr.Exists("product:"+d.ID.String()))
	assert.True(t, mr.Exists("product:mug"))

	ttl := mr.TTL("product:mug")
	assert.GreaterOrEqual(t, ttl, time.Minute)
	assert.LessOrEqual(t, ttl, time.Minute+12*time.Second)

	got, err := c.Get(ctx, "mug")
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)
	assert.Equal(t, 12.5, got.Price)
	assert.Equal(t, int64(2), got.ReviewCount)

	got, err = c.Get(ctx, d.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Mug", got.Name)
}

func TestProductCache_Miss(t *testing.T) {
	c, _ := setupTestRedis(t)

	got, err := c.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, got)
}

func TestProductCache_InvalidJSON(t *testing.T) {
	c, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("product:broken", "{not json"))

	_, err := c.Get(context.Background(), "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestProductCache_Invalidate(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()
	d := detail()
	require.NoError(t, c.Set(ctx, d))

	require.NoError(t, c.Invalidate(ctx, d.ID, d.Slug))
	assert.False(t, mr.Exists("product:"+d.ID.String()))
	assert.False(t, mr.Exists("product:mug"))

	_, err := c.Get(ctx, "mug")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestProductCache_Unreachable(t *testing.T) {
	c, mr := setupTestRedis(t)
	mr.Close()

	_, err := c.Get(context.Background(), "mug")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}
