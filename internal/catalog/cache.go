package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dukaflow/dukaflow/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// ProductCache holds the unfiltered storefront product list per tenant.
// Filtered queries always go to Postgres; only the hot default listing is
// cached.
type ProductCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewProductCache(client *redis.Client) *ProductCache {
	return &ProductCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

func (c *ProductCache) GetList(ctx context.Context, tenantID string) ([]domain.Product, error) {
	data, err := c.client.Get(ctx, listKey(tenantID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("unmarshal cached products failed: %w", err)
	}

	return products, nil
}

func (c *ProductCache) SetList(ctx context.Context, tenantID string, products []domain.Product) error {
	data, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("marshal products failed: %w", err)
	}

	// Jitter spreads expiry so tenants don't stampede Postgres together.
	ttl := c.baseTTL + time.Duration(rand.Intn(5))*time.Minute
	if err := c.client.Set(ctx, listKey(tenantID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

func (c *ProductCache) InvalidateList(ctx context.Context, tenantID string) error {
	if err := c.client.Del(ctx, listKey(tenantID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func listKey(tenantID string) string {
	return fmt.Sprintf("catalog:products:%s", tenantID)
}
