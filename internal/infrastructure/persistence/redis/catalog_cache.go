package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bookvine/cart-service/internal/application/ports"
	"github.com/bookvine/cart-service/internal/infrastructure/monitoring"
	"github.com/bookvine/cart-service/internal/pkg/logger"
)

// CatalogCache is a cache-aside decorator around the catalog gateway:
// product snapshots (price, stock ceiling, promotions) are kept in
// Redis under a TTL so cart reads do not hammer the catalog service.
// Cache failures degrade to the upstream gateway, never to an error.
type CatalogCache struct {
	client   *redis.Client
	upstream ports.CatalogGateway
	ttl      time.Duration
	logger   *logger.Logger
}

var _ ports.CatalogGateway = (*CatalogCache)(nil)

func NewCatalogCache(conn *Connection, upstream ports.CatalogGateway, ttl time.Duration, log *logger.Logger) *CatalogCache {
	return &CatalogCache{
		client:   monitoring.InstrumentRedisClient(conn.GetClient()),
		upstream: upstream,
		ttl:      ttl,
		logger:   log,
	}
}

func (c *CatalogCache) GetProduct(ctx context.Context, productID string) (*ports.ProductSnapshot, error) {
	key := snapshotKey(productID)

	raw, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var snapshot ports.ProductSnapshot
		if unmarshalErr := json.Unmarshal([]byte(raw), &snapshot); unmarshalErr == nil {
			monitoring.RecordCatalogCache(true)
			return &snapshot, nil
		}
		// Corrupt entry: drop it and fall through to the gateway.
		c.client.Del(ctx, key)
	} else if err != redis.Nil {
		c.logger.Warn("Catalog cache read failed", "error", err, "product_id", productID)
	}

	monitoring.RecordCatalogCache(false)
	snapshot, err := c.upstream.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if setErr := c.SetProduct(ctx, snapshot, c.ttl); setErr != nil {
		c.logger.Warn("Catalog cache write failed", "error", setErr, "product_id", productID)
	}
	return snapshot, nil
}

func (c *CatalogCache) SetProduct(ctx context.Context, snapshot *ports.ProductSnapshot, expiration time.Duration) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, snapshotKey(snapshot.ProductID), raw, expiration).Err()
}

func snapshotKey(productID string) string {
	return fmt.Sprintf("catalog:product:%s", productID)
}
