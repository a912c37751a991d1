package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"github.com/lisek75/uma-food-chatbot/internal/domain"
	"github.com/lisek75/uma-food-chatbot/internal/repository"
)

const (
	itemKeyPrefix = "catalog:item:"
	menuKey       = "catalog:menu"
)

var cacheRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chatbot_catalog_cache_requests_total",
		Help: "Catalog cache lookups by key kind and result",
	},
	[]string{"kind", "result"},
)

// CatalogCache is a read-through Redis cache in front of another catalog
// repository. Redis failures are logged and served from the backing store.
type CatalogCache struct {
	next   repository.CatalogRepository
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCatalogCache wraps next with a Redis cache whose entries expire after ttl.
func NewCatalogCache(next repository.CatalogRepository, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CatalogCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogCache{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Lookup returns the catalog entry for name, filling the cache on a miss.
func (c *CatalogCache) Lookup(ctx context.Context, name string) (*domain.CatalogItem, error) {
	key := itemKeyPrefix + name

	var item domain.CatalogItem
	if c.get(ctx, "item", key, &item) {
		return &item, nil
	}

	found, err := c.next.Lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, found)
	return found, nil
}

// Menu lists every item, filling the cache on a miss.
func (c *CatalogCache) Menu(ctx context.Context) ([]domain.CatalogItem, error) {
	var items []domain.CatalogItem
	if c.get(ctx, "menu", menuKey, &items) {
		return items, nil
	}

	items, err := c.next.Menu(ctx)
	if err != nil {
		return nil, err
	}
	c.set(ctx, menuKey, items)
	return items, nil
}

// Invalidate drops every cached catalog entry.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	keys := []string{menuKey}
	iter := c.client.Scan(ctx, 0, itemKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan catalog keys: %w", err)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del catalog keys: %w", err)
	}
	return nil
}

// Ping checks connectivity to Redis.
func (c *CatalogCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *CatalogCache) get(ctx context.Context, kind, key string, dst any) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			cacheRequests.WithLabelValues(kind, "miss").Inc()
			return false
		}
		cacheRequests.WithLabelValues(kind, "error").Inc()
		c.logger.WarnContext(ctx, "catalog cache read failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		cacheRequests.WithLabelValues(kind, "error").Inc()
		c.logger.WarnContext(ctx, "discarding corrupt catalog cache entry",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return false
	}

	cacheRequests.WithLabelValues(kind, "hit").Inc()
	return true
}

func (c *CatalogCache) set(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.WarnContext(ctx, "marshal catalog cache entry", slog.String("error", err.Error()))
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "catalog cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
