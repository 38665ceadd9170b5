package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	catalogKey = "csvguard:catalog:rules" // Cached rule-name list for catalog responses
	catalogTTL = 1 * time.Hour
)

// CatalogCache keeps the rule catalog in Redis so catalog reads don't touch
// the registry on every editing session.
type CatalogCache struct {
	client *redis.Client
}

// NewCatalogCache creates a new CatalogCache.
func NewCatalogCache(client *redis.Client) *CatalogCache {
	return &CatalogCache{client: client}
}

// Get returns the cached rule names, or a redis.Nil-wrapped miss.
func (c *CatalogCache) Get(ctx context.Context) ([]string, error) {
	data, err := c.client.Get(ctx, catalogKey).Result()
	if err == redis.Nil {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}

	var names []string
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}
	return names, nil
}

// Set stores the rule names with the catalog TTL.
func (c *CatalogCache) Set(ctx context.Context, names []string) error {
	data, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	if err := c.client.Set(ctx, catalogKey, data, catalogTTL).Err(); err != nil {
		return fmt.Errorf("failed to set catalog: %w", err)
	}
	return nil
}

// IsMiss reports whether err is a cache miss.
func IsMiss(err error) bool {
	return err == redis.Nil
}
