package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sqlscribe/sqlscribe/internal/domain"
)

const (
	dictCachePrefix = "dict:"
	dictCacheTTL    = 10 * time.Minute
)

// DictionaryCache keeps the active field dictionary per session in Redis so
// generation calls do not hit the database on every request. The repository
// remains the source of truth; the cache is invalidated on every write.
type DictionaryCache struct {
	client *Client
}

// NewDictionaryCache creates a new dictionary cache
func NewDictionaryCache(client *Client) *DictionaryCache {
	return &DictionaryCache{client: client}
}

// Get retrieves the cached dictionary for a session
func (c *DictionaryCache) Get(ctx context.Context, sessionID uuid.UUID) (*domain.FieldDictionary, error) {
	key := fmt.Sprintf("%s%s", dictCachePrefix, sessionID.String())

	data, err := c.client.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, nil // Cache miss
	}

	var dict domain.FieldDictionary
	if err := json.Unmarshal(data, &dict); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dictionary: %w", err)
	}

	return &dict, nil
}

// Set caches the dictionary for a session
func (c *DictionaryCache) Set(ctx context.Context, sessionID uuid.UUID, dict *domain.FieldDictionary) error {
	key := fmt.Sprintf("%s%s", dictCachePrefix, sessionID.String())

	data, err := json.Marshal(dict)
	if err != nil {
		return fmt.Errorf("failed to marshal dictionary: %w", err)
	}

	return c.client.rdb.Set(ctx, key, data, dictCacheTTL).Err()
}

// Invalidate removes the cached dictionary for a session
func (c *DictionaryCache) Invalidate(ctx context.Context, sessionID uuid.UUID) error {
	key := fmt.Sprintf("%s%s", dictCachePrefix, sessionID.String())
	return c.client.rdb.Del(ctx, key).Err()
}
