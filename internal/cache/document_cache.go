package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"snapshot-keeper/internal/store"

	"github.com/redis/go-redis/v9"
)

const documentKeyPrefix = "snapshot:doc:"

type cachedDocument struct {
	Content  []byte `json:"content"`
	Revision string `json:"revision"`
}

// DocumentCache holds recently read store documents for the read endpoints.
type DocumentCache struct {
	redis RedisClient
	ttl   time.Duration
}

func NewDocumentCache(client RedisClient, ttl time.Duration) *DocumentCache {
	return &DocumentCache{redis: client, ttl: ttl}
}

func (c *DocumentCache) Get(ctx context.Context, path string) (*store.Document, error) {
	if c.redis == nil {
		return nil, nil
	}
	data, err := c.redis.Get(ctx, documentKeyPrefix+path).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cached cachedDocument
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	return &store.Document{Path: path, Content: cached.Content, Revision: cached.Revision}, nil
}

func (c *DocumentCache) Set(ctx context.Context, doc store.Document) error {
	if c.redis == nil || c.ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(cachedDocument{Content: doc.Content, Revision: doc.Revision})
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, documentKeyPrefix+doc.Path, data, c.ttl).Err()
}

func (c *DocumentCache) Invalidate(ctx context.Context, paths ...string) error {
	if c.redis == nil || len(paths) == 0 {
		return nil
	}
	keys := make([]string, 0, len(paths))
	for _, p := range paths {
		keys = append(keys, documentKeyPrefix+p)
	}
	return c.redis.Del(ctx, keys...).Err()
}
