package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"lingocache/internal/model"
)

// ContentLoader is the authoritative source of content items
type ContentLoader interface {
	GetContent(ctx context.Context, contentID string) (*model.ContentItem, error)
}

// ContentCache is a read-through Redis cache in front of a ContentLoader
type ContentCache struct {
	client *redis.Client
	loader ContentLoader
	ttl    time.Duration
	logger *slog.Logger
}

// NewContentCache creates a content cache
func NewContentCache(client *redis.Client, loader ContentLoader, logger *slog.Logger) *ContentCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContentCache{
		client: client,
		loader: loader,
		ttl:    time.Hour,
		logger: logger,
	}
}

func (c *ContentCache) key(contentID string) string {
	return fmt.Sprintf("content:%s", contentID)
}

// GetContent returns the cached item or loads and caches it. A Redis
// failure falls through to the loader.
func (c *ContentCache) GetContent(ctx context.Context, contentID string) (*model.ContentItem, error) {
	data, err := c.client.Get(ctx, c.key(contentID)).Result()
	if err == nil {
		var item model.ContentItem
		if err := json.Unmarshal([]byte(data), &item); err == nil {
			return &item, nil
		}
	} else if err != redis.Nil {
		c.logger.Warn("content cache read failed", "contentId", contentID, "error", err)
	}

	item, err := c.loader.GetContent(ctx, contentID)
	if err != nil || item == nil {
		return item, err
	}
	if payload, err := json.Marshal(item); err == nil {
		if err := c.client.Set(ctx, c.key(contentID), payload, c.ttl).Err(); err != nil {
			c.logger.Warn("content cache write failed", "contentId", contentID, "error", err)
		}
	}
	return item, nil
}

// ContentWriter persists content items in the source of truth
type ContentWriter interface {
	Upsert(ctx context.Context, item *model.ContentItem) error
}

// Publish writes items to the source and drops their cached copies so the
// next read sees the new reference forms.
func (c *ContentCache) Publish(ctx context.Context, w ContentWriter, items ...*model.ContentItem) error {
	for _, item := range items {
		if err := w.Upsert(ctx, item); err != nil {
			return fmt.Errorf("upsert content %s: %w", item.ContentID, err)
		}
		if err := c.Invalidate(ctx, item.ContentID); err != nil {
			c.logger.Warn("content cache invalidation failed", "contentId", item.ContentID, "error", err)
		}
	}
	return nil
}

// Invalidate drops a cached item after the source changed
func (c *ContentCache) Invalidate(ctx context.Context, contentID string) error {
	return c.client.Del(ctx, c.key(contentID)).Err()
}
