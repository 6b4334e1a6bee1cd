package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/curation-service/internal/domain"
	"github.com/user/curation-service/pkg/utils"
)

const previewKeyPrefix = "preview:"

// PreviewCache keeps recently produced previews in Redis so repeated scrapes of
// the same URL skip the pipeline.
type PreviewCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPreviewCache(client *redis.Client, ttl time.Duration) *PreviewCache {
	return &PreviewCache{client: client, ttl: ttl}
}

func previewKey(rawURL string) string {
	return fmt.Sprintf("%s%s", previewKeyPrefix, utils.HashURL(rawURL))
}

// Get returns the cached preview, or (nil, nil) on a miss.
func (c *PreviewCache) Get(ctx context.Context, rawURL string) (*domain.Preview, error) {
	data, err := c.client.Get(ctx, previewKey(rawURL)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var p domain.Preview
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode cached preview: %w", err)
	}
	return &p, nil
}

func (c *PreviewCache) Set(ctx context.Context, rawURL string, p *domain.Preview) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.client.SetEx(ctx, previewKey(rawURL), data, c.ttl).Err()
}

// Invalidate drops a cached preview, e.g. once the article is persisted.
func (c *PreviewCache) Invalidate(ctx context.Context, rawURL string) error {
	return c.client.Del(ctx, previewKey(rawURL)).Err()
}

func (c *PreviewCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
