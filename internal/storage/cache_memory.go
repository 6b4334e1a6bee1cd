package storage

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/user/curation-service/internal/domain"
)

// LocalPreviewCache is an in-process alternative to PreviewCache for single
// instance deployments without Redis.
type LocalPreviewCache struct {
	lru *expirable.LRU[string, domain.Preview]
}

func NewLocalPreviewCache(size int, ttl time.Duration) *LocalPreviewCache {
	return &LocalPreviewCache{lru: expirable.NewLRU[string, domain.Preview](size, nil, ttl)}
}

// Get returns a copy of the cached preview, or (nil, nil) on a miss.
func (c *LocalPreviewCache) Get(_ context.Context, rawURL string) (*domain.Preview, error) {
	p, ok := c.lru.Get(previewKey(rawURL))
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (c *LocalPreviewCache) Set(_ context.Context, rawURL string, p *domain.Preview) error {
	c.lru.Add(previewKey(rawURL), *p)
	return nil
}

func (c *LocalPreviewCache) Invalidate(_ context.Context, rawURL string) error {
	c.lru.Remove(previewKey(rawURL))
	return nil
}

func (c *LocalPreviewCache) Ping(context.Context) error {
	return nil
}
