package service

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/pkg/logger"
)

// homePageKey is the single cache slot: there is exactly one cached home
// page, shared by every visitor.
const homePageKey = "page:home"

// DefaultHomeTTL is the staleness window for the home page.
const DefaultHomeTTL = 20 * time.Second

// PageCache keeps one rendered page in redis for a fixed window. Within
// the TTL every caller gets the stored bytes back verbatim, even when the
// underlying posts have changed; that staleness is intentional. Two
// near-simultaneous misses may both render (last write wins).
type PageCache struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

func NewPageCache(rdb *redis.Client, ttl time.Duration) *PageCache {
	if ttl <= 0 {
		ttl = DefaultHomeTTL
	}
	return &PageCache{rdb: rdb, key: homePageKey, ttl: ttl}
}

// GetOrRender returns the cached page, or runs render and stores the
// result. A redis outage degrades to rendering every time, not to an
// error for the visitor.
func (c *PageCache) GetOrRender(ctx context.Context, render func() ([]byte, error)) ([]byte, error) {
	data, err := c.rdb.Get(ctx, c.key).Bytes()
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, redis.Nil) {
		logger.Warn("page cache read failed", zap.Error(err))
	}

	data, err = render()
	if err != nil {
		return nil, err
	}
	if err := c.rdb.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		logger.Warn("page cache write failed", zap.Error(err))
	}
	return data, nil
}

// Clear evicts the slot; the next GetOrRender re-renders.
func (c *PageCache) Clear(ctx context.Context) error {
	return c.rdb.Del(ctx, c.key).Err()
}
