package application

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/example/calendar-share/internal/sharelink"
)

// CachedResolver memoizes successful resolutions for a bounded time. Cache
// keys are secret digests, so raw secrets never stay in memory. Failures are
// not cached.
type CachedResolver struct {
	next     ShareResolver
	cache    *expirable.LRU[string, ShareTarget]
	recorder FeedRecorder
}

// NewCachedResolver wraps next with an LRU of at most size entries that
// expire after ttl.
func NewCachedResolver(next ShareResolver, size int, ttl time.Duration, recorder FeedRecorder) *CachedResolver {
	if size <= 0 {
		size = 1024
	}
	return &CachedResolver{
		next:     next,
		cache:    expirable.NewLRU[string, ShareTarget](size, nil, ttl),
		recorder: defaultRecorder(recorder),
	}
}

// Resolve implements ShareResolver.
func (c *CachedResolver) Resolve(ctx context.Context, secret string) (ShareTarget, error) {
	if c == nil || c.next == nil {
		return ShareTarget{}, errors.New("CachedResolver is not configured")
	}

	key := sharelink.Digest(secret)
	if target, ok := c.cache.Get(key); ok {
		c.recorder.RecordResolution(ctx, StageCache, ResultHit)
		return target, nil
	}
	c.recorder.RecordResolution(ctx, StageCache, ResultMiss)

	target, err := c.next.Resolve(ctx, secret)
	if err != nil {
		return ShareTarget{}, err
	}
	c.cache.Add(key, target)
	return target, nil
}

// Purge drops every cached resolution.
func (c *CachedResolver) Purge() {
	if c != nil && c.cache != nil {
		c.cache.Purge()
	}
}
