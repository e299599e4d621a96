package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	generationKey = "feed:gen"
	feedKeyPrefix = "feed:recent:"
)

// FeedCache holds the assembled post list as an opaque JSON blob, keyed by a
// generation counter. Invalidate bumps the generation, so a list read from
// the store before a mutation can only be written under a generation nobody
// reads any more. A nil client turns every call into a miss.
type FeedCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewFeedCache(rdb *redis.Client, ttl time.Duration) *FeedCache {
	return &FeedCache{rdb: rdb, ttl: ttl}
}

func feedKey(gen int64) string {
	return feedKeyPrefix + strconv.FormatInt(gen, 10)
}

func (f *FeedCache) enabled() bool {
	return f != nil && f.rdb != nil && f.ttl > 0
}

// Get returns the current generation and the feed stored under it; data is
// nil on a miss. The generation must be read before the store is queried and
// handed back to Set. Redis errors are returned so callers can log them and
// fall back to the store.
func (f *FeedCache) Get(ctx context.Context) ([]byte, int64, error) {
	if !f.enabled() {
		return nil, 0, nil
	}
	gen, err := f.rdb.Get(ctx, generationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, err
	}
	data, err := f.rdb.Get(ctx, feedKey(gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return data, gen, nil
}

func (f *FeedCache) Set(ctx context.Context, gen int64, data []byte) error {
	if !f.enabled() {
		return nil
	}
	return f.rdb.Set(ctx, feedKey(gen), data, f.ttl).Err()
}

// Invalidate retires every feed written so far. Entries of older generations
// are left to expire.
func (f *FeedCache) Invalidate(ctx context.Context) error {
	if f == nil || f.rdb == nil {
		return nil
	}
	return f.rdb.Incr(ctx, generationKey).Err()
}
