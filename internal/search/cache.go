package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedSearcher wraps a Searcher with a per-query Redis cache so repeated
// analyses of the same industry/geography don't burn provider quota.
type CachedSearcher struct {
	next   Searcher
	rdb    *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

// NewCachedSearcher creates a caching decorator around next.
func NewCachedSearcher(next Searcher, rdb *redis.Client, ttl time.Duration) *CachedSearcher {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedSearcher{
		next:   next,
		rdb:    rdb,
		ttl:    ttl,
		logger: log.New(log.Writer(), "[SEARCH-CACHE] ", log.LstdFlags),
	}
}

func cacheKey(q TaggedQuery) string {
	return fmt.Sprintf("search:%s:%s", q.Tag, q.Query)
}

// Search serves each query from cache when possible and delegates the rest
// one query at a time so individual hits and misses can be cached separately.
func (c *CachedSearcher) Search(ctx context.Context, queries []TaggedQuery) ([]ContentItem, error) {
	var out []ContentItem
	for _, q := range queries {
		key := cacheKey(q)
		if cached, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
			var items []ContentItem
			if err := json.Unmarshal(cached, &items); err == nil {
				out = append(out, items...)
				continue
			}
			// corrupt entry, fall through to a fresh search
			_ = c.rdb.Del(ctx, key).Err()
		}

		items, err := c.next.Search(ctx, []TaggedQuery{q})
		if err != nil {
			return nil, err
		}
		if encoded, err := json.Marshal(items); err == nil {
			if err := c.rdb.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
				c.logger.Printf("warn: caching %q failed: %v", q.Query, err)
			}
		}
		out = append(out, items...)
	}
	return out, nil
}
