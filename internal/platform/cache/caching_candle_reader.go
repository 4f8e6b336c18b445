// Package cache provides caching implementations for reader interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"futures_backend/internal/feature/market/domain/entity"
	"futures_backend/internal/feature/market/usecase"
)

// CachingCandleReader decorates a CandleReader with short-lived Redis
// caching. Chart clients poll the full candle history aggressively; a TTL of
// a few seconds absorbs those bursts while the in-memory store stays the
// source of truth. Entries are never invalidated explicitly, they just expire.
type CachingCandleReader struct {
	inner     usecase.CandleReader
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

// CachingCandleReaderがCandleReaderを実装していることをコンパイル時に検証します。
var _ usecase.CandleReader = (*CachingCandleReader)(nil)

// NewCachingCandleReader decorates a CandleReader with Redis caching.
// If ttl is 0, it defaults to 2 seconds. If namespace is empty, it uses "candles".
func NewCachingCandleReader(rdb *redis.Client, ttl time.Duration, inner usecase.CandleReader, namespace string) *CachingCandleReader {
	if ttl <= 0 {
		ttl = 2 * time.Second
	}
	if namespace == "" {
		namespace = "candles"
	}
	return &CachingCandleReader{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// Candles retrieves the candle snapshot, checking cache first then falling
// back to the inner reader.
func (c *CachingCandleReader) Candles(ctx context.Context, symbol string) ([]entity.Candle, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return c.inner.Candles(ctx, symbol)
	}

	key := c.cacheKey(symbol)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []entity.Candle
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to the in-memory store
	out, err := c.inner.Candles(ctx, symbol)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}

	return out, nil
}

// cacheKey generates a cache key for a symbol's candle snapshot.
func (c *CachingCandleReader) cacheKey(symbol string) string {
	return fmt.Sprintf("%s:%s", c.namespace, safe(symbol))
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
