package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mozillazg/go-unidecode"

	"github.com/themalagasywizard/IHUB-4.1/internal/metrics"
)

const (
	defaultHomeTTL         = 10 * time.Minute
	defaultSearchTTL       = 30 * time.Minute
	defaultCacheMaxEntries = 400
	defaultWarmInterval    = time.Minute
)

type cacheEntry[T any] struct {
	value      T
	updatedAt  time.Time
	expiresAt  time.Time
	staleUntil time.Time
	refreshing bool
}

// resultCache keeps fresh entries until expiresAt and serves stale ones until
// staleUntil while a single background refresh runs. A Redis backend, when
// set, is consulted before memory so several replicas share results.
type resultCache[T any] struct {
	name       string
	mu         sync.Mutex
	entries    map[string]*cacheEntry[T]
	ttl        time.Duration
	staleTTL   time.Duration
	maxEntries int
	clone      func(T) T
	redis      *RedisCacheBackend
}

func newResultCache[T any](name string, ttl time.Duration, clone func(T) T) *resultCache[T] {
	return &resultCache[T]{
		name:       name,
		entries:    make(map[string]*cacheEntry[T]),
		ttl:        ttl,
		staleTTL:   ttl * 3,
		maxEntries: defaultCacheMaxEntries,
		clone:      clone,
	}
}

func (c *resultCache[T]) setTTL(ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.ttl = ttl
	c.staleTTL = ttl * 3
}

// lookup returns the cached value, whether it was found and whether the
// caller should start a refresh. Only one caller per stale period is told to
// refresh.
func (c *resultCache[T]) lookup(ctx context.Context, key string, now time.Time) (T, bool, bool) {
	var zero T
	if c.redis != nil {
		var value T
		found, err := c.redis.Get(ctx, c.name+":"+key, &value)
		if err == nil && found {
			metrics.CacheHitsTotal.WithLabelValues(c.name).Inc()
			c.storeMemory(key, value, now)
			return c.clone(value), true, false
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		metrics.CacheMissesTotal.WithLabelValues(c.name).Inc()
		return zero, false, false
	}
	if now.Before(entry.expiresAt) {
		metrics.CacheHitsTotal.WithLabelValues(c.name).Inc()
		return c.clone(entry.value), true, false
	}
	if now.Before(entry.staleUntil) {
		metrics.CacheHitsTotal.WithLabelValues(c.name).Inc()
		needsRefresh := !entry.refreshing
		entry.refreshing = true
		return c.clone(entry.value), true, needsRefresh
	}

	metrics.CacheMissesTotal.WithLabelValues(c.name).Inc()
	delete(c.entries, key)
	return zero, false, false
}

func (c *resultCache[T]) store(ctx context.Context, key string, value T, now time.Time) {
	if c.redis != nil {
		_ = c.redis.Set(ctx, c.name+":"+key, value, c.ttl)
	}
	c.storeMemory(key, value, now)
}

func (c *resultCache[T]) storeMemory(key string, value T, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &cacheEntry[T]{
		value:      c.clone(value),
		updatedAt:  now,
		expiresAt:  now.Add(c.ttl),
		staleUntil: now.Add(c.staleTTL),
	}
	c.trimLocked(now)
}

func (c *resultCache[T]) clearRefreshing(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry := c.entries[key]; entry != nil {
		entry.refreshing = false
	}
}

// claimExpired reports whether key is missing or past its fresh window and not
// already being refreshed. A true result marks the entry as refreshing.
func (c *resultCache[T]) claimExpired(key string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return true
	}
	if now.Before(entry.expiresAt) || entry.refreshing {
		return false
	}
	entry.refreshing = true
	return true
}

func (c *resultCache[T]) trimLocked(now time.Time) {
	for key, entry := range c.entries {
		if now.After(entry.staleUntil) {
			delete(c.entries, key)
		}
	}
	if len(c.entries) <= c.maxEntries {
		return
	}

	type pair struct {
		key   string
		entry *cacheEntry[T]
	}
	items := make([]pair, 0, len(c.entries))
	for key, entry := range c.entries {
		items = append(items, pair{key: key, entry: entry})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].entry.updatedAt.Before(items[j].entry.updatedAt)
	})
	for i := 0; i < len(items)-c.maxEntries; i++ {
		delete(c.entries, items[i].key)
	}
}

// cachedLoad serves key from cache, loading and storing it on a miss. Stale
// hits are returned immediately and refreshed in the background.
func cachedLoad[T any](ctx context.Context, c *resultCache[T], key string, timeout time.Duration, load func(context.Context) (T, bool)) (T, bool) {
	now := time.Now()
	if cached, ok, needsRefresh := c.lookup(ctx, key, now); ok {
		if needsRefresh {
			go func() {
				refreshCtx, cancel := context.WithTimeout(context.Background(), timeout)
				defer cancel()
				value, ok := load(refreshCtx)
				if !ok {
					c.clearRefreshing(key)
					return
				}
				c.store(refreshCtx, key, value, time.Now())
			}()
		}
		return cached, true
	}

	value, ok := load(ctx)
	if ok {
		c.store(ctx, key, value, time.Now())
	}
	return value, false
}

// searchCacheKey folds a query to lowercase ASCII so that "Amélie" and
// "amelie" share an entry.
func searchCacheKey(query string) string {
	folded := unidecode.Unidecode(strings.TrimSpace(query))
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}
