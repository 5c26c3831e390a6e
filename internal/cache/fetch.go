// internal/cache/fetch.go
package cache

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "awesomehub_cache_hits_total",
			Help: "Cache-first lookups served from a cache tier.",
		},
		[]string{"tier"},
	)
	cacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "awesomehub_cache_misses_total",
			Help: "Cache-first lookups that had to invoke the producer.",
		},
	)
)

// Fetcher bundles the two cache tiers used by CacheFirst. The
// persistent tier is optional; a nil Persistent makes every lookup
// memory-only.
type Fetcher struct {
	memory     *Store
	persistent *Persistent
}

// NewFetcher creates a Fetcher. persistent may be nil.
func NewFetcher(memory *Store, persistent *Persistent) *Fetcher {
	return &Fetcher{memory: memory, persistent: persistent}
}

// Memory exposes the first tier for direct maintenance (Clear, Cleanup).
func (f *Fetcher) Memory() *Store { return f.memory }

// Persistent exposes the second tier, or nil when disabled.
func (f *Fetcher) Persistent() *Persistent { return f.persistent }

type fetchConfig struct {
	memoryOnly bool
}

// FetchOption tweaks a single CacheFirst call.
type FetchOption func(*fetchConfig)

// MemoryOnly skips the persistent tier for both lookup and write-through.
func MemoryOnly() FetchOption {
	return func(c *fetchConfig) { c.memoryOnly = true }
}

// CacheFirst returns the cached value for key if either tier holds a
// fresh one, otherwise invokes producer exactly once and writes the
// result through both tiers. A persistent-tier hit is promoted into the
// memory tier so later same-process reads skip Redis. Producer errors
// propagate unchanged and nothing is cached on failure.
//
// Concurrent misses on the same key are not coalesced: each caller runs
// its own producer and the last write wins, which is acceptable because
// producers are idempotent and the TTL bounds the redundancy.
func CacheFirst[T any](ctx context.Context, f *Fetcher, key string, ttl time.Duration, producer func(context.Context) (T, error), opts ...FetchOption) (T, error) {
	var cfg fetchConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	useSecondTier := !cfg.memoryOnly && f.persistent != nil

	if v, ok := f.memory.Get(key); ok {
		if typed, ok := v.(T); ok {
			cacheHits.WithLabelValues("memory").Inc()
			return typed, nil
		}
		// Same key cached with a different type; treat as a miss.
		f.memory.Delete(key)
	}

	if useSecondTier {
		var out T
		if f.persistent.Get(ctx, key, &out) {
			cacheHits.WithLabelValues("persistent").Inc()
			f.memory.Set(key, out, ttl)
			return out, nil
		}
	}

	cacheMisses.Inc()
	data, err := producer(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	f.memory.Set(key, data, ttl)
	if useSecondTier {
		f.persistent.Set(ctx, key, data, ttl)
	}
	return data, nil
}
