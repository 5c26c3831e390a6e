// internal/cache/persistent.go
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces our entries inside Redis so Clear and Cleanup
// never touch unrelated keys.
const KeyPrefix = "awesome-hub-cache:"

type persistedEntry struct {
	Data     json.RawMessage `json:"data"`
	StoredAt time.Time       `json:"storedAt"`
	TTL      time.Duration   `json:"ttl"`
}

// Persistent is the second cache tier, backed by Redis so entries
// survive process restarts. It never returns errors: every read or
// write failure is logged and degrades to a cache miss, so a broken
// cache can slow callers down but not fail them.
type Persistent struct {
	client *redis.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewPersistent wraps an already-connected Redis client.
func NewPersistent(client *redis.Client, logger *slog.Logger) *Persistent {
	return &Persistent{
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// Set serializes value with its freshness metadata under the prefixed
// key. The Redis expiry is set to the same TTL as a backstop; the
// envelope timestamp remains the source of truth on read.
func (p *Persistent) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		p.logger.Warn("Failed to marshal cache value", "key", key, "error", err)
		return
	}
	payload, err := json.Marshal(persistedEntry{
		Data:     data,
		StoredAt: p.now(),
		TTL:      ttl,
	})
	if err != nil {
		p.logger.Warn("Failed to marshal cache entry", "key", key, "error", err)
		return
	}
	if err := p.client.Set(ctx, KeyPrefix+key, payload, ttl).Err(); err != nil {
		p.logger.Warn("Failed to write to persistent cache", "key", key, "error", err)
	}
}

// Get reads the entry for key into dest and reports whether a fresh
// value was found. Stale and corrupted entries are removed and treated
// as absent.
func (p *Persistent) Get(ctx context.Context, key string, dest any) bool {
	payload, err := p.client.Get(ctx, KeyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			p.logger.Warn("Failed to read from persistent cache", "key", key, "error", err)
		}
		return false
	}

	var e persistedEntry
	if err := json.Unmarshal(payload, &e); err != nil {
		p.logger.Warn("Removing corrupted cache entry", "key", key, "error", err)
		p.Remove(ctx, key)
		return false
	}
	if p.now().Sub(e.StoredAt) > e.TTL {
		p.Remove(ctx, key)
		return false
	}
	if err := json.Unmarshal(e.Data, dest); err != nil {
		p.logger.Warn("Removing unreadable cache entry", "key", key, "error", err)
		p.Remove(ctx, key)
		return false
	}
	return true
}

// Has reports whether a fresh entry exists for key.
func (p *Persistent) Has(ctx context.Context, key string) bool {
	var raw json.RawMessage
	return p.Get(ctx, key, &raw)
}

// Remove deletes the entry for key, if any.
func (p *Persistent) Remove(ctx context.Context, key string) {
	if err := p.client.Del(ctx, KeyPrefix+key).Err(); err != nil {
		p.logger.Warn("Failed to remove cache entry", "key", key, "error", err)
	}
}

// Clear removes every entry under our prefix, leaving other keys in
// the same Redis database untouched.
func (p *Persistent) Clear(ctx context.Context) {
	p.scanPrefix(ctx, func(fullKey string) {
		if err := p.client.Del(ctx, fullKey).Err(); err != nil {
			p.logger.Warn("Failed to clear cache entry", "key", fullKey, "error", err)
		}
	})
}

// Cleanup sweeps stale and corrupted entries under our prefix and
// returns how many were dropped. Redis expiry usually gets there first;
// this exists for entries written with a longer Redis TTL than their
// envelope allows.
func (p *Persistent) Cleanup(ctx context.Context) int {
	removed := 0
	now := p.now()
	p.scanPrefix(ctx, func(fullKey string) {
		payload, err := p.client.Get(ctx, fullKey).Bytes()
		if err != nil {
			return
		}
		var e persistedEntry
		if err := json.Unmarshal(payload, &e); err != nil || now.Sub(e.StoredAt) > e.TTL {
			if err := p.client.Del(ctx, fullKey).Err(); err == nil {
				removed++
			}
		}
	})
	return removed
}

func (p *Persistent) scanPrefix(ctx context.Context, fn func(fullKey string)) {
	iter := p.client.Scan(ctx, 0, KeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		fn(iter.Val())
	}
	if err := iter.Err(); err != nil {
		p.logger.Warn("Failed to scan persistent cache", "error", err)
	}
}
