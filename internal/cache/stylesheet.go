// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// stylesheet.go provides a Valkey-backed cache for generated theme CSS.
// Building the stylesheet reads every theme and the custom CSS setting, so
// the rendered text is kept in Valkey until a theme or setting changes.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// stylesheetKeyPrefix is the Valkey key prefix for cached stylesheets.
	stylesheetKeyPrefix = "css:"

	// DefaultStylesheetTTL is how long a generated stylesheet stays cached.
	DefaultStylesheetTTL = 10 * time.Minute
)

// StylesheetCache manages generated CSS in Valkey.
type StylesheetCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStylesheetCache creates a stylesheet cache backed by the given Valkey client.
func NewStylesheetCache(client *redis.Client, ttl time.Duration) *StylesheetCache {
	if ttl == 0 {
		ttl = DefaultStylesheetTTL
	}
	return &StylesheetCache{client: client, ttl: ttl}
}

// Get retrieves cached CSS for a key. Returns false on miss or error.
func (sc *StylesheetCache) Get(ctx context.Context, key string) (string, bool) {
	val, err := sc.client.Get(ctx, stylesheetKeyPrefix+key).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		slog.Warn("stylesheet cache get error", "key", key, "error", err)
		return "", false
	}
	slog.Debug("stylesheet cache hit", "key", key)
	return val, true
}

// Set stores generated CSS for a key with the configured TTL.
func (sc *StylesheetCache) Set(ctx context.Context, key, css string) {
	if err := sc.client.Set(ctx, stylesheetKeyPrefix+key, css, sc.ttl).Err(); err != nil {
		slog.Warn("stylesheet cache set error", "key", key, "error", err)
	}
}

// InvalidateAll removes every cached stylesheet by scanning for the prefix.
// Any theme or custom CSS change can affect every key.
func (sc *StylesheetCache) InvalidateAll(ctx context.Context) {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := sc.client.Scan(ctx, cursor, stylesheetKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("stylesheet cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := sc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("stylesheet cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("stylesheet cache cleared", "deleted", deleted)
	}
}

// SiteKey returns the cache key for the full site stylesheet.
func SiteKey() string {
	return "_site"
}

// ThemeKey returns the cache key for a single theme's block.
func ThemeKey(slug string) string {
	return "theme:" + slug
}
