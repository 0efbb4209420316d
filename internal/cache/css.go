// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// css.go caches the compiled CSS of the committed theme in Valkey so
// instances serve it without reading and compiling the theme row on every
// request. Writers invalidate the entry after each commit by bumping a
// generation counter; a fill only stores its result if the generation it
// started under is still current.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"themeforge/internal/compiler"
	"themeforge/internal/metrics"
)

const (
	// cssKey holds the artifact of the committed theme.
	cssKey = "theme:css:current"

	// genKey counts commits. It is never expired.
	genKey = "theme:css:gen"

	// DefaultCSSTTL bounds how long an instance can serve CSS compiled by
	// another instance if an invalidation is lost.
	DefaultCSSTTL = 10 * time.Minute
)

// CSSCache stores the current compiled-CSS artifact. A nil client disables
// the shared layer; Load then always compiles.
type CSSCache struct {
	client  *redis.Client
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
}

// NewCSSCache creates a CSS cache backed by the given Valkey client.
func NewCSSCache(client *redis.Client, ttl time.Duration, m *metrics.Metrics) *CSSCache {
	if ttl <= 0 {
		ttl = DefaultCSSTTL
	}
	return &CSSCache{client: client, ttl: ttl, metrics: m}
}

// Get returns the cached artifact. An entry whose hash does not match its
// CSS is treated as a miss.
func (c *CSSCache) Get(ctx context.Context) (compiler.Artifact, bool) {
	if c.client == nil {
		return compiler.Artifact{}, false
	}

	val, err := c.client.Get(ctx, cssKey).Bytes()
	if errors.Is(err, redis.Nil) {
		c.metrics.CSSCache("miss")
		return compiler.Artifact{}, false
	}
	if err != nil {
		slog.Warn("css cache get error", "error", err)
		c.metrics.CSSCache("error")
		return compiler.Artifact{}, false
	}

	var a compiler.Artifact
	if err := json.Unmarshal(val, &a); err != nil || a.Hash != compiler.HashCSS(a.CSS) {
		slog.Warn("css cache entry is corrupt, ignoring", "bytes", len(val))
		c.metrics.CSSCache("corrupt")
		return compiler.Artifact{}, false
	}

	c.metrics.CSSCache("hit")
	slog.Debug("css cache hit", "hash", a.Hash)
	return a, true
}

// Set stores the artifact with the configured TTL.
func (c *CSSCache) Set(ctx context.Context, a compiler.Artifact) {
	if c.client == nil {
		return
	}
	data, err := json.Marshal(a)
	if err != nil {
		slog.Warn("css cache encode error", "error", err)
		return
	}
	if err := c.client.Set(ctx, cssKey, data, c.ttl).Err(); err != nil {
		slog.Warn("css cache set error", "error", err)
	}
}

// setIfGeneration stores ARGV[2] under KEYS[2] only while KEYS[1] still
// holds ARGV[1]. A missing counter reads as "0".
var setIfGeneration = redis.NewScript(`
local cur = redis.call('GET', KEYS[1]) or '0'
if cur ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

// Invalidate advances the generation and removes the cached artifact. Fills
// that started before the call can no longer store their result.
func (c *CSSCache) Invalidate(ctx context.Context) {
	if c.client == nil {
		return
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Del(ctx, cssKey)
		return nil
	})
	if err != nil {
		slog.Warn("css cache invalidate error", "error", err)
		return
	}
	slog.Debug("css cache invalidated")
}

// generation returns the current commit counter. ok is false when it could
// not be read, in which case nothing may be stored.
func (c *CSSCache) generation(ctx context.Context) (string, bool) {
	gen, err := c.client.Get(ctx, genKey).Result()
	if errors.Is(err, redis.Nil) {
		return "0", true
	}
	if err != nil {
		slog.Warn("css cache generation error", "error", err)
		return "", false
	}
	return gen, true
}

// store writes a as the artifact of generation gen.
func (c *CSSCache) store(ctx context.Context, gen string, a compiler.Artifact) {
	data, err := json.Marshal(a)
	if err != nil {
		slog.Warn("css cache encode error", "error", err)
		return
	}
	stored, err := setIfGeneration.Run(ctx, c.client,
		[]string{genKey, cssKey}, gen, data, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		slog.Warn("css cache set error", "error", err)
		return
	}
	if stored == 0 {
		c.metrics.CSSCache("stale")
		slog.Debug("css cache fill outdated by a commit, not stored", "hash", a.Hash)
	}
}

// Fill builds the current artifact. It reports false when the artifact was
// built from a fallback that must not be shared, such as the default theme
// served because the database was unreachable.
type Fill func(context.Context) (compiler.Artifact, bool)

// Load returns the cached artifact or builds it with fill. The result is
// cached only when fill reports it as cacheable and no commit happened
// while it ran. Concurrent misses in this process share one fill.
func (c *CSSCache) Load(ctx context.Context, fill Fill) compiler.Artifact {
	if a, ok := c.Get(ctx); ok {
		return a
	}
	v, _, _ := c.group.Do(cssKey, func() (any, error) {
		if c.client == nil {
			a, _ := fill(ctx)
			return a, nil
		}
		gen, genOK := c.generation(ctx)
		a, cacheable := fill(ctx)
		if !cacheable {
			c.metrics.CSSCache("uncacheable")
			return a, nil
		}
		if genOK {
			c.store(ctx, gen, a)
		}
		return a, nil
	})
	return v.(compiler.Artifact)
}
