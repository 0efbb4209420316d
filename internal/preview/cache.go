// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package preview holds unsaved theme drafts for a short time so an editor
// can see them rendered without committing. Entries live only in this
// process and are copied on the way in and on the way out.
package preview

import (
	"sync"
	"time"

	"themeforge/internal/metrics"
	"themeforge/internal/models"
)

// DefaultTTL applies when Set is called with a non-positive TTL.
const DefaultTTL = 60 * time.Second

type entry struct {
	theme     models.ThemeConfig
	expiresAt time.Time
}

// Options configures a Cache. Zero values select the defaults.
type Options struct {
	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
	// DefaultTTL replaces the package default for Set calls with ttl <= 0.
	DefaultTTL time.Duration
	Metrics    *metrics.Metrics
}

// Cache maps preview keys to draft snapshots with an expiry. Expired
// entries are removed lazily when read; there is no background sweep.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]entry
	now        func() time.Time
	defaultTTL time.Duration
	metrics    *metrics.Metrics
}

// New returns an empty cache.
func New(opts Options) *Cache {
	c := &Cache{
		entries:    make(map[string]entry),
		now:        opts.Now,
		defaultTTL: opts.DefaultTTL,
		metrics:    opts.Metrics,
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.defaultTTL <= 0 {
		c.defaultTTL = DefaultTTL
	}
	return c
}

// Set stores a copy of theme under key and returns when it expires.
func (c *Cache) Set(key string, theme models.ThemeConfig, ttl time.Duration) time.Time {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	snapshot := theme.Clone()

	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(ttl)
	c.entries[key] = entry{theme: snapshot, expiresAt: expiresAt}
	c.metrics.PreviewOp("set", metrics.PreviewSet)
	c.metrics.PreviewEntries(len(c.entries))
	return expiresAt
}

// Get returns a copy of the draft stored under key. An entry whose expiry
// has been reached is deleted and reported as absent.
func (c *Cache) Get(key string) (models.ThemeConfig, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.metrics.PreviewOp("get", metrics.PreviewMiss)
		return models.ThemeConfig{}, false
	}

	now := c.now()
	if !now.Before(e.expiresAt) {
		delete(c.entries, key)
		c.metrics.PreviewOp("get", metrics.PreviewExpired)
		c.metrics.PreviewEntries(len(c.entries))
		return models.ThemeConfig{}, false
	}

	c.metrics.PreviewHit(e.expiresAt.Sub(now))
	return e.theme.Clone(), true
}

// ExpiresAt reports when the entry under key expires, without counting as
// a read. Expired entries are not removed here.
func (c *Cache) ExpiresAt(key string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expiresAt) {
		return time.Time{}, false
	}
	return e.expiresAt, true
}

// Clear removes the entry under key, if any.
func (c *Cache) Clear(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	outcome := metrics.PreviewAbsent
	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		outcome = metrics.PreviewExisted
	}
	c.metrics.PreviewOp("clear", outcome)
	c.metrics.PreviewEntries(len(c.entries))
}

// Len returns the number of stored entries, including expired ones that
// have not been read since they expired.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
