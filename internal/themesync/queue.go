// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package themesync keeps a live style root in step with theme changes.
// VarQueue batches custom-property writes so each frame applies at most one
// pass and never rewrites an unchanged value. Stylesheet revalidates the
// compiled theme stylesheet by hash.
package themesync

import (
	"sort"
	"strings"
	"sync"

	"themeforge/internal/models"
)

// StyleTarget receives custom-property writes, typically a document's root
// element style.
type StyleTarget interface {
	SetProperty(name, value string)
}

// FrameScheduler runs fn once before the next frame. The returned cancel
// function prevents fn from running if it has not run yet.
type FrameScheduler interface {
	RequestFrame(fn func()) (cancel func())
}

// VarQueue collects variable patches and flushes them to a StyleTarget.
// Between flushes later values for the same name replace earlier ones.
type VarQueue struct {
	target    StyleTarget
	scheduler FrameScheduler

	mu          sync.Mutex
	pending     map[string]string
	lastApplied map[string]string
	cancel      func()
	scheduled   bool
	gen         uint64
}

// NewVarQueue returns a queue writing to target. A nil scheduler makes every
// Queue call flush synchronously.
func NewVarQueue(target StyleTarget, scheduler FrameScheduler) *VarQueue {
	return &VarQueue{
		target:      target,
		scheduler:   scheduler,
		pending:     make(map[string]string),
		lastApplied: make(map[string]string),
	}
}

// Queue merges patch into the pending set and makes sure one flush is
// scheduled. Names are normalized to carry a leading "--".
func (q *VarQueue) Queue(patch map[string]string) {
	if len(patch) == 0 {
		return
	}

	q.mu.Lock()
	for name, value := range patch {
		q.pending[normalize(name)] = value
	}
	if q.scheduler == nil {
		q.mu.Unlock()
		q.Flush()
		return
	}
	if q.scheduled {
		q.mu.Unlock()
		return
	}
	q.scheduled = true
	q.gen++
	gen := q.gen
	q.mu.Unlock()

	cancel := q.scheduler.RequestFrame(q.Flush)

	q.mu.Lock()
	// The frame may already have run, or been replaced by a later request.
	if q.scheduled && q.gen == gen {
		q.cancel = cancel
	}
	q.mu.Unlock()
}

// Flush writes every pending value that differs from what was last applied.
// Writes happen in name order.
func (q *VarQueue) Flush() {
	q.mu.Lock()
	q.scheduled = false
	q.cancel = nil
	if len(q.pending) == 0 {
		q.mu.Unlock()
		return
	}

	names := make([]string, 0, len(q.pending))
	for name := range q.pending {
		names = append(names, name)
	}
	sort.Strings(names)

	type write struct{ name, value string }
	writes := make([]write, 0, len(names))
	for _, name := range names {
		value := q.pending[name]
		if prev, ok := q.lastApplied[name]; ok && prev == value {
			continue
		}
		q.lastApplied[name] = value
		writes = append(writes, write{name, value})
	}
	q.pending = make(map[string]string)
	q.mu.Unlock()

	for _, w := range writes {
		q.target.SetProperty(w.name, w.value)
	}
}

// Reset cancels any scheduled flush and forgets pending and applied values,
// so the next Queue rewrites everything it names.
func (q *VarQueue) Reset() {
	q.mu.Lock()
	cancel := q.cancel
	q.cancel = nil
	q.scheduled = false
	q.pending = make(map[string]string)
	q.lastApplied = make(map[string]string)
	q.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Applied returns the value last written for name.
func (q *VarQueue) Applied(name string) (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	v, ok := q.lastApplied[normalize(name)]
	return v, ok
}

// Pending reports whether a flush is scheduled.
func (q *VarQueue) Pending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.scheduled
}

// ThemeVars returns the custom properties of one color mode ("light" or
// "dark") as a patch for Queue. Names outside the token vocabulary are
// dropped.
func ThemeVars(theme models.ThemeConfig, mode string) map[string]string {
	vars := theme.CSSVars.Light
	if mode == "dark" {
		vars = theme.CSSVars.Dark
	}
	out := make(map[string]string, len(vars))
	for name, value := range vars {
		if models.IsToken(name) {
			out["--"+name] = value
		}
	}
	return out
}

func normalize(name string) string {
	if strings.HasPrefix(name, "--") {
		return name
	}
	return "--" + name
}
