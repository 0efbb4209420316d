// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package compiler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"themeforge/internal/metrics"
	"themeforge/internal/models"
)

// ErrWorkerStopped is reported by Compile after Stop has been called.
var ErrWorkerStopped = errors.New("compile worker stopped")

// Result is the outcome of one compile job. A failed job carries a message
// in Error and empty CSS and Hash.
type Result struct {
	ID    string `json:"id"`
	CSS   string `json:"css"`
	Hash  string `json:"hash"`
	Error string `json:"error,omitempty"`
}

type job struct {
	id    string
	theme models.ThemeConfig
	reply chan Result
}

// Worker compiles drafts off the request goroutine. A fixed number of
// goroutines read from a shared job queue.
type Worker struct {
	size    int
	jobs    chan job
	quit    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
	metrics *metrics.Metrics
	compile func(models.ThemeConfig) Artifact
}

// NewWorker returns a worker with size goroutines. Call Start before
// submitting jobs.
func NewWorker(size int, m *metrics.Metrics) *Worker {
	if size < 1 {
		size = 1
	}
	return &Worker{
		size:    size,
		jobs:    make(chan job, size*4),
		quit:    make(chan struct{}),
		metrics: m,
		compile: Compile,
	}
}

// Start launches the worker goroutines.
func (w *Worker) Start() {
	slog.Info("compile worker starting", "workers", w.size)
	for i := 1; i <= w.size; i++ {
		w.wg.Add(1)
		go w.loop(i)
	}
}

func (w *Worker) loop(n int) {
	defer w.wg.Done()
	for {
		select {
		case j := <-w.jobs:
			j.reply <- w.run(n, j)
		case <-w.quit:
			return
		}
	}
}

// run compiles one job. A panic in the compiler is turned into a failed
// Result so it never takes down the goroutine or the caller.
func (w *Worker) run(n int, j job) (res Result) {
	start := time.Now()
	res.ID = j.id
	defer func() {
		if r := recover(); r != nil {
			slog.Error("compile job panicked", "worker", n, "job", j.id, "panic", r)
			res = Result{ID: j.id, Error: fmt.Sprintf("compile failed: %v", r)}
		}
		outcome := "ok"
		if res.Error != "" {
			outcome = "error"
		}
		w.metrics.Compile(outcome, time.Since(start))
	}()

	a := w.compile(j.theme)
	res.CSS = a.CSS
	res.Hash = a.Hash
	return res
}

// Compile submits the theme and waits for its result. The theme is cloned
// before it crosses the queue. Cancellation and shutdown are reported
// through Result.Error like any other failure.
func (w *Worker) Compile(ctx context.Context, theme models.ThemeConfig) Result {
	j := job{
		id:    uuid.NewString(),
		theme: theme.Clone(),
		reply: make(chan Result, 1),
	}

	stopped := Result{ID: j.id, Error: ErrWorkerStopped.Error()}
	select {
	case <-w.quit:
		return stopped
	default:
	}

	select {
	case w.jobs <- j:
	case <-w.quit:
		return stopped
	case <-ctx.Done():
		return Result{ID: j.id, Error: ctx.Err().Error()}
	}

	select {
	case res := <-j.reply:
		return res
	case <-ctx.Done():
		return Result{ID: j.id, Error: ctx.Err().Error()}
	case <-w.quit:
		// Stop waits for in-flight jobs, so a reply may still arrive.
		w.wg.Wait()
		select {
		case res := <-j.reply:
			return res
		default:
			return stopped
		}
	}
}

// Stop signals the goroutines to exit and waits for in-flight jobs.
func (w *Worker) Stop() {
	w.once.Do(func() {
		close(w.quit)
		w.wg.Wait()
		slog.Info("compile worker stopped")
	})
}
