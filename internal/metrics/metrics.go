// Package metrics exposes Prometheus instruments for the theme repository,
// the preview cache, the compile worker, the shared compiled-CSS cache and
// the HTTP surface.
// A nil *Metrics is valid and records nothing, so components can be built
// without instrumentation in tests.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "themeforge"

// Theme read outcomes.
const (
	ReadDBHit           = "db_hit"
	ReadFallbackEmpty   = "fallback_empty"
	ReadFallbackInvalid = "fallback_invalid"
	ReadFallbackError   = "fallback_error"
)

// Theme write outcomes.
const (
	WriteCommitted = "committed"
	WriteConflict  = "conflict"
	WriteInvalid   = "invalid"
	WriteError     = "error"
)

// Preview cache outcomes.
const (
	PreviewHit     = "hit"
	PreviewMiss    = "miss"
	PreviewExpired = "expired"
	PreviewSet     = "set"
	PreviewExisted = "existed"
	PreviewAbsent  = "absent"
)

// Metrics holds every instrument. Build it with New.
type Metrics struct {
	themeReads       *prometheus.HistogramVec
	themeReadRows    *prometheus.CounterVec
	themeWrites      *prometheus.CounterVec
	previewOps       *prometheus.CounterVec
	previewRemaining prometheus.Histogram
	previewEntries   prometheus.Gauge
	compiles         *prometheus.HistogramVec
	cssCache         *prometheus.CounterVec
	httpRequests     *prometheus.HistogramVec
}

// New creates the instruments and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		themeReads: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "theme_read_seconds",
			Help:      "Latency of theme reads by outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		themeReadRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "theme_read_rows_total",
			Help:      "Rows returned by theme reads, by outcome.",
		}, []string{"outcome"}),
		themeWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "theme_writes_total",
			Help:      "Theme write attempts by outcome.",
		}, []string{"outcome"}),
		previewOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "preview_operations_total",
			Help:      "Preview cache operations by op and outcome.",
		}, []string{"op", "outcome"}),
		previewRemaining: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "preview_remaining_ttl_seconds",
			Help:      "Remaining TTL of preview entries at read time.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
		}),
		previewEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "preview_entries",
			Help:      "Preview entries currently held, including expired ones not yet read.",
		}),
		compiles: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compile_seconds",
			Help:      "Compile worker job latency by outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		cssCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "css_cache_lookups_total",
			Help:      "Shared compiled-CSS cache lookups and fills by outcome.",
		}, []string{"outcome"}),
		httpRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_seconds",
			Help:      "HTTP request latency by method, route pattern and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
	}
	reg.MustRegister(
		m.themeReads, m.themeReadRows, m.themeWrites,
		m.previewOps, m.previewRemaining, m.previewEntries,
		m.compiles, m.cssCache, m.httpRequests,
	)
	return m
}

// ThemeRead records one repository read.
func (m *Metrics) ThemeRead(outcome string, d time.Duration, rows int) {
	if m == nil {
		return
	}
	m.themeReads.WithLabelValues(outcome).Observe(d.Seconds())
	m.themeReadRows.WithLabelValues(outcome).Add(float64(rows))
}

// ThemeWrite records one repository write attempt.
func (m *Metrics) ThemeWrite(outcome string) {
	if m == nil {
		return
	}
	m.themeWrites.WithLabelValues(outcome).Inc()
}

// PreviewOp records a preview cache operation.
func (m *Metrics) PreviewOp(op, outcome string) {
	if m == nil {
		return
	}
	m.previewOps.WithLabelValues(op, outcome).Inc()
}

// PreviewHit records a hit together with the entry's remaining lifetime.
func (m *Metrics) PreviewHit(remaining time.Duration) {
	if m == nil {
		return
	}
	m.previewOps.WithLabelValues("get", PreviewHit).Inc()
	m.previewRemaining.Observe(remaining.Seconds())
}

// PreviewEntries sets the current entry count.
func (m *Metrics) PreviewEntries(n int) {
	if m == nil {
		return
	}
	m.previewEntries.Set(float64(n))
}

// Compile records one compile worker job.
func (m *Metrics) Compile(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.compiles.WithLabelValues(outcome).Observe(d.Seconds())
}

// CSSCache records one shared compiled-CSS cache lookup or fill outcome.
func (m *Metrics) CSSCache(outcome string) {
	if m == nil {
		return
	}
	m.cssCache.WithLabelValues(outcome).Inc()
}

// HTTPRequest records one served request. route is the matched pattern, not
// the raw path, to keep label cardinality bounded.
func (m *Metrics) HTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
