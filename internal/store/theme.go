// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"themeforge/internal/metrics"
	"themeforge/internal/models"
	"themeforge/internal/validate"
)

// ErrVersionConflict is matched by every *ThemeVersionConflictError.
var ErrVersionConflict = errors.New("theme version conflict")

// ThemeVersionConflictError means the stored theme moved past the version
// the writer started from. Nothing was written.
type ThemeVersionConflictError struct {
	Expected int
}

func (e *ThemeVersionConflictError) Error() string {
	return fmt.Sprintf("theme version conflict: stored version is no longer %d", e.Expected)
}

func (e *ThemeVersionConflictError) Is(target error) bool { return target == ErrVersionConflict }

// ThemeStore persists the single theme document in site_settings.
type ThemeStore struct {
	db      *sql.DB
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewThemeStore returns a ThemeStore backed by db. m may be nil.
func NewThemeStore(db *sql.DB, m *metrics.Metrics) *ThemeStore {
	return &ThemeStore{db: db, metrics: m, now: time.Now}
}

// Get returns the committed theme. A missing, undecodable or invalid row,
// and any database error, yields the default theme instead of an error.
func (s *ThemeStore) Get(ctx context.Context) models.ThemeConfig {
	theme, _ := s.Read(ctx)
	return theme
}

// Read is Get that also reports the read outcome, one of the metrics.Read*
// constants. Callers that share the result across instances must not keep
// a metrics.ReadFallbackError result.
func (s *ThemeStore) Read(ctx context.Context) (models.ThemeConfig, string) {
	start := time.Now()

	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM site_settings WHERE key = $1`, models.ThemeSettingKey,
	).Scan(&raw)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return s.fallback(metrics.ReadFallbackEmpty, start, 0), metrics.ReadFallbackEmpty
	case err != nil:
		slog.Warn("theme read failed, serving default", "error", err)
		return s.fallback(metrics.ReadFallbackError, start, 0), metrics.ReadFallbackError
	}

	theme, err := models.DecodeTheme(raw)
	if err == nil {
		err = validate.Theme(theme)
	}
	if err != nil {
		slog.Warn("stored theme is invalid, serving default", "bytes", len(raw), "error", err)
		return s.fallback(metrics.ReadFallbackInvalid, start, 1), metrics.ReadFallbackInvalid
	}

	s.metrics.ThemeRead(metrics.ReadDBHit, time.Since(start), 1)
	slog.Debug("theme read", "outcome", metrics.ReadDBHit, "version", theme.Metadata.Version)
	return theme, metrics.ReadDBHit
}

func (s *ThemeStore) fallback(outcome string, start time.Time, rows int) models.ThemeConfig {
	s.metrics.ThemeRead(outcome, time.Since(start), rows)
	slog.Debug("theme read", "outcome", outcome, "rows", rows)
	return models.DefaultTheme()
}

// Update commits theme as the next version. theme.Metadata.Version must be
// the version the caller read; the stored row is only replaced if it still
// carries that version. If no row exists yet it is inserted. Any other
// state returns a *ThemeVersionConflictError.
func (s *ThemeStore) Update(ctx context.Context, theme models.ThemeConfig, updatedBy string) (models.ThemeConfig, error) {
	prev := theme.Metadata.Version
	if prev < 1 {
		s.metrics.ThemeWrite(metrics.WriteInvalid)
		return models.ThemeConfig{}, &validate.Error{Problems: []validate.Problem{
			{Field: "metadata.version", Rule: "min", Detail: "1"},
		}}
	}

	next := theme.Clone()
	next.Metadata.Version = prev + 1
	next.Metadata.UpdatedBy = updatedBy
	next.Metadata.UpdatedAt = s.now().UTC()

	if err := validate.Theme(next); err != nil {
		s.metrics.ThemeWrite(metrics.WriteInvalid)
		return models.ThemeConfig{}, err
	}

	payload, err := json.Marshal(next)
	if err != nil {
		s.metrics.ThemeWrite(metrics.WriteError)
		return models.ThemeConfig{}, fmt.Errorf("encode theme: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE site_settings SET value = $1, updated_at = $2
		WHERE key = $3 AND value #>> '{metadata,version}' = $4`,
		string(payload), next.Metadata.UpdatedAt, models.ThemeSettingKey, strconv.Itoa(prev),
	)
	if err != nil {
		s.metrics.ThemeWrite(metrics.WriteError)
		return models.ThemeConfig{}, fmt.Errorf("update theme: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		s.metrics.ThemeWrite(metrics.WriteError)
		return models.ThemeConfig{}, fmt.Errorf("update theme: %w", err)
	} else if n == 1 {
		return s.committed(next, "update")
	}

	res, err = s.db.ExecContext(ctx, `
		INSERT INTO site_settings (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO NOTHING`,
		models.ThemeSettingKey, string(payload), next.Metadata.UpdatedAt,
	)
	if err != nil {
		s.metrics.ThemeWrite(metrics.WriteError)
		return models.ThemeConfig{}, fmt.Errorf("insert theme: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		s.metrics.ThemeWrite(metrics.WriteError)
		return models.ThemeConfig{}, fmt.Errorf("insert theme: %w", err)
	} else if n == 1 {
		return s.committed(next, "insert")
	}

	s.metrics.ThemeWrite(metrics.WriteConflict)
	slog.Info("theme write lost version race", "expected", prev, "updated_by", updatedBy)
	return models.ThemeConfig{}, &ThemeVersionConflictError{Expected: prev}
}

func (s *ThemeStore) committed(t models.ThemeConfig, path string) (models.ThemeConfig, error) {
	s.metrics.ThemeWrite(metrics.WriteCommitted)
	slog.Info("theme committed",
		"version", t.Metadata.Version,
		"updated_by", t.Metadata.UpdatedBy,
		"path", path,
	)
	return t, nil
}

// Patch applies partial on top of the current theme and commits the result.
// The read and the write are not atomic; a concurrent commit in between
// surfaces as a *ThemeVersionConflictError and is not retried. A version in
// partial.Metadata pins the expected version explicitly.
func (s *ThemeStore) Patch(ctx context.Context, partial models.ThemeConfigPartial, updatedBy string) (models.ThemeConfig, error) {
	if err := validate.Partial(partial); err != nil {
		s.metrics.ThemeWrite(metrics.WriteInvalid)
		return models.ThemeConfig{}, err
	}
	merged, err := Merge(s.Get(ctx), partial)
	if err != nil {
		s.metrics.ThemeWrite(metrics.WriteInvalid)
		return models.ThemeConfig{}, err
	}
	return s.Update(ctx, merged, updatedBy)
}

// Reset deletes the stored theme so reads fall back to the default.
func (s *ThemeStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM site_settings WHERE key = $1`, models.ThemeSettingKey,
	); err != nil {
		return fmt.Errorf("reset theme: %w", err)
	}
	slog.Info("theme reset to default")
	return nil
}

// LastUpdated returns the updated_at column of the stored row. ok is false
// when no row exists.
func (s *ThemeStore) LastUpdated(ctx context.Context) (t time.Time, ok bool, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT updated_at FROM site_settings WHERE key = $1`, models.ThemeSettingKey,
	).Scan(&t)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("theme last updated: %w", err)
	}
	return t, true, nil
}
