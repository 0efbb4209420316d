// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// theme_log.go records committed theme changes for audit and debugging.
// Each entry captures the action, the resulting version, who made it and
// the hash of the CSS that became current.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Theme log actions.
const (
	ActionUpdate = "update"
	ActionPatch  = "patch"
	ActionReset  = "reset"
)

// ThemeLogEntry is one recorded theme change.
type ThemeLogEntry struct {
	ID       uuid.UUID `json:"id"`
	Action   string    `json:"action"`
	Version  int       `json:"version"`
	Actor    string    `json:"actor"`
	CSSHash  string    `json:"cssHash"`
	LoggedAt time.Time `json:"loggedAt"`
}

// ThemeLogStore handles the theme change log.
type ThemeLogStore struct {
	db *sql.DB
}

// NewThemeLogStore creates a new ThemeLogStore.
func NewThemeLogStore(db *sql.DB) *ThemeLogStore {
	return &ThemeLogStore{db: db}
}

// Log records a theme change. Failures are logged and swallowed since the
// change itself has already been committed.
func (s *ThemeLogStore) Log(ctx context.Context, action string, version int, actor, cssHash string) {
	id := uuid.New()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO theme_change_log (id, action, version, actor, css_hash)
		VALUES ($1, $2, $3, $4, $5)
	`, id, action, version, actor, cssHash)
	if err != nil {
		slog.Warn("failed to log theme change",
			"action", action,
			"version", version,
			"actor", actor,
			"error", err,
		)
		return
	}
	slog.Debug("theme change logged", "id", id, "action", action, "version", version)
}

// Recent returns the most recent changes, newest first.
func (s *ThemeLogStore) Recent(ctx context.Context, limit int) ([]ThemeLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, action, version, actor, css_hash, logged_at
		FROM theme_change_log
		ORDER BY logged_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query theme log: %w", err)
	}
	defer rows.Close()

	entries := []ThemeLogEntry{}
	for rows.Next() {
		var e ThemeLogEntry
		if err := rows.Scan(&e.ID, &e.Action, &e.Version, &e.Actor, &e.CSSHash, &e.LoggedAt); err != nil {
			return nil, fmt.Errorf("scan theme log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
