package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"themeforge/internal/models"
)

// Seed stores the default theme as version 1 when no theme row exists, so a
// fresh development database serves a committed theme instead of the
// in-memory fallback. An existing row is never touched.
func Seed(ctx context.Context, db *sql.DB) error {
	payload, err := json.Marshal(models.DefaultTheme())
	if err != nil {
		return fmt.Errorf("seed encode theme: %w", err)
	}

	res, err := db.ExecContext(ctx, `
		INSERT INTO site_settings (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO NOTHING
	`, models.ThemeSettingKey, string(payload), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("seed insert theme: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		slog.Info("theme already present, skipping seed")
		return nil
	}
	slog.Info("database seeded with default theme", "version", 1)
	return nil
}
