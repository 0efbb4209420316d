package store

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"themeforge/internal/metrics"
	"themeforge/internal/models"
	"themeforge/internal/validate"
)

var (
	selectTheme = regexp.QuoteMeta("SELECT value FROM site_settings WHERE key = $1")
	updateTheme = regexp.QuoteMeta("UPDATE site_settings SET value = $1, updated_at = $2")
	insertTheme = regexp.QuoteMeta("INSERT INTO site_settings (key, value, updated_at)")
)

func themeRow(t *testing.T, theme models.ThemeConfig) *sqlmock.Rows {
	t.Helper()
	data, err := json.Marshal(theme)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return sqlmock.NewRows([]string{"value"}).AddRow(data)
}

func TestGetOutcomes(t *testing.T) {
	stored := models.DefaultTheme()
	stored.Metadata.Version = 7
	stored.CSSVars.Light["sm-accent"] = "#123456"

	invalid := models.DefaultTheme()
	delete(invalid.CSSVars.Dark, "sm-ring")

	tests := []struct {
		name        string
		expect      func(t *testing.T, mock sqlmock.Sqlmock)
		outcome     string
		wantVersion int
		wantAccent  string
	}{
		{
			name: "stored row",
			expect: func(t *testing.T, mock sqlmock.Sqlmock) {
				mock.ExpectQuery(selectTheme).WithArgs(models.ThemeSettingKey).WillReturnRows(themeRow(t, stored))
			},
			outcome: metrics.ReadDBHit, wantVersion: 7, wantAccent: "#123456",
		},
		{
			name: "no row",
			expect: func(t *testing.T, mock sqlmock.Sqlmock) {
				mock.ExpectQuery(selectTheme).WillReturnRows(sqlmock.NewRows([]string{"value"}))
			},
			outcome: metrics.ReadFallbackEmpty, wantVersion: 1, wantAccent: "#4f46e5",
		},
		{
			name: "undecodable row",
			expect: func(t *testing.T, mock sqlmock.Sqlmock) {
				mock.ExpectQuery(selectTheme).WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(`{"logo":`)))
			},
			outcome: metrics.ReadFallbackInvalid, wantVersion: 1, wantAccent: "#4f46e5",
		},
		{
			name: "schema-invalid row",
			expect: func(t *testing.T, mock sqlmock.Sqlmock) {
				mock.ExpectQuery(selectTheme).WillReturnRows(themeRow(t, invalid))
			},
			outcome: metrics.ReadFallbackInvalid, wantVersion: 1, wantAccent: "#4f46e5",
		},
		{
			name: "database error",
			expect: func(t *testing.T, mock sqlmock.Sqlmock) {
				mock.ExpectQuery(selectTheme).WillReturnError(errors.New("connection refused"))
			},
			outcome: metrics.ReadFallbackError, wantVersion: 1, wantAccent: "#4f46e5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock, reg := mockStore(t)
			tt.expect(t, mock)

			got, outcome := s.Read(context.Background())
			if outcome != tt.outcome {
				t.Errorf("outcome: got %q, want %q", outcome, tt.outcome)
			}
			if got.Metadata.Version != tt.wantVersion {
				t.Errorf("version: got %d, want %d", got.Metadata.Version, tt.wantVersion)
			}
			if got.CSSVars.Light["sm-accent"] != tt.wantAccent {
				t.Errorf("sm-accent: got %q, want %q", got.CSSVars.Light["sm-accent"], tt.wantAccent)
			}
			if n := metricValue(t, reg, "themeforge_theme_read_seconds", tt.outcome); n != 1 {
				t.Errorf("%s reads: got %v, want 1", tt.outcome, n)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestUpdateCommitsNextVersion(t *testing.T) {
	s, mock, reg := mockStore(t)

	mock.ExpectExec(updateTheme).
		WithArgs(sqlmock.AnyArg(), fixedNow, models.ThemeSettingKey, "1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := s.Update(context.Background(), models.DefaultTheme(), "editor@example.com")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Metadata.Version != 2 {
		t.Errorf("version: got %d, want 2", got.Metadata.Version)
	}
	if got.Metadata.UpdatedBy != "editor@example.com" {
		t.Errorf("updatedBy: got %q", got.Metadata.UpdatedBy)
	}
	if !got.Metadata.UpdatedAt.Equal(fixedNow) {
		t.Errorf("updatedAt: got %v, want %v", got.Metadata.UpdatedAt, fixedNow)
	}
	if n := metricValue(t, reg, "themeforge_theme_writes_total", metrics.WriteCommitted); n != 1 {
		t.Errorf("committed writes: got %v, want 1", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpdateInsertsWhenAbsent(t *testing.T) {
	s, mock, _ := mockStore(t)

	mock.ExpectExec(updateTheme).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(insertTheme).
		WithArgs(models.ThemeSettingKey, sqlmock.AnyArg(), fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := s.Update(context.Background(), models.DefaultTheme(), "editor@example.com")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Metadata.Version != 2 {
		t.Errorf("version: got %d, want 2", got.Metadata.Version)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpdateStaleVersionConflicts(t *testing.T) {
	s, mock, reg := mockStore(t)

	mock.ExpectExec(updateTheme).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(insertTheme).WillReturnResult(sqlmock.NewResult(0, 0))

	stale := models.DefaultTheme()
	stale.Metadata.Version = 4

	_, err := s.Update(context.Background(), stale, "editor@example.com")
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
	var conflict *ThemeVersionConflictError
	if !errors.As(err, &conflict) || conflict.Expected != 4 {
		t.Errorf("expected conflict on version 4, got %#v", err)
	}
	if n := metricValue(t, reg, "themeforge_theme_writes_total", metrics.WriteConflict); n != 1 {
		t.Errorf("conflict writes: got %v, want 1", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpdateRejectsInvalidWithoutWriting(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.ThemeConfig)
	}{
		{"missing token", func(c *models.ThemeConfig) { delete(c.CSSVars.Light, "radius") }},
		{"zero version", func(c *models.ThemeConfig) { c.Metadata.Version = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock, _ := mockStore(t)
			theme := models.DefaultTheme()
			tt.mutate(&theme)

			_, err := s.Update(context.Background(), theme, "editor@example.com")
			if !errors.Is(err, validate.ErrInvalid) {
				t.Errorf("expected validation error, got %v", err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestUpdateWrapsDatabaseErrors(t *testing.T) {
	s, mock, _ := mockStore(t)
	mock.ExpectExec(updateTheme).WillReturnError(errors.New("disk full"))

	_, err := s.Update(context.Background(), models.DefaultTheme(), "editor@example.com")
	if err == nil || errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected a plain database error, got %v", err)
	}
}

// TestConcurrentWritersOneWins races two writers that both read version 1.
// The mock hands out one successful compare-and-swap; the loser must see a
// conflict rather than overwrite.
func TestConcurrentWritersOneWins(t *testing.T) {
	s, mock, _ := mockStore(t)
	mock.MatchExpectationsInOrder(false)

	mock.ExpectExec(updateTheme).WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), models.ThemeSettingKey, "1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(updateTheme).WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), models.ThemeSettingKey, "1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(insertTheme).WillReturnResult(sqlmock.NewResult(0, 0))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for _, who := range []string{"a@example.com", "b@example.com"} {
		wg.Add(1)
		go func(who string) {
			defer wg.Done()
			_, err := s.Update(context.Background(), models.DefaultTheme(), who)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrVersionConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(who)
	}
	wg.Wait()

	if wins != 1 || conflicts != 1 {
		t.Errorf("got %d wins and %d conflicts, want 1 and 1", wins, conflicts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

// TestPatchAccentEndToEnd patches one light token on a stored v1 theme.
func TestPatchAccentEndToEnd(t *testing.T) {
	s, mock, _ := mockStore(t)

	base := models.DefaultTheme()
	mock.ExpectQuery(selectTheme).WillReturnRows(themeRow(t, base))
	mock.ExpectExec(updateTheme).
		WithArgs(sqlmock.AnyArg(), fixedNow, models.ThemeSettingKey, "1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	patch, err := models.DecodeThemePartial([]byte(`{"cssVars":{"light":{"sm-accent":"#ff0000"}}}`))
	if err != nil {
		t.Fatalf("decode patch: %v", err)
	}

	got, err := s.Patch(context.Background(), patch, "editor@example.com")
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if got.Metadata.Version != 2 {
		t.Errorf("version: got %d, want 2", got.Metadata.Version)
	}
	if got.CSSVars.Light["sm-accent"] != "#ff0000" {
		t.Errorf("light sm-accent: got %q", got.CSSVars.Light["sm-accent"])
	}
	for _, tok := range models.Tokens() {
		if tok == "sm-accent" {
			continue
		}
		if got.CSSVars.Light[tok] != base.CSSVars.Light[tok] {
			t.Errorf("light %s changed: got %q, want %q", tok, got.CSSVars.Light[tok], base.CSSVars.Light[tok])
		}
	}
	if got.CSSVars.Dark["sm-accent"] != base.CSSVars.Dark["sm-accent"] {
		t.Error("dark sm-accent must not change")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPatchPinnedVersionConflicts(t *testing.T) {
	s, mock, _ := mockStore(t)

	mock.ExpectQuery(selectTheme).WillReturnRows(themeRow(t, models.DefaultTheme()))
	mock.ExpectExec(updateTheme).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), models.ThemeSettingKey, "3").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(insertTheme).WillReturnResult(sqlmock.NewResult(0, 0))

	v := 3
	_, err := s.Patch(context.Background(), models.ThemeConfigPartial{
		Metadata: &models.MetadataPartial{Version: &v},
	}, "editor@example.com")
	if !errors.Is(err, ErrVersionConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestPatchRejectsUnknownTokenBeforeReading(t *testing.T) {
	s, mock, _ := mockStore(t)

	_, err := s.Patch(context.Background(), models.ThemeConfigPartial{
		CSSVars: &models.CSSVarsPartial{Light: map[string]string{"sm-glow": "#fff"}},
	}, "editor@example.com")
	if !errors.Is(err, validate.ErrInvalid) {
		t.Errorf("expected validation error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestReset(t *testing.T) {
	s, mock, _ := mockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM site_settings WHERE key = $1")).
		WithArgs(models.ThemeSettingKey).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.Reset(context.Background()); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestLastUpdated(t *testing.T) {
	query := regexp.QuoteMeta("SELECT updated_at FROM site_settings")

	t.Run("present", func(t *testing.T) {
		s, mock, _ := mockStore(t)
		mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(fixedNow))

		at, ok, err := s.LastUpdated(context.Background())
		if err != nil || !ok || !at.Equal(fixedNow) {
			t.Errorf("got (%v, %v, %v), want (%v, true, nil)", at, ok, err, fixedNow)
		}
	})

	t.Run("absent", func(t *testing.T) {
		s, mock, _ := mockStore(t)
		mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows([]string{"updated_at"}))

		_, ok, err := s.LastUpdated(context.Background())
		if err != nil || ok {
			t.Errorf("got (ok=%v, err=%v), want (false, nil)", ok, err)
		}
	})
}

// TestThemeStoreLifecycle walks the row through absent, inserted, updated,
// conflicted and reset against a real database.
func TestThemeStoreLifecycle(t *testing.T) {
	db := testDB(t)
	s := NewThemeStore(db, nil)
	ctx := context.Background()

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	t.Cleanup(func() { s.Reset(ctx) })

	if v := s.Get(ctx).Metadata.Version; v != 1 {
		t.Fatalf("empty store version: got %d, want 1", v)
	}

	v2, err := s.Update(ctx, s.Get(ctx), "first@example.com")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if v2.Metadata.Version != 2 {
		t.Errorf("after insert: got version %d, want 2", v2.Metadata.Version)
	}

	var (
		wg      sync.WaitGroup
		results = make([]error, 2)
	)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = s.Update(ctx, v2, "racer@example.com")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case !errors.Is(err, ErrVersionConflict):
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("winners: got %d, want 1", wins)
	}
	if v := s.Get(ctx).Metadata.Version; v != 3 {
		t.Errorf("after race: got version %d, want 3", v)
	}

	at, ok, err := s.LastUpdated(ctx)
	if err != nil || !ok || time.Since(at) > time.Minute {
		t.Errorf("LastUpdated: got (%v, %v, %v)", at, ok, err)
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if v := s.Get(ctx).Metadata.Version; v != 1 {
		t.Errorf("after reset: got version %d, want 1", v)
	}
}
