// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"themeforge/internal/cache"
	"themeforge/internal/compiler"
	"themeforge/internal/metrics"
	"themeforge/internal/middleware"
	"themeforge/internal/models"
	"themeforge/internal/preview"
	"themeforge/internal/store"
	"themeforge/internal/validate"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// Theme groups the public stylesheet endpoints and the admin theme API.
type Theme struct {
	themes   *store.ThemeStore
	history  *store.ThemeLogStore
	css      *cache.CSSCache
	worker   *compiler.Worker
	previews *preview.Cache
	limits   validate.Limits
}

// NewTheme creates a new Theme handler group.
func NewTheme(themes *store.ThemeStore, history *store.ThemeLogStore, css *cache.CSSCache, worker *compiler.Worker, previews *preview.Cache, limits validate.Limits) *Theme {
	return &Theme{
		themes:   themes,
		history:  history,
		css:      css,
		worker:   worker,
		previews: previews,
		limits:   limits,
	}
}

// themeResponse is returned by the read and write endpoints.
type themeResponse struct {
	Theme       models.ThemeConfig `json:"theme"`
	Hash        string             `json:"hash"`
	LastUpdated *time.Time         `json:"lastUpdated"`
}

type previewResponse struct {
	Key       string              `json:"key"`
	Hash      string              `json:"hash"`
	CSS       string              `json:"css,omitempty"`
	Theme     *models.ThemeConfig `json:"theme,omitempty"`
	ExpiresAt time.Time           `json:"expiresAt"`
}

type diagnosticsResponse struct {
	Diagnostics []validate.Diagnostic `json:"diagnostics"`
	Problems    []validate.Problem    `json:"problems"`
}

// artifact returns the compiled stylesheet of the stored theme, going
// through the shared cache. The default theme served after a failed read is
// returned but never cached.
func (h *Theme) artifact(ctx context.Context) compiler.Artifact {
	return h.css.Load(ctx, func(ctx context.Context) (compiler.Artifact, bool) {
		theme, outcome := h.themes.Read(ctx)
		return compiler.Compile(theme), outcome != metrics.ReadFallbackError
	})
}

// CSS serves the compiled theme stylesheet. A request whose hash query
// parameter matches the current hash may be cached forever; everything
// else must revalidate with the ETag.
func (h *Theme) CSS(w http.ResponseWriter, r *http.Request) {
	a := h.artifact(r.Context())

	w.Header().Set("ETag", `"`+a.Hash+`"`)
	if r.URL.Query().Get("hash") == a.Hash {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	} else {
		w.Header().Set("Cache-Control", "no-cache")
	}

	if etagMatches(r.Header.Get("If-None-Match"), a.Hash) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Write([]byte(a.CSS))
}

// Fonts returns the link elements needed to load the theme fonts.
func (h *Theme) Fonts(w http.ResponseWriter, r *http.Request) {
	theme := h.themes.Get(r.Context())
	writeJSON(w, http.StatusOK, compiler.FontLinks(theme.Fonts))
}

// PreviewCSS serves the compiled stylesheet of a live preview. Preview
// stylesheets are never cached.
func (h *Theme) PreviewCSS(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}
	draft, ok := h.previews.Get(key)
	if !ok {
		writeError(w, http.StatusNotFound, "preview not found")
		return
	}

	a := compiler.Compile(draft)
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("ETag", `"`+a.Hash+`"`)
	w.Write([]byte(a.CSS))
}

// Get returns the stored theme with its stylesheet hash.
func (h *Theme) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	theme := h.themes.Get(ctx)
	writeJSON(w, http.StatusOK, h.response(ctx, theme))
}

func (h *Theme) response(ctx context.Context, theme models.ThemeConfig) themeResponse {
	resp := themeResponse{Theme: theme, Hash: compiler.HashTheme(theme)}
	at, ok, err := h.themes.LastUpdated(ctx)
	if err != nil {
		slog.Warn("theme last updated lookup failed", "error", err)
	}
	if ok {
		resp.LastUpdated = &at
	}
	return resp
}

// Update replaces the theme. The body's metadata.version must be the
// version the editor started from.
func (h *Theme) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data, ok := readBody(w, r)
	if !ok {
		return
	}
	theme, err := models.DecodeTheme(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if diags := validate.Diagnose(theme, h.limits); len(diags) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "theme exceeds limits", Diagnostics: diags})
		return
	}

	saved, err := h.themes.Update(ctx, theme, actor(ctx))
	if err != nil {
		writeStoreError(w, "update", err)
		return
	}
	h.committed(ctx, store.ActionUpdate, saved)
	writeJSON(w, http.StatusOK, h.response(ctx, saved))
}

// Patch applies a partial document to the stored theme.
func (h *Theme) Patch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data, ok := readBody(w, r)
	if !ok {
		return
	}
	partial, err := models.DecodeThemePartial(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Partial(partial); err != nil {
		writeStoreError(w, "patch", err)
		return
	}

	// Soft limits apply to the merged document, not the patch. The merged
	// document is what gets written; its version pins the snapshot it was
	// built from, so a commit in between surfaces as a conflict.
	merged, err := store.Merge(h.themes.Get(ctx), partial)
	if err != nil {
		writeStoreError(w, "patch", err)
		return
	}
	if diags := validate.Diagnose(merged, h.limits); len(diags) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "theme exceeds limits", Diagnostics: diags})
		return
	}

	saved, err := h.themes.Update(ctx, merged, actor(ctx))
	if err != nil {
		writeStoreError(w, "patch", err)
		return
	}
	h.committed(ctx, store.ActionPatch, saved)
	writeJSON(w, http.StatusOK, h.response(ctx, saved))
}

// Reset deletes the stored theme so reads fall back to the default.
func (h *Theme) Reset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.themes.Reset(ctx); err != nil {
		writeStoreError(w, "reset", err)
		return
	}
	def := models.DefaultTheme()
	h.committed(ctx, store.ActionReset, def)
	writeJSON(w, http.StatusOK, themeResponse{Theme: def, Hash: compiler.HashTheme(def)})
}

// committed drops the shared stylesheet and records the change.
func (h *Theme) committed(ctx context.Context, action string, theme models.ThemeConfig) {
	h.css.Invalidate(ctx)
	h.history.Log(ctx, action, theme.Metadata.Version, actor(ctx), compiler.HashTheme(theme))
}

// Diagnostics reports every soft-limit and schema problem of a draft
// without saving it.
func (h *Theme) Diagnostics(w http.ResponseWriter, r *http.Request) {
	data, ok := readBody(w, r)
	if !ok {
		return
	}
	draft, err := models.DecodeTheme(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := diagnosticsResponse{
		Diagnostics: validate.Diagnose(draft, h.limits),
		Problems:    []validate.Problem{},
	}
	if resp.Diagnostics == nil {
		resp.Diagnostics = []validate.Diagnostic{}
	}
	if err := validate.Theme(draft); err != nil {
		var verr *validate.Error
		if !errors.As(err, &verr) {
			slog.Error("theme diagnostics failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		resp.Problems = verr.Problems
	}
	writeJSON(w, http.StatusOK, resp)
}

// PreviewSet compiles a draft on the worker pool and stores it as the
// session's live preview.
func (h *Theme) PreviewSet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data, ok := readBody(w, r)
	if !ok {
		return
	}
	draft, err := models.DecodeTheme(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Theme(draft); err != nil {
		writeStoreError(w, "preview", err)
		return
	}

	res := h.worker.Compile(ctx, draft)
	if res.Error != "" {
		slog.Error("preview compile failed", "job", res.ID, "error", res.Error)
		status := http.StatusInternalServerError
		if res.Error == compiler.ErrWorkerStopped.Error() || ctx.Err() != nil {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, "preview could not be compiled")
		return
	}

	draft.Metadata.PreviewHash = res.Hash
	key := previewKey(ctx)
	expiresAt := h.previews.Set(key, draft, 0)
	writeJSON(w, http.StatusOK, previewResponse{Key: key, Hash: res.Hash, CSS: res.CSS, ExpiresAt: expiresAt})
}

// PreviewGet returns the session's current preview draft.
func (h *Theme) PreviewGet(w http.ResponseWriter, r *http.Request) {
	key := previewKey(r.Context())
	draft, ok := h.previews.Get(key)
	if !ok {
		writeError(w, http.StatusNotFound, "preview not found")
		return
	}
	expiresAt, _ := h.previews.ExpiresAt(key)
	writeJSON(w, http.StatusOK, previewResponse{
		Key:       key,
		Hash:      draft.Metadata.PreviewHash,
		Theme:     &draft,
		ExpiresAt: expiresAt,
	})
}

// PreviewClear discards the session's preview.
func (h *Theme) PreviewClear(w http.ResponseWriter, r *http.Request) {
	h.previews.Clear(previewKey(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

// History lists recent theme changes, newest first.
func (h *Theme) History(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	entries, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		slog.Error("theme history failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if entries == nil {
		entries = []store.ThemeLogEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// actor names the editor for metadata.updatedBy and the change log.
func actor(ctx context.Context) string {
	if sess := middleware.SessionFromCtx(ctx); sess != nil && sess.Email != "" {
		return sess.Email
	}
	return "unknown"
}

// previewKey derives the session's preview key. The session ID itself is a
// credential and must not appear in stylesheet URLs.
func previewKey(ctx context.Context) string {
	id := ""
	if sess := middleware.SessionFromCtx(ctx); sess != nil {
		id = sess.ID
	}
	sum := sha256.Sum256([]byte("preview:" + id))
	return hex.EncodeToString(sum[:16])
}

// etagMatches reports whether an If-None-Match header names hash.
func etagMatches(header, hash string) bool {
	if header == "" {
		return false
	}
	for _, tag := range strings.Split(header, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "*" {
			return true
		}
		tag = strings.TrimPrefix(tag, "W/")
		if strings.Trim(tag, `"`) == hash {
			return true
		}
	}
	return false
}
