// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"themeforge/internal/store"
	"themeforge/internal/validate"
)

// maxBodyBytes caps request bodies. It is well above the soft payload limit
// so oversized drafts still decode and can be reported by Diagnose.
const maxBodyBytes = 8 << 20

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error       string                `json:"error"`
	Problems    []validate.Problem    `json:"problems,omitempty"`
	Diagnostics []validate.Diagnostic `json:"diagnostics,omitempty"`
	Expected    int                   `json:"expectedVersion,omitempty"`
}

// writeJSON sends a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("encode response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// readBody reads a size-limited request body. A body over the limit yields
// a 413 and false.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "could not read request body")
		return nil, false
	}
	return data, true
}

// writeStoreError maps theme store errors onto HTTP responses.
func writeStoreError(w http.ResponseWriter, op string, err error) {
	var verr *validate.Error
	var conflict *store.ThemeVersionConflictError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "theme is invalid", Problems: verr.Problems})
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, errorBody{Error: "theme was changed by someone else", Expected: conflict.Expected})
	default:
		slog.Error("theme "+op+" failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
