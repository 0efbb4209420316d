package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPull(t *testing.T) {
	const css = ":root{--sm-accent:#4f46e5}"
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.URL.Path != "/api/theme.css" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("If-None-Match") == `"abc123"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"abc123"`)
		w.Write([]byte(css))
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "theme.css")

	got, err := run(t, "", "pull", "--server", srv.URL, "-o", out)
	if err != nil {
		t.Fatalf("first pull: %v", err)
	}
	if !strings.HasPrefix(got, "updated") {
		t.Errorf("first pull: got %q, want updated", got)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != css {
		t.Errorf("css: got %q, want %q", data, css)
	}

	got, err = run(t, "", "pull", "--server", srv.URL, "-o", out)
	if err != nil {
		t.Fatalf("second pull: %v", err)
	}
	if !strings.HasPrefix(got, "unchanged") {
		t.Errorf("second pull: got %q, want unchanged", got)
	}
	if requests != 2 {
		t.Errorf("requests: got %d, want 2", requests)
	}
}

func TestPullRequiresOutput(t *testing.T) {
	if _, err := run(t, "", "pull"); err == nil {
		t.Error("expected an error without --output")
	}
}

func TestPullServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "theme.css")
	if _, err := run(t, "", "pull", "--server", srv.URL, "-o", out); err == nil {
		t.Error("expected an error on 500")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("output should not exist after a failed pull, stat err: %v", err)
	}
}
