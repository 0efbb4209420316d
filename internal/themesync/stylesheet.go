// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package themesync

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxStylesheetBytes bounds how much of a stylesheet response is read.
const maxStylesheetBytes = 1 << 20

// StyleElement is the managed <style> element holding the compiled theme.
// Hash returns the marker recorded with its current content.
type StyleElement interface {
	Hash() string
	Replace(css, hash string)
}

// Stylesheet revalidates a StyleElement against the server's compiled CSS.
type Stylesheet struct {
	baseURL string
	client  *http.Client
	element StyleElement
}

// NewStylesheet returns a revalidator fetching from baseURL. A nil client
// uses one with a 10 second timeout.
func NewStylesheet(baseURL string, element StyleElement, client *http.Client) *Stylesheet {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Stylesheet{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		element: element,
	}
}

// Revalidate requests the stylesheet for hash, sending the element's marker
// as If-None-Match. The element is left untouched when the server answers
// 304 or returns an ETag equal to the marker. It reports whether the
// element was replaced.
func (s *Stylesheet) Revalidate(ctx context.Context, hash string) (bool, error) {
	u := s.baseURL + "/api/theme.css?hash=" + url.QueryEscape(hash)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Errorf("build stylesheet request: %w", err)
	}
	req.Header.Set("Accept", "text/css")

	current := s.element.Hash()
	if current != "" {
		req.Header.Set("If-None-Match", `"`+current+`"`)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("fetch stylesheet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("fetch stylesheet: unexpected status %d", resp.StatusCode)
	}

	etag := NormalizeETag(resp.Header.Get("ETag"))
	if etag != "" && etag == current {
		return false, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxStylesheetBytes+1))
	if err != nil {
		return false, fmt.Errorf("read stylesheet: %w", err)
	}
	if len(body) > maxStylesheetBytes {
		return false, fmt.Errorf("read stylesheet: body exceeds %d bytes", maxStylesheetBytes)
	}

	marker := etag
	if marker == "" {
		marker = hash
	}
	s.element.Replace(string(body), marker)
	slog.Debug("theme stylesheet replaced", "hash", marker, "bytes", len(body))
	return true, nil
}

// NormalizeETag strips the weak prefix and surrounding quotes.
func NormalizeETag(etag string) string {
	etag = strings.TrimSpace(etag)
	etag = strings.TrimPrefix(etag, "W/")
	return strings.Trim(etag, `"`)
}
