// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package compiler turns a theme document into CSS. Every function here is
// pure: the same document always yields the same bytes, and therefore the
// same hash.
package compiler

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"themeforge/internal/models"
)

const (
	googleCSSBase  = "https://fonts.googleapis.com/css2"
	googleAPIs     = "https://fonts.googleapis.com"
	googleStatic   = "https://fonts.gstatic.com"
	hashLen        = 16
	defaultWeights = "400;700"
)

// ResolvedFontLink is one <link> element a page should emit for the theme's
// fonts.
type ResolvedFontLink struct {
	Rel         string `json:"rel"`
	Href        string `json:"href"`
	CrossOrigin string `json:"crossOrigin,omitempty"`
}

// Artifact is compiled CSS together with the hash derived from it.
type Artifact struct {
	CSS  string `json:"css"`
	Hash string `json:"hash"`
}

// Compile renders the theme once and hashes that exact output.
func Compile(theme models.ThemeConfig) Artifact {
	css := CompileCSS(theme)
	return Artifact{CSS: css, Hash: HashCSS(css)}
}

// CompileCSS renders font imports followed by a :root block for the light
// palette and a .dark block for the dark palette. Tokens are written in
// vocabulary order; names outside the vocabulary are ignored.
func CompileCSS(theme models.ThemeConfig) string {
	var b strings.Builder

	seen := make(map[string]bool, 2)
	for _, f := range []models.Font{theme.Fonts.Sans, theme.Fonts.Mono} {
		u := importURL(f)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		b.WriteString(`@import url("`)
		b.WriteString(u)
		b.WriteString("\");\n")
	}

	writeBlock(&b, ":root", theme.CSSVars.Light)
	writeBlock(&b, ".dark", theme.CSSVars.Dark)
	return b.String()
}

func writeBlock(b *strings.Builder, selector string, vars map[string]string) {
	b.WriteString(selector)
	b.WriteString(" {\n")
	for _, name := range models.Tokens() {
		v, ok := vars[name]
		if !ok {
			continue
		}
		b.WriteString("  --")
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString(";\n")
	}
	b.WriteString("}\n")
}

// HashTheme returns the cache-busting hash of the theme's compiled CSS.
func HashTheme(theme models.ThemeConfig) string {
	return HashCSS(CompileCSS(theme))
}

// HashCSS returns the first 16 hex characters of the SHA-256 of css.
func HashCSS(css string) string {
	sum := sha256.Sum256([]byte(css))
	return hex.EncodeToString(sum[:])[:hashLen]
}

// FontLinks resolves the link elements needed to load both font slots,
// deduplicated by href with the first occurrence kept.
func FontLinks(fonts models.Fonts) []ResolvedFontLink {
	var links []ResolvedFontLink
	for _, f := range []models.Font{fonts.Sans, fonts.Mono} {
		switch f.Source {
		case models.FontSourceGoogle:
			links = append(links,
				ResolvedFontLink{Rel: "preconnect", Href: googleAPIs},
				ResolvedFontLink{Rel: "preconnect", Href: googleStatic, CrossOrigin: "anonymous"},
				ResolvedFontLink{Rel: "stylesheet", Href: GoogleFontURL(f)},
			)
		case models.FontSourceCustom:
			if f.URL != "" {
				links = append(links, ResolvedFontLink{Rel: "stylesheet", Href: f.URL})
			}
		}
	}

	out := make([]ResolvedFontLink, 0, len(links))
	seen := make(map[string]bool, len(links))
	for _, l := range links {
		if seen[l.Href] {
			continue
		}
		seen[l.Href] = true
		out = append(out, l)
	}
	return out
}

// GoogleFontURL builds the css2 stylesheet URL for a Google-hosted family.
// Weights are sent ascending and without repeats, which the css2 API
// requires. The family is query-escaped: spaces become '+', and characters
// such as '&' or '#' are percent-encoded so they cannot end the parameter.
func GoogleFontURL(f models.Font) string {
	weights := defaultWeights
	if len(f.Weights) > 0 {
		ws := append([]int(nil), f.Weights...)
		sort.Ints(ws)
		parts := make([]string, 0, len(ws))
		for i, w := range ws {
			if i > 0 && w == ws[i-1] {
				continue
			}
			parts = append(parts, strconv.Itoa(w))
		}
		weights = strings.Join(parts, ";")
	}
	return googleCSSBase + "?family=" + url.QueryEscape(f.Family) + ":wght@" + weights + "&display=swap"
}

func importURL(f models.Font) string {
	switch f.Source {
	case models.FontSourceGoogle:
		return GoogleFontURL(f)
	case models.FontSourceCustom:
		return f.URL
	default:
		return ""
	}
}
