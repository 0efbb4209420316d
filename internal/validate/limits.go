// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package validate

import (
	"encoding/json"
	"fmt"

	"themeforge/internal/models"
)

// Code identifies a kind of soft-limit or vocabulary diagnostic.
type Code string

const (
	CodePayloadTooLarge    Code = "PAYLOAD_TOO_LARGE"
	CodeTokenLimitExceeded Code = "TOKEN_LIMIT_EXCEEDED"
	CodeLogoTooLarge       Code = "LOGO_TOO_LARGE"
	CodeTokenMissing       Code = "TOKEN_MISSING"
	CodeTokenUnknown       Code = "TOKEN_UNKNOWN"
)

// Diagnostic is a single soft-limit finding.
type Diagnostic struct {
	Code   Code   `json:"code"`
	Detail string `json:"detail"`
}

// Limits bounds the size of a theme document.
type Limits struct {
	MaxPayloadBytes int
	MaxLogoBytes    int
}

// DefaultLimits are applied by the HTTP layer before any write.
var DefaultLimits = Limits{
	MaxPayloadBytes: 256 << 10,
	MaxLogoBytes:    128 << 10,
}

// Diagnose collects every soft-limit and vocabulary problem in t. It never
// stops at the first finding. An empty result means the document is within
// limits; it does not imply the document passes Theme.
func Diagnose(t models.ThemeConfig, limits Limits) []Diagnostic {
	var out []Diagnostic

	if data, err := json.Marshal(t); err == nil && len(data) > limits.MaxPayloadBytes {
		out = append(out, Diagnostic{
			Code:   CodePayloadTooLarge,
			Detail: fmt.Sprintf("serialized theme is %d bytes (limit %d)", len(data), limits.MaxPayloadBytes),
		})
	}

	out = append(out, diagnoseMode("light", t.CSSVars.Light)...)
	out = append(out, diagnoseMode("dark", t.CSSVars.Dark)...)

	logos := []struct {
		slot string
		uri  string
	}{
		{"light", t.Logo.Light},
		{"dark", t.Logo.Dark},
		{"lightIcon", t.Logo.LightIcon},
		{"darkIcon", t.Logo.DarkIcon},
	}
	for _, l := range logos {
		if IsDataURI(l.uri) && len(l.uri) > limits.MaxLogoBytes {
			out = append(out, Diagnostic{
				Code:   CodeLogoTooLarge,
				Detail: fmt.Sprintf("%s logo data URI is %d bytes (limit %d)", l.slot, len(l.uri), limits.MaxLogoBytes),
			})
		}
	}
	return out
}

func diagnoseMode(mode string, vars map[string]string) []Diagnostic {
	var out []Diagnostic
	if len(vars) > models.TokenCount() {
		out = append(out, Diagnostic{
			Code:   CodeTokenLimitExceeded,
			Detail: fmt.Sprintf("%s defines %d tokens (limit %d)", mode, len(vars), models.TokenCount()),
		})
	}
	for _, name := range missingTokens(vars) {
		out = append(out, Diagnostic{Code: CodeTokenMissing, Detail: mode + ": " + name})
	}
	for _, name := range unknownTokens(vars) {
		out = append(out, Diagnostic{Code: CodeTokenUnknown, Detail: mode + ": " + name})
	}
	return out
}
