// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "sort"

// TokenVocabularyVersion identifies the revision of the token list below.
// Bump it whenever a token is added, removed, or renamed.
const TokenVocabularyVersion = 1

// themeTokens is the closed set of CSS custom properties every committed
// theme must define for both light and dark mode. The compiler and the
// validator both read it through Tokens/IsToken; nothing else may list them.
var themeTokens = []string{
	"sm-background",
	"sm-foreground",
	"sm-card",
	"sm-card-foreground",
	"sm-popover",
	"sm-popover-foreground",
	"sm-primary",
	"sm-primary-foreground",
	"sm-secondary",
	"sm-secondary-foreground",
	"sm-muted",
	"sm-muted-foreground",
	"sm-accent",
	"sm-accent-foreground",
	"sm-destructive",
	"sm-destructive-foreground",
	"sm-border",
	"sm-input",
	"sm-ring",
	"sm-text",
	"sm-link",
	"sm-success",
	"sm-warning",
	"sm-header",
	"radius",
}

var (
	sortedTokens = sortTokens(themeTokens)
	tokenIndex   = indexTokens(themeTokens)
)

// Tokens returns the token vocabulary in alphabetical order. The returned
// slice is a copy; callers may modify it.
func Tokens() []string {
	out := make([]string, len(sortedTokens))
	copy(out, sortedTokens)
	return out
}

// TokenCount returns the number of tokens in the vocabulary.
func TokenCount() int {
	return len(sortedTokens)
}

// IsToken reports whether name belongs to the vocabulary.
func IsToken(name string) bool {
	_, ok := tokenIndex[name]
	return ok
}

func sortTokens(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}

func indexTokens(in []string) map[string]struct{} {
	idx := make(map[string]struct{}, len(in))
	for _, t := range in {
		idx[t] = struct{}{}
	}
	return idx
}
