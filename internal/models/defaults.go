// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// DefaultUpdatedBy marks documents that were never written by a person.
const DefaultUpdatedBy = "system"

// defaultUpdatedAt is fixed so the default theme compiles and hashes the
// same on every process.
var defaultUpdatedAt = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

var defaultLight = map[string]string{
	"sm-background":             "#ffffff",
	"sm-foreground":             "#0a0a0a",
	"sm-card":                   "#ffffff",
	"sm-card-foreground":        "#0a0a0a",
	"sm-popover":                "#ffffff",
	"sm-popover-foreground":     "#0a0a0a",
	"sm-primary":                "#171717",
	"sm-primary-foreground":     "#fafafa",
	"sm-secondary":              "#f5f5f5",
	"sm-secondary-foreground":   "#171717",
	"sm-muted":                  "#f5f5f5",
	"sm-muted-foreground":       "#737373",
	"sm-accent":                 "#4f46e5",
	"sm-accent-foreground":      "#ffffff",
	"sm-destructive":            "#dc2626",
	"sm-destructive-foreground": "#fafafa",
	"sm-border":                 "#e5e5e5",
	"sm-input":                  "#e5e5e5",
	"sm-ring":                   "#a3a3a3",
	"sm-text":                   "#171717",
	"sm-link":                   "#4338ca",
	"sm-success":                "#16a34a",
	"sm-warning":                "#d97706",
	"sm-header":                 "#ffffff",
	"radius":                    "0.5rem",
}

var defaultDark = map[string]string{
	"sm-background":             "#0a0a0a",
	"sm-foreground":             "#fafafa",
	"sm-card":                   "#171717",
	"sm-card-foreground":        "#fafafa",
	"sm-popover":                "#171717",
	"sm-popover-foreground":     "#fafafa",
	"sm-primary":                "#e5e5e5",
	"sm-primary-foreground":     "#171717",
	"sm-secondary":              "#262626",
	"sm-secondary-foreground":   "#fafafa",
	"sm-muted":                  "#262626",
	"sm-muted-foreground":       "#a3a3a3",
	"sm-accent":                 "#818cf8",
	"sm-accent-foreground":      "#0a0a0a",
	"sm-destructive":            "#f87171",
	"sm-destructive-foreground": "#0a0a0a",
	"sm-border":                 "#2e2e2e",
	"sm-input":                  "#2e2e2e",
	"sm-ring":                   "#737373",
	"sm-text":                   "#f5f5f5",
	"sm-link":                   "#a5b4fc",
	"sm-success":                "#4ade80",
	"sm-warning":                "#fbbf24",
	"sm-header":                 "#0a0a0a",
	"radius":                    "0.5rem",
}

// DefaultTheme returns the compiled-in theme used whenever no valid row is
// stored. Each call returns a fresh value.
func DefaultTheme() ThemeConfig {
	t := ThemeConfig{
		Logo: Logo{
			Light:     "/brand/logo-light.svg",
			Dark:      "/brand/logo-dark.svg",
			LightIcon: "/brand/icon-light.svg",
			DarkIcon:  "/brand/icon-dark.svg",
			Alt:       "Logo",
		},
		Fonts: Fonts{
			Sans: Font{Family: "Inter", Source: FontSourceFontsource, Weights: []int{400, 500, 600, 700}},
			Mono: Font{Family: "JetBrains Mono", Source: FontSourceFontsource, Weights: []int{400, 700}},
		},
		CSSVars: CSSVars{
			Light: defaultLight,
			Dark:  defaultDark,
		},
		Metadata: Metadata{
			Version:   1,
			UpdatedBy: DefaultUpdatedBy,
			UpdatedAt: defaultUpdatedAt,
		},
	}
	return t.Clone()
}
