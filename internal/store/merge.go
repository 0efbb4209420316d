// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"themeforge/internal/models"
	"themeforge/internal/validate"
)

// Merge overlays partial onto a copy of base and validates the result as a
// full document. Each section merges field by field; token maps merge key by
// key. base is never modified.
func Merge(base models.ThemeConfig, partial models.ThemeConfigPartial) (models.ThemeConfig, error) {
	out := base.Clone()

	if l := partial.Logo; l != nil {
		set(&out.Logo.Light, l.Light)
		set(&out.Logo.Dark, l.Dark)
		set(&out.Logo.LightIcon, l.LightIcon)
		set(&out.Logo.DarkIcon, l.DarkIcon)
		set(&out.Logo.Alt, l.Alt)
		set(&out.Logo.ETag, l.ETag)
		if l.Width != nil {
			w := *l.Width
			out.Logo.Width = &w
		}
		if l.Height != nil {
			h := *l.Height
			out.Logo.Height = &h
		}
		if l.UpdatedAt != nil {
			at := *l.UpdatedAt
			out.Logo.UpdatedAt = &at
		}
	}

	if f := partial.Fonts; f != nil {
		mergeFont(&out.Fonts.Sans, f.Sans)
		mergeFont(&out.Fonts.Mono, f.Mono)
	}

	if v := partial.CSSVars; v != nil {
		out.CSSVars.Light = mergeVars(out.CSSVars.Light, v.Light)
		out.CSSVars.Dark = mergeVars(out.CSSVars.Dark, v.Dark)
	}

	if m := partial.Metadata; m != nil {
		set(&out.Metadata.Version, m.Version)
		set(&out.Metadata.UpdatedBy, m.UpdatedBy)
		set(&out.Metadata.UpdatedAt, m.UpdatedAt)
		set(&out.Metadata.PreviewHash, m.PreviewHash)
	}

	if err := validate.Theme(out); err != nil {
		return models.ThemeConfig{}, err
	}
	return out, nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func mergeFont(dst *models.Font, p *models.FontPartial) {
	if p == nil {
		return
	}
	set(&dst.Family, p.Family)
	set(&dst.Source, p.Source)
	set(&dst.URL, p.URL)
	set(&dst.Preload, p.Preload)
	if p.Weights != nil {
		dst.Weights = append([]int(nil), p.Weights...)
	}
}

func mergeVars(dst, patch map[string]string) map[string]string {
	if len(patch) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]string, len(patch))
	}
	for k, v := range patch {
		dst[k] = v
	}
	return dst
}
