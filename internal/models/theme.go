// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// FontSource says where a font family is loaded from.
type FontSource string

const (
	// FontSourceFontsource fonts are bundled by the host page; the compiler
	// emits nothing for them.
	FontSourceFontsource FontSource = "fontsource"
	FontSourceGoogle     FontSource = "google"
	FontSourceCustom     FontSource = "custom"
)

// ThemeConfig is the single persisted theme document. Validation rules live
// in the struct tags and in the validate package.
type ThemeConfig struct {
	Logo     Logo     `json:"logo"`
	Fonts    Fonts    `json:"fonts"`
	CSSVars  CSSVars  `json:"cssVars"`
	Metadata Metadata `json:"metadata"`
}

// Logo holds brand asset URLs. Logo slots accept http(s), root-relative,
// or embedded data:image URIs.
type Logo struct {
	Light     string     `json:"light" validate:"required,max=1048576,logourl"`
	Dark      string     `json:"dark" validate:"required,max=1048576,logourl"`
	LightIcon string     `json:"lightIcon" validate:"required,max=1048576,logourl"`
	DarkIcon  string     `json:"darkIcon" validate:"required,max=1048576,logourl"`
	Alt       string     `json:"alt" validate:"max=200"`
	Width     *int       `json:"width,omitempty" validate:"omitempty,min=1,max=4096"`
	Height    *int       `json:"height,omitempty" validate:"omitempty,min=1,max=4096"`
	ETag      string     `json:"etag,omitempty" validate:"max=200"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Fonts groups the two font slots.
type Fonts struct {
	Sans Font `json:"sans"`
	Mono Font `json:"mono"`
}

// Font describes one font family. URL is required when Source is custom;
// that rule is enforced at struct level by the validate package.
type Font struct {
	Family  string     `json:"family" validate:"required,max=100,cssvalue"`
	Source  FontSource `json:"source" validate:"required,oneof=fontsource google custom"`
	Weights []int      `json:"weights,omitempty" validate:"omitempty,max=9,dive,min=100,max=900"`
	URL     string     `json:"url,omitempty" validate:"omitempty,max=2048,asseturl"`
	Preload bool       `json:"preload"`
}

// CSSVars maps every vocabulary token to a CSS value, per color mode.
type CSSVars struct {
	Light map[string]string `json:"light" validate:"required,dive,keys,required,endkeys,required,max=200,cssvalue"`
	Dark  map[string]string `json:"dark" validate:"required,dive,keys,required,endkeys,required,max=200,cssvalue"`
}

// Metadata is the bookkeeping section. Version is the only concurrency token.
type Metadata struct {
	Version     int       `json:"version" validate:"min=1"`
	UpdatedBy   string    `json:"updatedBy" validate:"required,max=320"`
	UpdatedAt   time.Time `json:"updatedAt"`
	PreviewHash string    `json:"previewHash,omitempty" validate:"omitempty,len=16,hexadecimal"`
}

// ThemeConfigPartial is a patch document: every section and every field is
// optional. Nil means "keep the base value".
type ThemeConfigPartial struct {
	Logo     *LogoPartial     `json:"logo,omitempty"`
	Fonts    *FontsPartial    `json:"fonts,omitempty"`
	CSSVars  *CSSVarsPartial  `json:"cssVars,omitempty"`
	Metadata *MetadataPartial `json:"metadata,omitempty"`
}

// LogoPartial overrides individual Logo fields.
type LogoPartial struct {
	Light     *string    `json:"light,omitempty" validate:"omitempty,max=1048576,logourl"`
	Dark      *string    `json:"dark,omitempty" validate:"omitempty,max=1048576,logourl"`
	LightIcon *string    `json:"lightIcon,omitempty" validate:"omitempty,max=1048576,logourl"`
	DarkIcon  *string    `json:"darkIcon,omitempty" validate:"omitempty,max=1048576,logourl"`
	Alt       *string    `json:"alt,omitempty" validate:"omitempty,max=200"`
	Width     *int       `json:"width,omitempty" validate:"omitempty,min=1,max=4096"`
	Height    *int       `json:"height,omitempty" validate:"omitempty,min=1,max=4096"`
	ETag      *string    `json:"etag,omitempty" validate:"omitempty,max=200"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// FontsPartial overrides either font slot.
type FontsPartial struct {
	Sans *FontPartial `json:"sans,omitempty"`
	Mono *FontPartial `json:"mono,omitempty"`
}

// FontPartial overrides individual Font fields. Weights replaces the list.
type FontPartial struct {
	Family  *string     `json:"family,omitempty" validate:"omitempty,max=100,cssvalue"`
	Source  *FontSource `json:"source,omitempty" validate:"omitempty,oneof=fontsource google custom"`
	Weights []int       `json:"weights,omitempty" validate:"omitempty,max=9,dive,min=100,max=900"`
	URL     *string     `json:"url,omitempty" validate:"omitempty,max=2048,asseturl"`
	Preload *bool       `json:"preload,omitempty"`
}

// CSSVarsPartial may name any subset of the vocabulary, but never a token
// outside it.
type CSSVarsPartial struct {
	Light map[string]string `json:"light,omitempty" validate:"omitempty,dive,keys,required,endkeys,required,max=200,cssvalue"`
	Dark  map[string]string `json:"dark,omitempty" validate:"omitempty,dive,keys,required,endkeys,required,max=200,cssvalue"`
}

// MetadataPartial overrides Metadata fields; Version pins the expected
// stored version.
type MetadataPartial struct {
	Version     *int       `json:"version,omitempty" validate:"omitempty,min=1"`
	UpdatedBy   *string    `json:"updatedBy,omitempty" validate:"omitempty,max=320"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
	PreviewHash *string    `json:"previewHash,omitempty" validate:"omitempty,len=16,hexadecimal"`
}

// DecodeTheme parses a full theme document, rejecting unknown fields and
// trailing data.
func DecodeTheme(data []byte) (ThemeConfig, error) {
	var t ThemeConfig
	if err := decodeStrict(data, &t); err != nil {
		return ThemeConfig{}, fmt.Errorf("decode theme: %w", err)
	}
	return t, nil
}

// DecodeThemePartial parses a patch document, rejecting unknown fields.
func DecodeThemePartial(data []byte) (ThemeConfigPartial, error) {
	var p ThemeConfigPartial
	if err := decodeStrict(data, &p); err != nil {
		return ThemeConfigPartial{}, fmt.Errorf("decode theme patch: %w", err)
	}
	return p, nil
}

func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after document")
	}
	return nil
}

// Clone returns a deep copy that shares no maps, slices, or pointers with t.
func (t ThemeConfig) Clone() ThemeConfig {
	out := t
	out.Logo.Width = clonePtr(t.Logo.Width)
	out.Logo.Height = clonePtr(t.Logo.Height)
	out.Logo.UpdatedAt = clonePtr(t.Logo.UpdatedAt)
	out.Fonts.Sans.Weights = cloneInts(t.Fonts.Sans.Weights)
	out.Fonts.Mono.Weights = cloneInts(t.Fonts.Mono.Weights)
	out.CSSVars.Light = cloneVars(t.CSSVars.Light)
	out.CSSVars.Dark = cloneVars(t.CSSVars.Dark)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInts(in []int) []int {
	if in == nil {
		return nil
	}
	out := make([]int, len(in))
	copy(out, in)
	return out
}

func cloneVars(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
