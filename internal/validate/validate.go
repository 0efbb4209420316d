// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package validate enforces the structural rules of theme documents. Full
// documents must define exactly the token vocabulary for both color modes;
// partial documents (patches) may name any subset of it. Soft limits are
// checked separately by Diagnose so callers can report every problem at once.
package validate

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"themeforge/internal/models"
)

// ErrInvalid is matched by every *Error via errors.Is.
var ErrInvalid = errors.New("invalid theme document")

// Problem is one rule violation, addressed by its JSON path.
type Problem struct {
	Field  string `json:"field"`
	Rule   string `json:"rule"`
	Detail string `json:"detail,omitempty"`
}

// Error carries every problem found in a document.
type Error struct {
	Problems []Problem
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		s := p.Field + ": " + p.Rule
		if p.Detail != "" {
			s += " (" + p.Detail + ")"
		}
		parts = append(parts, s)
	}
	return "invalid theme document: " + strings.Join(parts, "; ")
}

func (e *Error) Is(target error) bool { return target == ErrInvalid }

var (
	once     sync.Once
	instance *validator.Validate
)

// engine returns the shared validator with the theme rules registered.
func engine() *validator.Validate {
	once.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(jsonName)
		mustRegister(v, "asseturl", func(fl validator.FieldLevel) bool { return IsAssetURL(fl.Field().String()) })
		mustRegister(v, "logourl", func(fl validator.FieldLevel) bool { return IsLogoURL(fl.Field().String()) })
		mustRegister(v, "cssvalue", func(fl validator.FieldLevel) bool { return IsCSSValue(fl.Field().String()) })
		v.RegisterStructValidation(fontRules, models.Font{})
		v.RegisterStructValidation(cssVarsRules, models.CSSVars{})
		v.RegisterStructValidation(cssVarsPartialRules, models.CSSVarsPartial{})
		v.RegisterStructValidation(metadataRules, models.Metadata{})
		instance = v
	})
	return instance
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// Theme validates a full theme document.
func Theme(t models.ThemeConfig) error {
	return check(engine().Struct(t))
}

// Partial validates a patch document.
func Partial(p models.ThemeConfigPartial) error {
	return check(engine().Struct(p))
}

func check(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate theme: %w", err)
	}
	problems := make([]Problem, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, Problem{
			Field:  trimRoot(fe.Namespace()),
			Rule:   fe.Tag(),
			Detail: fe.Param(),
		})
	}
	return &Error{Problems: problems}
}

// trimRoot drops the Go type name that prefixes every namespace.
func trimRoot(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

func fontRules(sl validator.StructLevel) {
	f := sl.Current().Interface().(models.Font)
	if f.Source == models.FontSourceCustom && f.URL == "" {
		sl.ReportError(f.URL, "url", "URL", "required_for_custom", "")
	}
}

func cssVarsRules(sl validator.StructLevel) {
	cv := sl.Current().Interface().(models.CSSVars)
	reportTokenSet(sl, cv.Light, "light", "Light", true)
	reportTokenSet(sl, cv.Dark, "dark", "Dark", true)
}

func cssVarsPartialRules(sl validator.StructLevel) {
	cv := sl.Current().Interface().(models.CSSVarsPartial)
	reportTokenSet(sl, cv.Light, "light", "Light", false)
	reportTokenSet(sl, cv.Dark, "dark", "Dark", false)
}

// reportTokenSet flags tokens outside the vocabulary and, when complete is
// set, vocabulary tokens the mode does not define.
func reportTokenSet(sl validator.StructLevel, vars map[string]string, field, structField string, complete bool) {
	if vars == nil {
		return
	}
	for _, name := range unknownTokens(vars) {
		sl.ReportError(vars, field, structField, "unknown_token", name)
	}
	if !complete {
		return
	}
	for _, name := range missingTokens(vars) {
		sl.ReportError(vars, field, structField, "missing_token", name)
	}
}

func metadataRules(sl validator.StructLevel) {
	m := sl.Current().Interface().(models.Metadata)
	if m.UpdatedAt.IsZero() {
		sl.ReportError(m.UpdatedAt, "updatedAt", "UpdatedAt", "required", "")
	}
}

func unknownTokens(vars map[string]string) []string {
	var out []string
	for name := range vars {
		if !models.IsToken(name) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func missingTokens(vars map[string]string) []string {
	var out []string
	for _, name := range models.Tokens() {
		if _, ok := vars[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

// IsAssetURL reports whether s is an absolute http(s) URL or a root-relative
// path. Characters that could break out of a CSS url() are rejected.
func IsAssetURL(s string) bool {
	if s == "" || strings.ContainsAny(s, "\"'()\\<> \t\r\n") || hasControl(s) {
		return false
	}
	if strings.HasPrefix(s, "/") {
		return !strings.HasPrefix(s, "//")
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

var logoMediaTypes = []string{
	"data:image/png",
	"data:image/jpeg",
	"data:image/gif",
	"data:image/webp",
	"data:image/svg+xml",
}

// IsLogoURL accepts everything IsAssetURL does plus embedded data:image URIs.
func IsLogoURL(s string) bool {
	if IsDataURI(s) {
		return !hasControl(s) && strings.Contains(s, ",")
	}
	return IsAssetURL(s)
}

// IsDataURI reports whether s is an embedded image data URI.
func IsDataURI(s string) bool {
	lower := strings.ToLower(s)
	for _, prefix := range logoMediaTypes {
		if strings.HasPrefix(lower, prefix) {
			rest := lower[len(prefix):]
			return strings.HasPrefix(rest, ";") || strings.HasPrefix(rest, ",")
		}
	}
	return false
}

// IsCSSValue reports whether s can be emitted as a declaration value or a
// font family without terminating the surrounding rule.
func IsCSSValue(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	if strings.ContainsAny(s, ";{}<>") || hasControl(s) {
		return false
	}
	return !strings.Contains(s, "/*") && !strings.Contains(s, "*/")
}

func hasControl(s string) bool {
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return true
		}
	}
	return false
}
