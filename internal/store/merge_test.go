package store

import (
	"errors"
	"testing"

	"themeforge/internal/models"
	"themeforge/internal/validate"
)

func TestMergeLeavesBaseUntouched(t *testing.T) {
	base := models.DefaultTheme()
	family := "Source Sans 3"
	alt := "Acme"

	out, err := Merge(base, models.ThemeConfigPartial{
		Logo:    &models.LogoPartial{Alt: &alt},
		Fonts:   &models.FontsPartial{Sans: &models.FontPartial{Family: &family, Weights: []int{300}}},
		CSSVars: &models.CSSVarsPartial{Dark: map[string]string{"radius": "1rem"}},
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	if out.Logo.Alt != "Acme" || out.Logo.Light != base.Logo.Light {
		t.Errorf("logo: got %+v", out.Logo)
	}
	if out.Fonts.Sans.Family != family || out.Fonts.Sans.Source != base.Fonts.Sans.Source {
		t.Errorf("sans: got %+v", out.Fonts.Sans)
	}
	if len(out.Fonts.Sans.Weights) != 1 || out.Fonts.Sans.Weights[0] != 300 {
		t.Errorf("weights: got %v, want [300]", out.Fonts.Sans.Weights)
	}
	if out.CSSVars.Dark["radius"] != "1rem" || out.CSSVars.Light["radius"] != base.CSSVars.Light["radius"] {
		t.Error("only dark radius should change")
	}

	fresh := models.DefaultTheme()
	if base.Logo.Alt != fresh.Logo.Alt || base.CSSVars.Dark["radius"] != fresh.CSSVars.Dark["radius"] {
		t.Error("base was modified")
	}
	if len(base.Fonts.Sans.Weights) != len(fresh.Fonts.Sans.Weights) {
		t.Error("base weights were modified")
	}
}

func TestMergeEmptyPartialIsIdentity(t *testing.T) {
	base := models.DefaultTheme()
	out, err := Merge(base, models.ThemeConfigPartial{})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if out.CSSVars.Light["sm-accent"] != base.CSSVars.Light["sm-accent"] || out.Metadata.Version != base.Metadata.Version {
		t.Error("empty partial changed the document")
	}
}

func TestMergeValidatesResult(t *testing.T) {
	custom := models.FontSourceCustom
	_, err := Merge(models.DefaultTheme(), models.ThemeConfigPartial{
		Fonts: &models.FontsPartial{Mono: &models.FontPartial{Source: &custom}},
	})
	if !errors.Is(err, validate.ErrInvalid) {
		t.Fatalf("expected validation error, got %v", err)
	}

	var verr *validate.Error
	if errors.As(err, &verr) && verr.Problems[0].Field != "fonts.mono.url" {
		t.Errorf("field: got %q, want fonts.mono.url", verr.Problems[0].Field)
	}
}
