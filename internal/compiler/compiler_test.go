package compiler

import (
	"strings"
	"testing"

	"themeforge/internal/models"
)

func googleTheme() models.ThemeConfig {
	t := models.DefaultTheme()
	t.Fonts.Sans = models.Font{Family: "Open Sans", Source: models.FontSourceGoogle, Weights: []int{400, 600}}
	return t
}

func TestCompileCSSIsDeterministic(t *testing.T) {
	theme := googleTheme()
	first := CompileCSS(theme)
	for i := 0; i < 20; i++ {
		if got := CompileCSS(theme.Clone()); got != first {
			t.Fatalf("compile %d differs:\n%s\nvs\n%s", i, got, first)
		}
	}
}

// TestCompileCSSIgnoresInsertionOrder builds the same palette twice with
// different map insertion orders.
func TestCompileCSSIgnoresInsertionOrder(t *testing.T) {
	a := models.DefaultTheme()
	b := models.DefaultTheme()

	tokens := models.Tokens()
	b.CSSVars.Light = make(map[string]string, len(tokens))
	for i := len(tokens) - 1; i >= 0; i-- {
		b.CSSVars.Light[tokens[i]] = a.CSSVars.Light[tokens[i]]
	}

	if CompileCSS(a) != CompileCSS(b) {
		t.Error("output depends on map insertion order")
	}
	if HashTheme(a) != HashTheme(b) {
		t.Error("hash depends on map insertion order")
	}
}

func TestCompileCSSLayout(t *testing.T) {
	css := CompileCSS(googleTheme())

	importAt := strings.Index(css, "@import")
	rootAt := strings.Index(css, ":root {")
	darkAt := strings.Index(css, ".dark {")
	if importAt != 0 || rootAt < importAt || darkAt < rootAt {
		t.Fatalf("unexpected block order (import %d, root %d, dark %d):\n%s", importAt, rootAt, darkAt, css)
	}

	// radius sorts before every sm- token.
	root := css[rootAt:darkAt]
	if strings.Index(root, "--radius:") > strings.Index(root, "--sm-accent:") {
		t.Error("tokens are not in alphabetical order")
	}
	if !strings.Contains(root, "  --sm-accent: #4f46e5;\n") {
		t.Errorf("light accent declaration missing:\n%s", root)
	}
}

func TestCompileCSSSkipsUnknownTokens(t *testing.T) {
	theme := models.DefaultTheme()
	theme.CSSVars.Light["sm-glow"] = "red"
	if strings.Contains(CompileCSS(theme), "sm-glow") {
		t.Error("unknown token emitted")
	}
}

func TestFontImports(t *testing.T) {
	tests := []struct {
		name string
		sans models.Font
		mono models.Font
		want []string
	}{
		{
			name: "fontsource emits nothing",
			sans: models.Font{Family: "Inter", Source: models.FontSourceFontsource},
			mono: models.Font{Family: "JetBrains Mono", Source: models.FontSourceFontsource},
		},
		{
			name: "google default weights",
			sans: models.Font{Family: "Roboto Slab", Source: models.FontSourceGoogle},
			mono: models.Font{Family: "Inter", Source: models.FontSourceFontsource},
			want: []string{`@import url("https://fonts.googleapis.com/css2?family=Roboto+Slab:wght@400;700&display=swap");`},
		},
		{
			name: "custom url verbatim, sans first",
			sans: models.Font{Family: "Brand", Source: models.FontSourceCustom, URL: "/fonts/brand.css"},
			mono: models.Font{Family: "Fira Code", Source: models.FontSourceGoogle, Weights: []int{500}},
			want: []string{
				`@import url("/fonts/brand.css");`,
				`@import url("https://fonts.googleapis.com/css2?family=Fira+Code:wght@500&display=swap");`,
			},
		},
		{
			name: "identical imports once",
			sans: models.Font{Family: "Lato", Source: models.FontSourceGoogle},
			mono: models.Font{Family: "Lato", Source: models.FontSourceGoogle},
			want: []string{`@import url("https://fonts.googleapis.com/css2?family=Lato:wght@400;700&display=swap");`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			theme := models.DefaultTheme()
			theme.Fonts.Sans = tt.sans
			theme.Fonts.Mono = tt.mono

			var got []string
			for _, line := range strings.Split(CompileCSS(theme), "\n") {
				if strings.HasPrefix(line, "@import") {
					got = append(got, line)
				}
			}
			if len(got) != len(tt.want) {
				t.Fatalf("imports: got %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("import %d: got %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestGoogleFontURL(t *testing.T) {
	tests := []struct {
		name string
		font models.Font
		want string
	}{
		{
			name: "weights sorted and deduplicated",
			font: models.Font{Family: "Inter", Weights: []int{700, 400, 700}},
			want: "https://fonts.googleapis.com/css2?family=Inter:wght@400;700&display=swap",
		},
		{
			name: "default weights",
			font: models.Font{Family: "Inter"},
			want: "https://fonts.googleapis.com/css2?family=Inter:wght@400;700&display=swap",
		},
		{
			name: "spaces become plus",
			font: models.Font{Family: "Noto Sans JP", Weights: []int{300}},
			want: "https://fonts.googleapis.com/css2?family=Noto+Sans+JP:wght@300&display=swap",
		},
		{
			name: "ampersand is escaped",
			font: models.Font{Family: "Fira & Co", Weights: []int{400}},
			want: "https://fonts.googleapis.com/css2?family=Fira+%26+Co:wght@400&display=swap",
		},
		{
			name: "hash and non-ascii are escaped",
			font: models.Font{Family: "Ré#1", Weights: []int{400}},
			want: "https://fonts.googleapis.com/css2?family=R%C3%A9%231:wght@400&display=swap",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.font.Source = models.FontSourceGoogle
			if got := GoogleFontURL(tt.font); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// TestHashBinding checks the hash always belongs to the CSS it was computed
// from, and changes with any token value.
func TestHashBinding(t *testing.T) {
	theme := models.DefaultTheme()
	a := Compile(theme)
	if a.Hash != HashCSS(a.CSS) || a.Hash != HashTheme(theme) {
		t.Fatal("artifact hash does not match its CSS")
	}
	if len(a.Hash) != 16 {
		t.Errorf("hash length: got %d, want 16", len(a.Hash))
	}

	theme.CSSVars.Dark["sm-accent"] = "#000001"
	if HashTheme(theme) == a.Hash {
		t.Error("hash did not change with a token value")
	}
}

func TestFontLinks(t *testing.T) {
	fonts := models.Fonts{
		Sans: models.Font{Family: "Inter", Source: models.FontSourceGoogle},
		Mono: models.Font{Family: "Fira Code", Source: models.FontSourceGoogle},
	}
	links := FontLinks(fonts)

	// Two preconnects shared by both families, then one stylesheet each.
	if len(links) != 4 {
		t.Fatalf("links: got %d, want 4: %+v", len(links), links)
	}
	if links[0].Rel != "preconnect" || links[0].Href != "https://fonts.googleapis.com" || links[0].CrossOrigin != "" {
		t.Errorf("link 0: %+v", links[0])
	}
	if links[1].Href != "https://fonts.gstatic.com" || links[1].CrossOrigin != "anonymous" {
		t.Errorf("link 1: %+v", links[1])
	}
	if links[2].Rel != "stylesheet" || !strings.Contains(links[2].Href, "family=Inter") {
		t.Errorf("link 2: %+v", links[2])
	}
	if links[3].Rel != "stylesheet" || !strings.Contains(links[3].Href, "family=Fira+Code") {
		t.Errorf("link 3: %+v", links[3])
	}
}

func TestFontLinksCustomAndFontsource(t *testing.T) {
	links := FontLinks(models.Fonts{
		Sans: models.Font{Family: "Brand", Source: models.FontSourceCustom, URL: "https://cdn.example.com/brand.css"},
		Mono: models.Font{Family: "JetBrains Mono", Source: models.FontSourceFontsource},
	})
	if len(links) != 1 || links[0].Rel != "stylesheet" || links[0].Href != "https://cdn.example.com/brand.css" {
		t.Errorf("unexpected links: %+v", links)
	}

	if links := FontLinks(models.DefaultTheme().Fonts); links == nil || len(links) != 0 {
		t.Errorf("fontsource-only theme: got %+v, want empty slice", links)
	}
}
