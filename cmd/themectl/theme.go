package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"themeforge/internal/compiler"
	"themeforge/internal/models"
	"themeforge/internal/validate"
)

// readTheme loads a theme document from path, stdin for "-", or the default
// theme when path is empty.
func readTheme(cmd *cobra.Command, path string) (models.ThemeConfig, error) {
	var data []byte
	var err error
	switch path {
	case "":
		return models.DefaultTheme(), nil
	case "-":
		data, err = io.ReadAll(cmd.InOrStdin())
	default:
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return models.ThemeConfig{}, fmt.Errorf("reading theme: %w", err)
	}
	theme, err := models.DecodeTheme(data)
	if err != nil {
		return models.ThemeConfig{}, fmt.Errorf("decoding %s: %w", displayName(path), err)
	}
	return theme, nil
}

func displayName(path string) string {
	if path == "-" {
		return "stdin"
	}
	return path
}

func argOrEmpty(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

func newCompileCmd() *cobra.Command {
	var outPath string
	var skipValidate bool

	cmd := &cobra.Command{
		Use:   "compile [file]",
		Short: "Compile a theme document to CSS",
		Long: `Compile a theme document to the stylesheet the server would serve.

The document is validated first; use --no-validate to compile a draft
that is still incomplete. Output is byte-identical to GET /api/theme.css
for the same document.

Example:
  themectl compile theme.json
  themectl compile -o theme.css theme.json
  cat theme.json | themectl compile -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			theme, err := readTheme(cmd, argOrEmpty(args))
			if err != nil {
				return err
			}
			if !skipValidate {
				if err := validate.Theme(theme); err != nil {
					return err
				}
			}
			css := compiler.CompileCSS(theme)
			if outPath == "" {
				_, err := io.WriteString(cmd.OutOrStdout(), css)
				return err
			}
			if err := os.WriteFile(outPath, []byte(css), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", outPath, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%s)\n", outPath, compiler.HashCSS(css))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write CSS to this file instead of stdout")
	cmd.Flags().BoolVar(&skipValidate, "no-validate", false, "Compile without validating the document")
	return cmd
}

func newHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash [file]",
		Short: "Print the stylesheet hash of a theme document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			theme, err := readTheme(cmd, argOrEmpty(args))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), compiler.HashTheme(theme))
			return nil
		},
	}
}

func newFontsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fonts [file]",
		Short: "Print the font links a theme document needs as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			theme, err := readTheme(cmd, argOrEmpty(args))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), compiler.FontLinks(theme.Fonts))
		},
	}
}

func newDefaultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "default",
		Short: "Print the built-in default theme as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(cmd.OutOrStdout(), models.DefaultTheme())
		},
	}
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a theme document against the schema and size limits",
		Long: `Validate a theme document the same way the server does before a write.

Checks performed:
  - the document decodes with no unknown fields
  - size limits (payload, embedded logos, tokens per mode)
  - token vocabulary (no missing or unknown tokens)
  - schema rules (URLs, CSS values, font sources, metadata)

Every problem is reported; the command fails if any check fails.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			theme, err := readTheme(cmd, argOrEmpty(args))
			if err != nil {
				return err
			}
			return runValidate(cmd.OutOrStdout(), theme)
		},
	}
	return cmd
}

// errValidation is returned when a document fails any check.
var errValidation = errors.New("theme document failed validation")

func runValidate(w io.Writer, theme models.ThemeConfig) error {
	failed := false
	record := func(check string, errs []string) {
		if len(errs) == 0 {
			fmt.Fprintf(w, "  PASS  %s\n", check)
			return
		}
		failed = true
		fmt.Fprintf(w, "  FAIL  %s\n", check)
		for _, e := range errs {
			fmt.Fprintf(w, "        - %s\n", e)
		}
	}

	var limitErrs []string
	for _, d := range validate.Diagnose(theme, validate.DefaultLimits) {
		limitErrs = append(limitErrs, fmt.Sprintf("%s: %s", d.Code, d.Detail))
	}
	record("limits and vocabulary", limitErrs)

	var schemaErrs []string
	if err := validate.Theme(theme); err != nil {
		var verr *validate.Error
		if !errors.As(err, &verr) {
			return err
		}
		for _, p := range verr.Problems {
			msg := p.Field + ": " + p.Rule
			if p.Detail != "" {
				msg += " (" + p.Detail + ")"
			}
			schemaErrs = append(schemaErrs, msg)
		}
	}
	record("schema", schemaErrs)

	if failed {
		return errValidation
	}
	fmt.Fprintf(w, "\nhash %s\n", compiler.HashTheme(theme))
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
