package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"themeforge/internal/themesync"
)

// fileElement stores a stylesheet at path with its marker in path+".hash".
type fileElement struct {
	path string
	err  error
}

func (f *fileElement) Hash() string {
	data, err := os.ReadFile(f.path + ".hash")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (f *fileElement) Replace(css, hash string) {
	if err := os.WriteFile(f.path, []byte(css), 0o644); err != nil {
		f.err = err
		return
	}
	f.err = os.WriteFile(f.path+".hash", []byte(hash+"\n"), 0o644)
}

func newPullCmd() *cobra.Command {
	var server, outPath, hash string

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Download the published stylesheet when it has changed",
		Long: `Download the compiled stylesheet from a running server into a local file.

The hash of the last download is kept next to the file and sent as
If-None-Match, so an unchanged theme is not transferred again.

Example:
  themectl pull --server http://localhost:8080 -o theme.css`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outPath == "" {
				return errors.New("--output is required")
			}
			el := &fileElement{path: outPath}
			sheet := themesync.NewStylesheet(server, el, nil)

			replaced, err := sheet.Revalidate(cmd.Context(), hash)
			if err != nil {
				return err
			}
			if el.err != nil {
				return fmt.Errorf("writing %s: %w", outPath, el.err)
			}
			if replaced {
				fmt.Fprintf(cmd.OutOrStdout(), "updated %s (%s)\n", outPath, el.Hash())
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "unchanged %s\n", outPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&server, "server", "http://localhost:8080", "themeforge base URL")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "stylesheet file to write")
	cmd.Flags().StringVar(&hash, "hash", "", "expected theme hash, if known")
	return cmd
}
