// Package main provides themectl, an offline companion to the themeforge
// server. It compiles, hashes, and validates theme documents without a
// database, and can mint development sessions for the admin API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "themectl",
		Short: "Compile, hash, and validate theme documents",
		Long: `themectl works on theme documents stored as JSON files.

Every command that takes a [file] argument reads the document from that
path, from standard input when the argument is "-", and falls back to the
built-in default theme when the argument is omitted.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newCompileCmd())
	root.AddCommand(newHashCmd())
	root.AddCommand(newFontsCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newDefaultCmd())
	root.AddCommand(newSessionCmd())
	root.AddCommand(newPullCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
