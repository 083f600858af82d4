package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

// docFormats maps a --format value to a cobra/doc tree generator.
var docFormats = map[string]func(root *cobra.Command, dir string) error{
	"man": func(root *cobra.Command, dir string) error {
		return doc.GenManTree(root, &doc.GenManHeader{
			Title:   "TMPFILES",
			Section: "8",
			Source:  "tmpfiles " + version,
			Manual:  "System Administration",
		}, dir)
	},
	"markdown": doc.GenMarkdownTree,
	"rest":     doc.GenReSTTree,
	"yaml":     doc.GenYamlTree,
}

func newDocsCmd() *cobra.Command {
	var dir, format string
	cmd := &cobra.Command{
		Use:    "gen-docs",
		Short:  "Write reference pages for every command",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gen, ok := docFormats[format]
			if !ok {
				return fmt.Errorf("unknown format %q (use man, markdown, rest or yaml)", format)
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			root := cmd.Root()
			// Keep generated pages stable across runs.
			root.DisableAutoGenTag = true
			return gen(root, dir)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "docs", "output directory")
	cmd.Flags().StringVar(&format, "format", "man", "output format: man, markdown, rest or yaml")
	return cmd
}
