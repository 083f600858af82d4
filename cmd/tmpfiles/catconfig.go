package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bamsammich/tmpfiles/internal/loader"
)

func newCatConfigCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "cat-config [CONFIG...]",
		Short: "Print the merged configuration in canonical form",
		Long: `Print every valid line of the configuration files, one canonical line
per action, each file introduced by a comment naming it. Rejected lines and
shadowed duplicates are reported on stderr.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := opts.paths(args)
			if err != nil {
				return err
			}
			ld := loader.New(opts.fs,
				loader.WithParser(opts.parser()),
				loader.WithConcurrency(opts.concurrency),
			)
			res, err := ld.Load(cmd.Context(), paths)
			if err != nil {
				return err
			}

			current := ""
			for _, e := range res.Entries {
				if e.File != current {
					if current != "" {
						fmt.Fprintln(opts.stdout)
					}
					current = e.File
					fmt.Fprintf(opts.stdout, "# %s\n", current)
				}
				fmt.Fprintln(opts.stdout, e.Action.String())
			}
			for _, d := range res.Duplicates {
				fmt.Fprintf(opts.stderr, "warning: %s:%d: duplicate line for %s, using %s:%d\n",
					d.File, d.Line, d.Action.Path, d.First.File, d.First.Line)
			}
			for _, le := range res.Errors {
				fmt.Fprintf(opts.stderr, "error: %v\n", le)
			}
			if len(res.Errors) > 0 {
				return &exitError{code: 1}
			}
			return nil
		},
	}
}
