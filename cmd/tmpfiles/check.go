package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bamsammich/tmpfiles/internal/loader"
	"github.com/bamsammich/tmpfiles/internal/stats"
)

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check [CONFIG...]",
		Short: "Validate configuration files",
		Long: `Parse every line of the configuration files and report the ones that
are rejected. Exits 1 if any line is rejected.`,
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

			collector := stats.NewCollector()
			collector.AddFilesLoaded(int64(len(paths)))
			collector.AddLinesParsed(int64(len(res.Entries)))
			collector.AddLinesRejected(int64(len(res.Errors)))
			collector.AddDuplicates(int64(len(res.Duplicates)))

			for _, le := range res.Errors {
				fmt.Fprintf(opts.stderr, "%v\n", le)
			}
			if !opts.quiet {
				fmt.Fprintln(opts.stdout, collector.Snapshot().String())
			}
			if len(res.Errors) > 0 {
				return &exitError{code: 1}
			}
			return nil
		},
	}
}
