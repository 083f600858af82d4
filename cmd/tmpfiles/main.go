package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bamsammich/tmpfiles/internal/action"
	"github.com/bamsammich/tmpfiles/internal/config"
	"github.com/bamsammich/tmpfiles/internal/event"
	"github.com/bamsammich/tmpfiles/internal/filter"
	"github.com/bamsammich/tmpfiles/internal/loader"
	"github.com/bamsammich/tmpfiles/internal/parser"
	"github.com/bamsammich/tmpfiles/internal/stats"
	"github.com/bamsammich/tmpfiles/internal/ui"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// options holds the flags shared by every subcommand.
type options struct {
	fs                 afero.Fs
	stdout             io.Writer
	stderr             io.Writer
	configDirs         []string
	allowOmittedFields bool
	concurrency        int
	verbose            bool
	quiet              bool
	logFile            string

	cfg       config.Config
	closeLogs func()
}

func (o *options) parser() parser.Parser {
	return parser.Parser{AllowOmittedFields: o.allowOmittedFields}
}

func (o *options) paths(args []string) ([]string, error) {
	return resolvePaths(o.fs, args, o.configDirs)
}

// prefixFlag is a custom pflag.Value that appends --prefix and
// --exclude-prefix rules to a shared filter.Chain in CLI order.
type prefixFlag struct {
	chain   *filter.Chain
	include bool
}

func (*prefixFlag) String() string { return "" }
func (*prefixFlag) Type() string   { return "path" }

func (f *prefixFlag) Set(val string) error {
	if f.include {
		return f.chain.AddPrefix(val)
	}
	return f.chain.AddExcludePrefix(val)
}

//nolint:revive // cognitive-complexity: main CLI entry point wires every flag
func run(args []string, stdout, stderr io.Writer) int {
	var (
		boot        bool
		create      bool
		clean       bool
		remove      bool
		showVersion bool
	)
	opts := &options{
		fs:     afero.NewOsFs(),
		stdout: stdout,
		stderr: stderr,
	}
	chain := filter.NewChain()

	rootCmd := &cobra.Command{
		Use:   "tmpfiles [flags] [CONFIG...]",
		Short: "Plan the creation, cleanup and removal of volatile files from tmpfiles.d configuration",
		Long: `tmpfiles reads tmpfiles.d configuration files, validates every line and
prints the actions selected for this run in canonical form.

Without CONFIG arguments the files are discovered in the configuration
directories; a file in an earlier directory masks a file of the same name
in a later one.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Fprintf(opts.stdout, "tmpfiles %s\n", version)
				return nil
			}

			if !cmd.Flags().Changed("boot") && opts.cfg.Defaults.Boot != nil {
				boot = *opts.cfg.Defaults.Boot
			}
			chain.SetBoot(boot)
			chain.SetOps(selectedOps(create, clean, remove))
			if err := applyConfigPrefixes(cmd, opts.cfg.Search, chain); err != nil {
				return err
			}

			paths, err := opts.paths(args)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			collector := stats.NewCollector()
			events := make(chan event.Event, 256)

			// When --log is set, tee events through a logging goroutine that
			// writes structured records before forwarding to the presenter.
			presenterEvents := (<-chan event.Event)(events)
			if opts.logFile != "" {
				presenterEvents = teeEvents(events)
			}

			presenter := ui.NewPresenter(ui.Config{
				Writer:    opts.stdout,
				ErrWriter: opts.stderr,
				Stats:     collector,
				IsTTY:     isTerminal(opts.stderr),
				Quiet:     opts.quiet,
				Verbose:   opts.verbose,
			})

			var presenterErr error
			var presenterWg sync.WaitGroup
			presenterWg.Add(1)
			go func() {
				defer presenterWg.Done()
				presenterErr = presenter.Run(presenterEvents)
			}()

			slog.Debug("starting plan",
				"files", len(paths),
				"boot", boot,
				"ops", chain.Ops().String(),
			)
			result := runPlan(ctx, planConfig{
				Fs:          opts.fs,
				Paths:       paths,
				Parser:      opts.parser(),
				Concurrency: opts.concurrency,
				Chain:       chain,
				Events:      events,
				Stats:       collector,
			})
			close(events)
			presenterWg.Wait()
			if presenterErr != nil {
				fmt.Fprintf(opts.stderr, "presenter: %v\n", presenterErr)
			}

			if result.Err != nil {
				return result.Err
			}

			if !opts.quiet {
				if summary := presenter.Summary(); summary != "" {
					fmt.Fprintln(opts.stderr,
						ui.StyleSummary(summary, result.Rejected > 0, isTerminal(opts.stderr)))
				}
			}

			if result.Rejected > 0 {
				return &exitError{code: 1}
			}
			return nil
		},
	}

	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print version and exit")
	rootCmd.Flags().BoolVar(&boot, "boot", false, "include actions marked boot-only (!)")
	rootCmd.Flags().BoolVar(&create, "create", false, "select create, write and adjust actions")
	rootCmd.Flags().BoolVar(&clean, "clean", false, "select age-based cleanup actions")
	rootCmd.Flags().BoolVar(&remove, "remove", false, "select remove actions")
	rootCmd.Flags().
		Var(&prefixFlag{chain: chain, include: true}, "prefix", "only consider paths under PATH (repeatable)")
	rootCmd.Flags().
		Var(&prefixFlag{chain: chain, include: false}, "exclude-prefix", "ignore paths under PATH (repeatable)")

	pf := rootCmd.PersistentFlags()
	pf.StringSliceVar(&opts.configDirs, "config-dir", loader.DefaultDirs,
		"configuration directories in decreasing precedence")
	pf.BoolVar(&opts.allowOmittedFields, "allow-omitted-fields", false,
		"accept lines that leave off trailing fields")
	pf.IntVarP(&opts.concurrency, "concurrency", "j", runtime.NumCPU(),
		"number of configuration files read at once")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	pf.BoolVarP(&opts.quiet, "quiet", "q", false, "print selected actions only")
	pf.StringVar(&opts.logFile, "log", "", "write structured JSON log to FILE")

	rootCmd.AddCommand(newCatConfigCmd(opts))
	rootCmd.AddCommand(newCheckCmd(opts))
	rootCmd.AddCommand(newDocsCmd())

	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	err := rootCmd.ExecuteContext(context.Background())
	if opts.closeLogs != nil {
		opts.closeLogs()
	}
	if err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	return 0
}

// setup loads the config file, applies its defaults and configures logging.
func (o *options) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		slog.Warn("failed to load config", "error", err)
	}
	o.cfg = cfg
	ui.ApplyTheme(cfg.Theme)

	if err := applyConfigDefaults(cmd, cfg, o); err != nil {
		return err
	}

	logLevel := slog.LevelInfo
	if level, ok, lerr := cfg.Defaults.Level(); lerr != nil {
		slog.Warn("ignoring config log level", "error", lerr)
	} else if ok {
		logLevel = level
	}
	if o.verbose {
		logLevel = slog.LevelDebug
	} else if o.quiet {
		logLevel = slog.LevelWarn
	}
	textHandler := slog.NewTextHandler(o.stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	var logHandler slog.Handler = textHandler
	if o.logFile != "" {
		lf, lfErr := os.Create(o.logFile)
		if lfErr != nil {
			return fmt.Errorf("open log file: %w", lfErr)
		}
		o.closeLogs = func() { lf.Close() }
		jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
		logHandler = ui.NewMultiHandler(textHandler, jsonHandler)
	}
	slog.SetDefault(slog.New(logHandler))
	return nil
}

// applyConfigDefaults applies config file defaults for flags not explicitly set on the CLI.
func applyConfigDefaults(cmd *cobra.Command, cfg config.Config, o *options) error {
	flags := cmd.Flags()
	if !flags.Changed("allow-omitted-fields") && cfg.Defaults.AllowOmittedFields != nil {
		o.allowOmittedFields = *cfg.Defaults.AllowOmittedFields
	}
	if !flags.Changed("concurrency") && cfg.Defaults.Concurrency != nil {
		o.concurrency = *cfg.Defaults.Concurrency
	}
	if !flags.Changed("config-dir") && len(cfg.Search.Dirs) > 0 {
		o.configDirs = cfg.Search.Dirs
	}
	if o.concurrency <= 0 {
		return fmt.Errorf("invalid concurrency %d: must be positive", o.concurrency)
	}
	if o.verbose && o.quiet {
		return errors.New("--verbose and --quiet are mutually exclusive")
	}
	return nil
}

// applyConfigPrefixes adds the configured prefixes unless the matching flag
// was given on the command line.
func applyConfigPrefixes(cmd *cobra.Command, search config.SearchConfig, chain *filter.Chain) error {
	if !cmd.Flags().Changed("exclude-prefix") {
		for _, p := range search.ExcludePrefixes {
			if err := chain.AddExcludePrefix(p); err != nil {
				return fmt.Errorf("config exclude_prefixes: %w", err)
			}
		}
	}
	if !cmd.Flags().Changed("prefix") {
		for _, p := range search.Prefixes {
			if err := chain.AddPrefix(p); err != nil {
				return fmt.Errorf("config prefixes: %w", err)
			}
		}
	}
	return nil
}

// selectedOps maps the phase flags to operation classes. No phase flag
// selects every phase.
func selectedOps(create, clean, remove bool) action.Op {
	var ops action.Op
	if create {
		ops |= action.OpCreate
	}
	if clean {
		ops |= action.OpClean
	}
	if remove {
		ops |= action.OpRemove
	}
	if ops == 0 {
		return action.OpAll
	}
	return ops
}

// teeEvents logs every event as a structured record and forwards it.
func teeEvents(events <-chan event.Event) <-chan event.Event {
	teed := make(chan event.Event, 256)
	go func() {
		for ev := range events {
			attrs := []slog.Attr{
				slog.String("type", ev.Type.String()),
				slog.String("file", ev.File),
				slog.Int("line", ev.Line),
			}
			if ev.Action.Path != "" {
				attrs = append(attrs,
					slog.String("action", ev.Action.String()),
					slog.String("mode", ev.Action.EffectiveMode().FileMode().String()),
					slog.Bool("recursive", ev.Action.Type.Recursive()),
				)
			}
			if ev.Detail != "" {
				attrs = append(attrs, slog.String("detail", ev.Detail))
			}
			if ev.Error != nil {
				attrs = append(attrs, slog.String("error", ev.Error.Error()))
			}
			slog.LogAttrs(context.Background(), slog.LevelDebug, "tmpfiles.event", attrs...)
			teed <- ev
		}
		close(teed)
	}()
	return teed
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && ui.IsTTY(f.Fd())
}

var _ pflag.Value = (*prefixFlag)(nil)

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
