package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/afero"

	"github.com/bamsammich/tmpfiles/internal/event"
	"github.com/bamsammich/tmpfiles/internal/filter"
	"github.com/bamsammich/tmpfiles/internal/loader"
	"github.com/bamsammich/tmpfiles/internal/parser"
	"github.com/bamsammich/tmpfiles/internal/stats"
)

// planConfig holds everything a plan run needs.
type planConfig struct {
	Fs          afero.Fs
	Paths       []string
	Parser      parser.Parser
	Concurrency int
	Chain       *filter.Chain // nil selects everything
	Events      chan<- event.Event
	Stats       *stats.Collector
}

// planResult summarizes a plan run.
type planResult struct {
	Rejected int
	Selected int
	Err      error // fatal: a file could not be read
}

// runPlan loads every configuration file, then emits one event per file,
// rejected line, duplicate and action. Events are sent in file and line order.
// The caller owns and closes cfg.Events.
func runPlan(ctx context.Context, cfg planConfig) planResult {
	ld := loader.New(cfg.Fs,
		loader.WithParser(cfg.Parser),
		loader.WithConcurrency(cfg.Concurrency),
	)
	res, err := ld.Load(ctx, cfg.Paths)
	if err != nil {
		return planResult{Err: err}
	}

	emit := func(ev event.Event) {
		ev.Timestamp = time.Now()
		cfg.Events <- ev
	}

	for _, p := range cfg.Paths {
		cfg.Stats.AddFilesLoaded(1)
		emit(event.Event{Type: event.FileLoaded, File: p})
	}

	for _, le := range res.Errors {
		cfg.Stats.AddLinesRejected(1)
		emit(event.Event{Type: event.LineRejected, File: le.File, Line: le.Line, Error: le})
	}

	for _, d := range res.Duplicates {
		cfg.Stats.AddDuplicates(1)
		emit(event.Event{
			Type:   event.DuplicateLine,
			File:   d.File,
			Line:   d.Line,
			Action: d.Action,
			Detail: fmt.Sprintf("%s:%d", d.First.File, d.First.Line),
		})
	}

	chain := cfg.Chain
	if chain == nil {
		chain = filter.NewChain()
		chain.SetBoot(true)
	}

	var selected int
	for _, e := range res.Entries {
		cfg.Stats.AddLinesParsed(1)
		ok, reason := chain.Match(e.Action)
		if !ok {
			cfg.Stats.AddActionsSkipped(1)
			emit(event.Event{
				Type:   event.ActionSkipped,
				File:   e.File,
				Line:   e.Line,
				Action: e.Action,
				Detail: reason.String(),
			})
			continue
		}
		selected++
		cfg.Stats.AddActionsSelected(1)
		emit(event.Event{Type: event.ActionSelected, File: e.File, Line: e.Line, Action: e.Action})
	}

	slog.Debug("plan complete",
		"files", len(cfg.Paths),
		"selected", selected,
		"rejected", len(res.Errors),
		"duplicates", len(res.Duplicates),
	)
	return planResult{Rejected: len(res.Errors), Selected: selected}
}

// resolvePaths returns the explicit config files if any were given, otherwise
// the files discovered in dirs.
func resolvePaths(fs afero.Fs, args, dirs []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	paths, err := loader.Discover(fs, dirs)
	if err != nil {
		return nil, fmt.Errorf("discover config files: %w", err)
	}
	return paths, nil
}
