package ui

import (
	"io"

	"github.com/bamsammich/tmpfiles/internal/stats"
)

// Presenter consumes events and displays the plan.
type Presenter interface {
	// Run consumes events until the channel closes. Blocks until done.
	Run(events <-chan Event) error
	// Summary returns the final summary line.
	Summary() string
}

// Config configures a Presenter.
type Config struct {
	Writer    io.Writer // selected actions, one canonical line each
	ErrWriter io.Writer // diagnostics
	Stats     stats.Reader
	IsTTY     bool
	Quiet     bool
	Verbose   bool
}

// NewPresenter creates the appropriate presenter based on configuration.
//
//nolint:ireturn // factory function returns interface by design
func NewPresenter(cfg Config) Presenter {
	if cfg.Quiet {
		return &quietPresenter{w: cfg.Writer}
	}
	return &plainPresenter{
		w:       cfg.Writer,
		errW:    cfg.ErrWriter,
		stats:   cfg.Stats,
		styled:  cfg.IsTTY,
		verbose: cfg.Verbose,
	}
}
