package ui

import (
	"fmt"
	"io"

	"github.com/bamsammich/tmpfiles/internal/stats"
)

// plainPresenter writes selected actions to w and diagnostics to errW.
type plainPresenter struct {
	w       io.Writer
	errW    io.Writer
	stats   stats.Reader
	styled  bool
	verbose bool
}

func (p *plainPresenter) Run(events <-chan Event) error {
	for ev := range events {
		p.handleEvent(ev)
	}
	return nil
}

func (p *plainPresenter) handleEvent(ev Event) {
	switch ev.Type {
	case ActionSelected:
		fmt.Fprintln(p.w, ev.Action.String())
		if p.verbose {
			fmt.Fprintln(p.errW, p.style(styleMuted, fmt.Sprintf("plan: %s:%d: %s %s mode=%s recursive=%t",
				ev.File, ev.Line, ev.Action.Type, ev.Action.Path,
				ev.Action.EffectiveMode().FileMode(), ev.Action.Type.Recursive())))
		}
	case LineRejected:
		msg := "error"
		if ev.Error != nil {
			msg = ev.Error.Error()
		}
		fmt.Fprintln(p.errW, p.style(styleError, "error: ")+msg)
	case DuplicateLine:
		fmt.Fprintf(p.errW, "%s%s:%d: duplicate line for %s, using %s\n",
			p.style(styleWarning, "warning: "), ev.File, ev.Line, ev.Action.Path, ev.Detail)
	case ActionSkipped:
		if p.verbose {
			fmt.Fprintln(p.errW, p.style(styleMuted,
				fmt.Sprintf("skip: %s:%d: %s (%s)", ev.File, ev.Line, ev.Action.Path, ev.Detail)))
		}
	case FileLoaded:
		if p.verbose {
			fmt.Fprintln(p.errW, p.style(styleMuted, "loaded: "+ev.File))
		}
	}
}

func (p *plainPresenter) style(s styleFunc, text string) string {
	if !p.styled {
		return text
	}
	return s(text)
}

func (p *plainPresenter) Summary() string {
	if p.stats == nil {
		return ""
	}
	return completionSummary(p.stats.Snapshot())
}
