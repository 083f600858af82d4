package ui

import (
	"fmt"
	"io"
)

// quietPresenter prints the selected actions and nothing else.
type quietPresenter struct {
	w io.Writer
}

func (p *quietPresenter) Run(events <-chan Event) error {
	for ev := range events {
		p.handleEvent(ev)
	}
	return nil
}

func (p *quietPresenter) handleEvent(ev Event) {
	if ev.Type == ActionSelected {
		fmt.Fprintln(p.w, ev.Action.String())
	}
}

func (p *quietPresenter) Summary() string {
	return ""
}
