package event

import (
	"time"

	"github.com/bamsammich/tmpfiles/internal/action"
)

// Type identifies the kind of event.
type Type int

const (
	FileLoaded Type = iota + 1
	LineRejected
	DuplicateLine
	ActionSelected
	ActionSkipped
)

var typeNames = [...]string{
	FileLoaded:     "FileLoaded",
	LineRejected:   "LineRejected",
	DuplicateLine:  "DuplicateLine",
	ActionSelected: "ActionSelected",
	ActionSkipped:  "ActionSkipped",
}

func (t Type) String() string {
	if t > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Event represents a single step of a plan run.
type Event struct {
	Type      Type
	Timestamp time.Time
	File      string // configuration file
	Line      int    // 1-based line number, 0 for file-level events
	Action    action.Action
	Detail    string // skip reason or the line a duplicate was shadowed by
	Error     error
}
