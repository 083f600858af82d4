package ui

import "github.com/bamsammich/tmpfiles/internal/event"

// Event is re-exported for presenters.
type Event = event.Event

// Re-export event types for convenience.
const (
	FileLoaded     = event.FileLoaded
	LineRejected   = event.LineRejected
	DuplicateLine  = event.DuplicateLine
	ActionSelected = event.ActionSelected
	ActionSkipped  = event.ActionSkipped
)
