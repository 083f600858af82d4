package stats

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Collector tracks plan run statistics using lock-free atomic counters.
type Collector struct {
	filesLoaded     atomic.Int64
	linesParsed     atomic.Int64
	linesRejected   atomic.Int64
	duplicates      atomic.Int64
	actionsSelected atomic.Int64
	actionsSkipped  atomic.Int64
	startTime       time.Time
}

// Reader is the read side of a Collector, handed to presenters.
type Reader interface {
	Snapshot() Snapshot
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	FilesLoaded     int64
	LinesParsed     int64
	LinesRejected   int64
	Duplicates      int64
	ActionsSelected int64
	ActionsSkipped  int64
	Elapsed         time.Duration
}

func (c *Collector) AddFilesLoaded(n int64)     { c.filesLoaded.Add(n) }
func (c *Collector) AddLinesParsed(n int64)     { c.linesParsed.Add(n) }
func (c *Collector) AddLinesRejected(n int64)   { c.linesRejected.Add(n) }
func (c *Collector) AddDuplicates(n int64)      { c.duplicates.Add(n) }
func (c *Collector) AddActionsSelected(n int64) { c.actionsSelected.Add(n) }
func (c *Collector) AddActionsSkipped(n int64)  { c.actionsSkipped.Add(n) }

// Snapshot returns a consistent point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		FilesLoaded:     c.filesLoaded.Load(),
		LinesParsed:     c.linesParsed.Load(),
		LinesRejected:   c.linesRejected.Load(),
		Duplicates:      c.duplicates.Load(),
		ActionsSelected: c.actionsSelected.Load(),
		ActionsSkipped:  c.actionsSkipped.Load(),
		Elapsed:         c.Elapsed(),
	}
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"files=%d parsed=%d rejected=%d duplicates=%d selected=%d skipped=%d",
		s.FilesLoaded, s.LinesParsed, s.LinesRejected, s.Duplicates,
		s.ActionsSelected, s.ActionsSkipped,
	)
}
