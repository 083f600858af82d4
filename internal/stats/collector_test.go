package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCollectorConcurrent(t *testing.T) {
	c := NewCollector()
	const goroutines = 100
	const opsPerGoroutine = 1000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for range goroutines {
		go func() {
			defer wg.Done()
			for range opsPerGoroutine {
				c.AddFilesLoaded(1)
				c.AddLinesParsed(1)
				c.AddLinesRejected(1)
				c.AddDuplicates(1)
				c.AddActionsSelected(1)
				c.AddActionsSkipped(1)
			}
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	expected := int64(goroutines * opsPerGoroutine)
	assert.Equal(t, expected, s.FilesLoaded)
	assert.Equal(t, expected, s.LinesParsed)
	assert.Equal(t, expected, s.LinesRejected)
	assert.Equal(t, expected, s.Duplicates)
	assert.Equal(t, expected, s.ActionsSelected)
	assert.Equal(t, expected, s.ActionsSkipped)
}

func TestSnapshotString(t *testing.T) {
	s := Snapshot{
		FilesLoaded:     3,
		LinesParsed:     10,
		LinesRejected:   1,
		Duplicates:      2,
		ActionsSelected: 6,
		ActionsSkipped:  2,
	}
	expected := "files=3 parsed=10 rejected=1 duplicates=2 selected=6 skipped=2"
	assert.Equal(t, expected, s.String())
}

func TestNewCollector(t *testing.T) {
	c := NewCollector()
	assert.False(t, c.startTime.IsZero())
	assert.InDelta(t, 0, c.Elapsed().Seconds(), 1)
}

func TestSnapshotIncludesElapsed(t *testing.T) {
	c := NewCollector()
	time.Sleep(10 * time.Millisecond)
	s := c.Snapshot()
	assert.Greater(t, s.Elapsed, time.Duration(0))
}
