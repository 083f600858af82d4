package ui

import (
	"fmt"

	"github.com/bamsammich/tmpfiles/internal/stats"
)

// completionSummary builds a final summary line from a snapshot.
// Format: done ✓  files 12  actions 140  skipped 3  duplicates 1  time 0s  errors 0
func completionSummary(snap stats.Snapshot) string {
	icon := "✓"
	if snap.LinesRejected > 0 {
		icon = "✗"
	}

	base := fmt.Sprintf("done %s  files %s  actions %s  skipped %s",
		icon,
		FormatCount(snap.FilesLoaded),
		FormatCount(snap.ActionsSelected),
		FormatCount(snap.ActionsSkipped),
	)
	if snap.Duplicates > 0 {
		base += "  duplicates " + FormatCount(snap.Duplicates)
	}
	base += fmt.Sprintf("  time %s  errors %d", FormatDuration(snap.Elapsed), snap.LinesRejected)
	return base
}
