package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bamsammich/tmpfiles/internal/config"
)

// Catppuccin Mocha palette, mutable so config can override.
var (
	ColorGreen  = lipgloss.Color("#a6e3a1")
	ColorYellow = lipgloss.Color("#f9e2af")
	ColorRed    = lipgloss.Color("#f38ba8")
	ColorMuted  = lipgloss.Color("#5a6278")
)

type styleFunc func(strs ...string) string

// Pre-built styles, rebuilt by rebuildStyles() after color changes.
var (
	styleError   styleFunc
	styleWarning styleFunc
	styleMuted   styleFunc
	styleOK      styleFunc
)

func init() {
	rebuildStyles()
}

func rebuildStyles() {
	styleError = lipgloss.NewStyle().Foreground(ColorRed).Bold(true).Render
	styleWarning = lipgloss.NewStyle().Foreground(ColorYellow).Render
	styleMuted = lipgloss.NewStyle().Foreground(ColorMuted).Render
	styleOK = lipgloss.NewStyle().Foreground(ColorGreen).Render
}

// ApplyTheme overrides colors from a config ThemeConfig and rebuilds all styles.
func ApplyTheme(tc config.ThemeConfig) {
	if tc.Green != nil {
		ColorGreen = lipgloss.Color(*tc.Green)
	}
	if tc.Yellow != nil {
		ColorYellow = lipgloss.Color(*tc.Yellow)
	}
	if tc.Red != nil {
		ColorRed = lipgloss.Color(*tc.Red)
	}
	if tc.Muted != nil {
		ColorMuted = lipgloss.Color(*tc.Muted)
	}
	rebuildStyles()
}

// StyleSummary colors a summary line when writing to a terminal.
func StyleSummary(summary string, failed, tty bool) string {
	if !tty {
		return summary
	}
	if failed {
		return styleError(summary)
	}
	return styleOK(summary)
}
