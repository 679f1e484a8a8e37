package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette. Never use inline lipgloss.Color literals elsewhere.
var (
	// ColorCyan is used for identifiable nouns: package keys, unit names, paths.
	ColorCyan = lipgloss.Color("14")

	// ColorGreen is used for the "loaded" status.
	ColorGreen = lipgloss.Color("82")

	// ColorYellow is used for the "replaced" status.
	ColorYellow = lipgloss.Color("220")

	// ColorBoldRed is used for the "failed" status (matches ERROR level).
	ColorBoldRed = lipgloss.Color("204")

	// ColorGreenCheck is used for the completion checkmark.
	ColorGreenCheck = lipgloss.Color("10")

	// ColorDimGray is used for borders and other structural chrome.
	ColorDimGray = lipgloss.Color("240")
)

// Semantic styles.
var (
	// StyleNoun styles identifiable nouns (package keys, unit names, paths).
	StyleNoun = lipgloss.NewStyle().Foreground(ColorCyan)

	// StyleDim styles structural chrome (prefixes, separators).
	StyleDim = lipgloss.NewStyle().Faint(true)

	// StyleSummary styles completion and summary lines.
	StyleSummary = lipgloss.NewStyle().Bold(true)
)

// Load status values.
const (
	StatusLoaded    = "loaded"
	StatusReplaced  = "replaced"
	StatusUnchanged = "unchanged"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// StatusStyle returns the lipgloss style for a load status string.
// Unknown statuses return an unstyled default.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case StatusLoaded:
		return lipgloss.NewStyle().Foreground(ColorGreen)
	case StatusReplaced:
		return lipgloss.NewStyle().Foreground(ColorYellow)
	case StatusUnchanged, StatusSkipped:
		return lipgloss.NewStyle().Faint(true)
	case StatusFailed:
		return lipgloss.NewStyle().Bold(true).Foreground(ColorBoldRed)
	default:
		return lipgloss.NewStyle()
	}
}

// minUnitColumnWidth keeps status words aligned across lines.
const minUnitColumnWidth = 48

// FormatUnitLine renders a unit identifier with a right-aligned, color-coded
// status suffix.
//
// Format: u:<kind/name>  <status>
func FormatUnitLine(kind, name, status string) string {
	path := fmt.Sprintf("%s/%s", kind, name)

	padding := minUnitColumnWidth - len(path)
	if padding < 2 {
		padding = 2
	}

	return StyleDim.Render("u:") + StyleNoun.Render(path) + strings.Repeat(" ", padding) + StatusStyle(status).Render(status)
}

// FormatCheckmark renders a green checkmark with a message for stdout output.
func FormatCheckmark(msg string) string {
	check := lipgloss.NewStyle().Foreground(ColorGreenCheck).Render("✔")
	return check + " " + msg
}
