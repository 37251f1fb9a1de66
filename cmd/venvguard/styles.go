// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/venvguard/venvguard/internal/venv"
)

// lipgloss strips these colors when NO_COLOR is set or stdout is not a
// terminal, so every rendered string stays readable as plain text.
var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6"))
	failStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))

	levelStyles = map[venv.Level]lipgloss.Style{
		venv.LevelInfo:    pathStyle,
		venv.LevelSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")),
		venv.LevelWarn:    lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
	}

	levelMarks = map[venv.Level]string{
		venv.LevelInfo:    "→",
		venv.LevelSuccess: "✓",
		venv.LevelWarn:    "!",
	}
)

// styled renders s in the color of level.
func styled(level venv.Level, s string) string {
	return levelStyles[level].Render(s)
}

// mark is the one-character prefix for a line reporting a level.
func mark(level venv.Level) string {
	return styled(level, levelMarks[level])
}
