package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorInk       = lipgloss.Color("#E5E9F0")
	ColorDim       = lipgloss.Color("#7A8291")
	ColorAccent    = lipgloss.Color("#88C0D0")
	ColorAccentAlt = lipgloss.Color("#81A1C1")
	ColorSuccess   = lipgloss.Color("#A3BE8C")
	ColorWarn      = lipgloss.Color("#EBCB8B")
	ColorError     = lipgloss.Color("#BF616A")
)

// Heading renders a section heading for plain (non-interactive) output.
func Heading(s string) string {
	return lipgloss.NewStyle().Bold(true).Foreground(ColorAccent).Render(s)
}

// Success renders a final success line.
func Success(s string) string {
	return lipgloss.NewStyle().Foreground(ColorSuccess).Render(s)
}

// Failure renders a final failure line.
func Failure(s string) string {
	return lipgloss.NewStyle().Foreground(ColorError).Render(s)
}
