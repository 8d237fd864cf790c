package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorMuted   = lipgloss.Color("#6c757d")
	colorBlocked = lipgloss.Color("#d16d7a")
	colorAccent  = lipgloss.Color("#5f9fb0")
	colorRange   = lipgloss.Color("#2f4f5f")
)

// Styles colours grid cells. Cells also carry text markers so a grid stays
// readable without colour.
type Styles struct {
	Title    lipgloss.Style
	Weekdays lipgloss.Style
	Normal   lipgloss.Style
	Past     lipgloss.Style
	Blocked  lipgloss.Style
	Endpoint lipgloss.Style
	InRange  lipgloss.Style
	Cursor   lipgloss.Style
	Status   lipgloss.Style
	Error    lipgloss.Style
	Month    lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true),
		Weekdays: lipgloss.NewStyle().Foreground(colorMuted),
		Normal:   lipgloss.NewStyle(),
		Past:     lipgloss.NewStyle().Foreground(colorMuted).Faint(true),
		Blocked:  lipgloss.NewStyle().Foreground(colorBlocked).Strikethrough(true),
		Endpoint: lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Background(colorAccent).Bold(true),
		InRange:  lipgloss.NewStyle().Background(colorRange),
		Cursor:   lipgloss.NewStyle().Reverse(true),
		Status:   lipgloss.NewStyle().Foreground(colorAccent),
		Error:    lipgloss.NewStyle().Foreground(colorBlocked).Bold(true),
		Month:    lipgloss.NewStyle().MarginRight(3),
	}
}

// PlainStyles renders markers only, for non-interactive output.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Title: plain, Weekdays: plain, Normal: plain, Past: plain, Blocked: plain,
		Endpoint: plain, InRange: plain, Cursor: plain, Status: plain, Error: plain,
		Month: lipgloss.NewStyle().MarginRight(3),
	}
}
