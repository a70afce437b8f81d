package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent      = lipgloss.Color("#8BC34A")
	muted       = lipgloss.Color("#6B7280")
	destructive = lipgloss.Color("#e53935")
	selfColor   = lipgloss.Color("#2196F3")
)

// Styles groups the lipgloss styles used by the chat screen.
type Styles struct {
	Pane      lipgloss.Style
	Focused   lipgloss.Style
	Title     lipgloss.Style
	Selected  lipgloss.Style
	Muted     lipgloss.Style
	Error     lipgloss.Style
	SelfName  lipgloss.Style
	OtherName lipgloss.Style
	Help      lipgloss.Style
}

func DefaultStyles() Styles {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(muted).
		Padding(0, 1)

	return Styles{
		Pane:      border,
		Focused:   border.BorderForeground(accent),
		Title:     lipgloss.NewStyle().Bold(true).Foreground(accent),
		Selected:  lipgloss.NewStyle().Bold(true).Foreground(accent),
		Muted:     lipgloss.NewStyle().Foreground(muted),
		Error:     lipgloss.NewStyle().Foreground(destructive),
		SelfName:  lipgloss.NewStyle().Bold(true).Foreground(selfColor),
		OtherName: lipgloss.NewStyle().Bold(true),
		Help:      lipgloss.NewStyle().Foreground(muted).Italic(true),
	}
}
