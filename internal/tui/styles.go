package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorGreen  = lipgloss.Color("#22c55e")
	colorRed    = lipgloss.Color("#ef4444")
	colorOrange = lipgloss.Color("#f97316")
	colorBlue   = lipgloss.Color("#2383e2")
	colorMuted  = lipgloss.Color("#6b7280")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorBlue)

	presentStyle = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	absentStyle  = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)

	overLimitTag = lipgloss.NewStyle().
			Foreground(colorOrange).
			Bold(true).
			Render("OVER LIMIT")

	warningStyle = lipgloss.NewStyle().
			Foreground(colorOrange).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorOrange).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(colorOrange).
			Bold(true)

	errorStyle  = lipgloss.NewStyle().Foreground(colorRed)
	cursorStyle = lipgloss.NewStyle().Foreground(colorBlue).Bold(true)
)
