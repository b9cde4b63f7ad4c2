package tui

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor = lipgloss.Color("#A78BFA") // Purple
	mutedColor   = lipgloss.Color("#9CA3AF") // Gray
	textColor    = lipgloss.Color("#F9FAFB") // Light text
	borderColor  = lipgloss.Color("#6B7280") // Gray
	accentColor  = lipgloss.Color("#10B981") // Green
	errorColor   = lipgloss.Color("#F87171") // Red

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	authorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	engineStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	emblemStyle = lipgloss.NewStyle().
			Foreground(primaryColor)

	statusStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	roomBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1)

	inputBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	consoleStyle = lipgloss.NewStyle().
			Foreground(textColor).
			Background(lipgloss.Color("#1F2937")).
			Padding(0, 1)
)
