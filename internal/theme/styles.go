package theme

import "github.com/charmbracelet/lipgloss"

// Main UI styles
var (
	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(1, 0)

	NormalStyle = lipgloss.NewStyle().
			Foreground(ColorNormal)

	SubtleStyle = lipgloss.NewStyle().
			Foreground(ColorSubtle)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			Padding(1, 0)
)

// Session list annotation styles
var (
	CurrentIconStyle = lipgloss.NewStyle().
				Foreground(ColorCurrent)

	EmptyIconStyle = lipgloss.NewStyle().
			Foreground(ColorEmpty)

	StaleStyle = lipgloss.NewStyle().
			Foreground(ColorStale)
)

// Log view styles
var (
	BadgeStyle = lipgloss.NewStyle().
			Foreground(ColorBadge).
			Bold(true)

	LogTimestampStyle = lipgloss.NewStyle().
				Foreground(ColorMuted)
)

// Spinner style
var SpinnerStyle = lipgloss.NewStyle().
	Foreground(ColorSpinner)

// Error style
var ErrorStyle = lipgloss.NewStyle().
	Foreground(ColorError).
	Bold(true)
