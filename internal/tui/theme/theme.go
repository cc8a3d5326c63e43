package theme

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/joacominatel/minastmt/internal/sqltext"
)

// Color palette.
var (
	ColorPrimary   = lipgloss.Color("63")  // Purple
	ColorSecondary = lipgloss.Color("241") // Gray
	ColorSuccess   = lipgloss.Color("42")  // Green
	ColorError     = lipgloss.Color("196") // Red
	ColorWarning   = lipgloss.Color("214") // Orange
	ColorBorder    = lipgloss.Color("238") // Dark gray
	ColorMuted     = lipgloss.Color("245") // Light gray
	ColorHighlight = lipgloss.Color("229") // Yellow
	ColorBind      = lipgloss.Color("117") // Cyan
)

// Shared styles used across TUI components.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleActiveBorder = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(ColorPrimary)

	StyleTitle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	StyleMuted = lipgloss.NewStyle().
			Foreground(ColorMuted)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorError)

	StyleSuccess = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	StyleBind = lipgloss.NewStyle().
			Foreground(ColorBind)

	StyleCursor = lipgloss.NewStyle().
			Foreground(ColorHighlight).
			Bold(true)

	StyleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)
)

// KindStyle returns the badge style for a statement kind.
func KindStyle(k sqltext.Kind) lipgloss.Style {
	s := lipgloss.NewStyle().Bold(true)
	switch {
	case k.IsQuery():
		return s.Foreground(ColorSuccess)
	case k.IsDML():
		return s.Foreground(ColorHighlight)
	case k.IsDDL():
		return s.Foreground(ColorWarning)
	case k.IsPLSQL():
		return s.Foreground(ColorBind)
	default:
		return s.Foreground(ColorMuted)
	}
}
