package tui

import "github.com/charmbracelet/lipgloss"

// ─── Color Palette (Catppuccin Mocha) ───────────────────────────────────────

var (
	colorSurface1 = lipgloss.Color("#45475A")
	colorText     = lipgloss.Color("#CDD6F4")
	colorSubtext  = lipgloss.Color("#A6ADC8")
	colorDim      = lipgloss.Color("#585B70")

	colorAccent   = lipgloss.Color("#CBA6F7")
	colorBlue     = lipgloss.Color("#89B4FA")
	colorGreen    = lipgloss.Color("#A6E3A1")
	colorYellow   = lipgloss.Color("#F9E2AF")
	colorRed      = lipgloss.Color("#F38BA8")
	colorPeach    = lipgloss.Color("#FAB387")
	colorLavender = lipgloss.Color("#B4BEFE")

	colorOK   = colorGreen
	colorWarn = colorYellow
	colorCrit = colorRed
)

// ─── Reusable Styles ────────────────────────────────────────────────────────

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorLavender)

	nameStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorText)

	activeMarkerStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorAccent)

	labelStyle = lipgloss.NewStyle().Foreground(colorBlue)
	dimStyle   = lipgloss.NewStyle().Foreground(colorDim)
	subStyle   = lipgloss.NewStyle().Foreground(colorSubtext)
	errorStyle = lipgloss.NewStyle().Foreground(colorPeach)

	gaugeTrackStyle = lipgloss.NewStyle().Foreground(colorSurface1)
)
