package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Thresholds are fractions of a window already used at which a gauge turns
// warning and critical.
type Thresholds struct {
	Warn float64
	Crit float64
}

func (t Thresholds) color(usedPercent float64) lipgloss.Color {
	switch {
	case usedPercent >= t.Crit*100:
		return colorCrit
	case usedPercent >= t.Warn*100:
		return colorWarn
	default:
		return colorOK
	}
}

// RenderUsageGauge produces a bar that fills left to right as usage grows.
// A negative percent renders a dimmed track with "N/A".
func RenderUsageGauge(usedPercent float64, width int, th Thresholds) string {
	if width < 5 {
		width = 5
	}

	if usedPercent < 0 {
		return gaugeTrackStyle.Render(strings.Repeat("─", width)) + dimStyle.Render(" N/A")
	}
	if usedPercent > 100 {
		usedPercent = 100
	}

	filled := int(usedPercent / 100 * float64(width))
	empty := width - filled

	color := th.color(usedPercent)
	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("━", filled)) +
		gaugeTrackStyle.Render(strings.Repeat("━", empty))

	pctStyle := lipgloss.NewStyle().Foreground(color).Bold(true)
	return fmt.Sprintf("%s %s", bar, pctStyle.Render(fmt.Sprintf("%5.1f%%", usedPercent)))
}
