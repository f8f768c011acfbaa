package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/mr1hm/go-campus-alerts/internal/models"
)

var (
	colorEmergency = lipgloss.Color("#FF4D4F")
	colorWarning   = lipgloss.Color("#FFD93D")
	colorInfo      = lipgloss.Color("#4A90E2")
	colorMuted     = lipgloss.Color("#6C757D")
	colorText      = lipgloss.Color("#FFFFFF")

	bannerStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			Padding(0, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true)

	metaStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	hintStyle = lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true)

	idleStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(1, 2)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorEmergency)
)

func severityColor(s models.Severity) lipgloss.Color {
	switch s {
	case models.SeverityEmergency:
		return colorEmergency
	case models.SeverityWarning:
		return colorWarning
	default:
		return colorInfo
	}
}

func bannerFor(s models.Severity) lipgloss.Style {
	return bannerStyle.BorderForeground(severityColor(s))
}

func badgeFor(s models.Severity) lipgloss.Style {
	fg := colorText
	if s == models.SeverityWarning {
		fg = lipgloss.Color("#000000")
	}
	return lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1).
		Foreground(fg).
		Background(severityColor(s))
}
