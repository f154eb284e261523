package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/fluxrd/internal/render"
)

// renderHeader returns a styled header with an optional muted subtitle,
// both cut to width.
func (a *App) renderHeader(title, subtitle string) string {
	rows := []string{a.styles.Header.Render(render.Truncate(title, a.width-2))}
	if subtitle != "" {
		rows = append(rows, a.styles.Subtitle.Render(render.Truncate(subtitle, a.width-2)))
	}
	return lipgloss.JoinVertical(lipgloss.Top, rows...)
}

// renderCentered centers content within the body area.
func (a *App) renderCentered(content string) string {
	return lipgloss.NewStyle().
		Width(a.width).
		Height(a.bodyHeight()).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}
