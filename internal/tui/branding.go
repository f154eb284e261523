package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/fluxrd/internal/config"
)

const AppName = "fluxrd"

var LogoLines = []string{
	"┏━╸╻  ╻ ╻╻ ╻┏━┓╺┳┓",
	"┣╸ ┃  ┃ ┃┏╋┛┣┳┛ ┃┃",
	"╹  ┗━╸┗━┛╹ ╹╹┗╸╺┻┛",
}

// Styles are the lipgloss styles derived from the [ui.colors] config.
type Styles struct {
	Logo      lipgloss.Style
	Header    lipgloss.Style
	Subtitle  lipgloss.Style
	Unread    lipgloss.Style
	Read      lipgloss.Style
	Starred   lipgloss.Style
	Muted     lipgloss.Style
	Help      lipgloss.Style
	Time      lipgloss.Style
	Separator lipgloss.Style
	Input     lipgloss.Style
	Status    map[StatusKind]lipgloss.Style
}

func NewStyles(c config.UIColors) Styles {
	primary := lipgloss.Color(c.Primary)
	accent := lipgloss.Color(c.Accent)
	text := lipgloss.Color(c.Text)
	muted := lipgloss.Color(c.Muted)

	return Styles{
		Logo:      lipgloss.NewStyle().Foreground(primary).Bold(true),
		Header:    lipgloss.NewStyle().Foreground(accent).Bold(true),
		Subtitle:  lipgloss.NewStyle().Foreground(muted),
		Unread:    lipgloss.NewStyle().Foreground(text).Bold(true),
		Read:      lipgloss.NewStyle().Foreground(muted),
		Starred:   lipgloss.NewStyle().Foreground(primary),
		Muted:     lipgloss.NewStyle().Foreground(muted),
		Help:      lipgloss.NewStyle().Foreground(muted).Italic(true),
		Time:      lipgloss.NewStyle().Foreground(muted).Faint(true),
		Separator: lipgloss.NewStyle().Foreground(muted),
		Input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1),
		Status: map[StatusKind]lipgloss.Style{
			StatusInfo:    lipgloss.NewStyle().Foreground(muted),
			StatusSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color(c.Success)),
			StatusError:   lipgloss.NewStyle().Foreground(lipgloss.Color(c.Error)).Bold(true),
		},
	}
}

// welcome is shown when the current scope has no entries.
func (s Styles) welcome(message string) string {
	lines := make([]string, 0, len(LogoLines))
	for _, line := range LogoLines {
		lines = append(lines, s.Logo.Render(line))
	}
	return lipgloss.JoinVertical(
		lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, lines...),
		"",
		s.Help.Render(message),
	)
}
