package main

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/pders01/fluxrd/internal/keymap"
	"github.com/pders01/fluxrd/internal/media"
	"github.com/pders01/fluxrd/internal/tui"
)

type tuiOptions struct {
	quiet bool
}

func addTUIFlags(cmd *cobra.Command, t *tuiOptions) {
	cmd.Flags().BoolVarP(&t.quiet, "quiet", "q", false, "Skip startup banner")
}

func addTUI(topLevel *cobra.Command, o *rootOptions) {
	t := &tuiOptions{}
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive reader (the default command).",
		Example: `
fluxrd tui
fluxrd tui --quiet --log-level debug
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, o, t)
		},
	}
	addTUIFlags(cmd, t)
	topLevel.AddCommand(cmd)
}

func runTUI(cmd *cobra.Command, o *rootOptions, t *tuiOptions) error {
	e, err := o.open()
	if err != nil {
		return err
	}
	defer e.Close()

	bindings, err := keymap.Parse(e.cfg.Keys)
	if err != nil {
		return fmt.Errorf("invalid [keys]: %w", err)
	}
	sess, err := e.session()
	if err != nil {
		return err
	}

	var refresher tui.Refresher
	if e.manager != nil {
		refresher = e.manager
	}

	if !t.quiet {
		showBanner(cmd.OutOrStdout(), Version)
	}

	launcher, err := media.NewLauncher(e.cfg.Media)
	if err != nil {
		return err
	}
	reader := tui.NewApp(cmd.Context(), sess, e.cfg, bindings, refresher)
	reader.SetOpener(launcher)

	p := tea.NewProgram(reader, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func showBanner(w io.Writer, version string) {
	colors := []lipgloss.Color{"#FF6B6B", "#FFA86B", "#4ECDC4"}

	lines := make([]string, 0, len(tui.LogoLines)+2)
	for i, line := range tui.LogoLines {
		lines = append(lines, lipgloss.NewStyle().Foreground(colors[i%len(colors)]).Bold(true).Render(line))
	}
	lines = append(lines, "", lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8")).Render("feed reader "+version))

	border := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(lipgloss.Color("#4ECDC4")).
		Padding(1, 3).
		MarginTop(1)

	fmt.Fprintln(w, lipgloss.NewStyle().
		Width(60).
		Align(lipgloss.Center).
		Render(border.Render(lipgloss.JoinVertical(lipgloss.Center, lines...))))
}
