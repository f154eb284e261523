package main

import (
	"github.com/spf13/cobra"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	dbPath     string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	o := &rootOptions{}
	tui := &tuiOptions{}

	cmd := &cobra.Command{
		Use:   "fluxrd",
		Short: "A terminal feed reader for local feeds or a Miniflux server.",
		Example: `
fluxrd
fluxrd entries --scope today
fluxrd feeds add https://go.dev/blog/feed.atom
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, o, tui)
		},
	}

	cmd.PersistentFlags().StringVar(&o.configPath, "config", "", "Path to configuration file")
	cmd.PersistentFlags().StringVar(&o.dbPath, "db", "", "Path to database file (overrides config)")
	cmd.PersistentFlags().StringVar(&o.logLevel, "log-level", "", "Log level: debug, info, warn, error or off")
	addTUIFlags(cmd, tui)

	addCommands(cmd, o)
	return cmd
}

func addCommands(topLevel *cobra.Command, o *rootOptions) {
	addTUI(topLevel, o)
	addEntries(topLevel, o)
	addRead(topLevel, o)
	addUnread(topLevel, o)
	addStar(topLevel, o)
	addOpen(topLevel, o)
	addFeeds(topLevel, o)
	addSearch(topLevel, o)
	addConfig(topLevel, o)
	addVersion(topLevel)
}
