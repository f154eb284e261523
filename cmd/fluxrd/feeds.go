package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/pders01/fluxrd/internal/debuglog"
	"github.com/pders01/fluxrd/internal/unread"
)

func addFeeds(topLevel *cobra.Command, o *rootOptions) {
	cmd := &cobra.Command{
		Use:   "feeds",
		Short: "Manage subscriptions in the local cache.",
		Example: `
fluxrd feeds list
fluxrd feeds add https://go.dev/blog/feed.atom --category Go
fluxrd feeds hide 3f2a1b0c9d8e7f60
fluxrd feeds refresh --force
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	addFeedsList(cmd, o)
	addFeedsAdd(cmd, o)
	addFeedsRefresh(cmd, o)
	addFeedsRemove(cmd, o)
	addFeedsHidden(cmd, o, "hide", true)
	addFeedsHidden(cmd, o, "show", false)
	topLevel.AddCommand(cmd)
}

func addFeedsList(parent *cobra.Command, o *rootOptions) {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List feeds with their unread counts.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := o.open()
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.requireLocal(); err != nil {
				return err
			}

			feeds, err := e.store.GetAllFeeds()
			if err != nil {
				return err
			}
			hidden, err := e.store.HiddenFeedIDs()
			if err != nil {
				return err
			}
			counts, err := e.store.UnreadCounts()
			if err != nil {
				return err
			}
			counters := unread.New()
			counters.Set(counts)

			if len(feeds) == 0 {
				_, _ = color.New(color.Faint, color.Italic).Fprintln(cmd.OutOrStdout(), " no feeds, add one with `fluxrd feeds add <url>`")
				return nil
			}

			isHidden := make(map[string]bool, len(hidden))
			for _, id := range hidden {
				isHidden[id] = true
			}

			bold := color.New(color.Bold)
			faint := color.New(color.Faint)
			tbl := uitable.New()
			tbl.Separator = "  "
			tbl.MaxColWidth = 50
			tbl.AddRow(bold.Sprint("ID"), bold.Sprint("Unread"), bold.Sprint("Category"), bold.Sprint("Title"), bold.Sprint("URL"))
			for _, f := range feeds {
				title := f.Title
				if isHidden[f.ID] {
					title = faint.Sprint(title + " (hidden)")
				}
				tbl.AddRow(f.ID, counters.Feed(f.ID), f.Category.Title, title, faint.Sprint(f.URL))
			}
			fmt.Fprintln(cmd.OutOrStdout(), tbl)
			return nil
		},
	}
	parent.AddCommand(cmd)
}

func addFeedsAdd(parent *cobra.Command, o *rootOptions) {
	var category string
	var allowPrivate bool
	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Subscribe to a feed and fetch it once.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.open()
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.requireLocal(); err != nil {
				return err
			}

			e.manager.SetPermissiveValidation(allowPrivate)
			f, err := e.manager.AddFeed(cmd.Context(), args[0], category)
			if err != nil {
				return err
			}
			_, _ = color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "added %s ", f.Title)
			fmt.Fprintf(cmd.OutOrStdout(), "(%s)\n", f.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "Category title")
	cmd.Flags().BoolVar(&allowPrivate, "allow-private", false, "Allow feeds on localhost and private networks")
	parent.AddCommand(cmd)
}

func addFeedsRefresh(parent *cobra.Command, o *rootOptions) {
	var force bool
	cmd := &cobra.Command{
		Use:   "refresh [id]",
		Short: "Fetch new entries for one feed or all of them.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.open()
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.requireLocal(); err != nil {
				return err
			}

			e.manager.SetForceRefresh(force)
			if len(args) == 1 {
				err = e.manager.RefreshFeed(cmd.Context(), args[0])
			} else {
				err = e.manager.RefreshAllFeeds(cmd.Context())
			}
			if err != nil {
				return fmt.Errorf("refresh failed: %w", err)
			}
			if n, countErr := e.index.DocCount(); countErr == nil {
				debuglog.Infof("search index holds %d entries", n)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "feeds refreshed")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Ignore caching headers and the refresh interval")
	parent.AddCommand(cmd)
}

func addFeedsRemove(parent *cobra.Command, o *rootOptions) {
	cmd := &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Unsubscribe from a feed and drop its entries.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.open()
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.requireLocal(); err != nil {
				return err
			}

			f, err := e.store.GetFeed(args[0])
			if err != nil {
				return err
			}
			if err := e.store.DeleteFeed(f.ID); err != nil {
				return fmt.Errorf("failed to delete feed: %w", err)
			}
			if err := e.index.RemoveFeed(f.ID); err != nil {
				return fmt.Errorf("failed to drop feed from search index: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", f.Title)
			return nil
		},
	}
	parent.AddCommand(cmd)
}

// addFeedsHidden adds hide or show. Hidden feeds work in both modes since
// the set lives in the local cache.
func addFeedsHidden(parent *cobra.Command, o *rootOptions, use string, hidden bool) {
	short, done := "Hide a feed from the all, today and category views.", "hidden"
	if !hidden {
		short, done = "Show a hidden feed again.", "shown"
	}
	cmd := &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.open()
			if err != nil {
				return err
			}
			defer e.Close()

			id := args[0]
			if e.requireLocal() == nil {
				if _, err := e.store.GetFeed(id); err != nil {
					return err
				}
			}
			if err := e.store.SetFeedHidden(id, hidden); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "feed %s %s\n", id, done)
			return nil
		},
	}
	parent.AddCommand(cmd)
}
