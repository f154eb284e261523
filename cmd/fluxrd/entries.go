package main

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/pders01/fluxrd/internal/app"
	"github.com/pders01/fluxrd/internal/content"
	"github.com/pders01/fluxrd/internal/render"
	"github.com/pders01/fluxrd/internal/storage"
)

func addEntries(topLevel *cobra.Command, o *rootOptions) {
	vo := &viewOptions{}
	cmd := &cobra.Command{
		Use:     "entries",
		Aliases: []string{"ls"},
		Short:   "List entries the way the reader shows them.",
		Example: `
fluxrd entries
fluxrd entries --status all --scope today
fluxrd entries --category 12 --filter kubernetes
fluxrd entries --scope starred -n 10
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := o.open()
			if err != nil {
				return err
			}
			defer e.Close()

			sess, err := e.session()
			if err != nil {
				return err
			}
			if err := loadView(cmd.Context(), sess, vo); err != nil {
				return err
			}

			if err := fill(cmd.Context(), sess, vo.Limit); err != nil {
				return err
			}
			entries := sess.Pipeline.Entries()
			if vo.Limit > 0 && len(entries) > vo.Limit {
				entries = entries[:vo.Limit]
			}
			printEntries(cmd.OutOrStdout(), entries)

			st := sess.Content.Snapshot()
			total := st.Total
			if st.FilterStatus == content.FilterUnread {
				total = st.UnreadCount
			}
			_, _ = color.New(color.Faint).Fprintf(cmd.OutOrStdout(), "%d of %d entries\n", len(entries), total)
			return nil
		},
	}
	addViewFlags(cmd, vo)
	topLevel.AddCommand(cmd)
}

// loadView applies the flags to the session and loads the first page.
func loadView(ctx context.Context, sess *app.Session, vo *viewOptions) error {
	st := sess.Content.Snapshot()

	status := st.FilterStatus
	if vo.Status != "" {
		var err error
		if status, err = parseStatus(vo.Status); err != nil {
			return err
		}
	}
	ft, err := parseFilterType(vo.Type)
	if err != nil {
		return err
	}
	sess.Service.SetFilter(ft, status, vo.Filter)

	scope := st.InfoFrom
	switch {
	case vo.Category != "":
		scope = content.ScopeCategory
	case vo.Scope != "":
		if scope, err = parseScope(vo.Scope); err != nil {
			return err
		}
	}
	if scope == content.ScopeCategory && vo.Category == "" {
		return app.ErrMissingCategory
	}
	if scope != st.InfoFrom || vo.Category != "" {
		return sess.Service.SetScope(ctx, scope, vo.Category)
	}
	return sess.Service.Load(ctx)
}

// fill pages until the view holds limit entries or the track runs out.
func fill(ctx context.Context, sess *app.Session, limit int) error {
	for len(sess.Pipeline.Entries()) < limit {
		loaded, more := track(sess.Content.Snapshot())
		if !more {
			return nil
		}
		if err := sess.Service.LoadMore(ctx); err != nil {
			return err
		}
		if after, _ := track(sess.Content.Snapshot()); after == loaded {
			return nil
		}
	}
	return nil
}

func track(st content.State) (loaded int, more bool) {
	if st.FilterStatus == content.FilterUnread {
		return len(st.UnreadEntries), st.LoadMoreUnreadVisible
	}
	return len(st.Entries), st.LoadMoreVisible
}

func printEntries(w io.Writer, entries []storage.Entry) {
	bold := color.New(color.Bold)
	unread := color.New(color.FgHiCyan)
	star := color.New(color.FgHiYellow)
	faint := color.New(color.Faint)

	if len(entries) == 0 {
		_, _ = color.New(color.Faint, color.Italic).Fprintln(w, " none")
		return
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.AddRow(bold.Sprint("ID"), "", bold.Sprint("Published"), bold.Sprint("Feed"), bold.Sprint("Title"))
	for _, e := range entries {
		mark := faint.Sprint(" ")
		if e.Status == storage.StatusUnread {
			mark = unread.Sprint("●")
		}
		if e.Starred {
			mark += star.Sprint("★")
		} else {
			mark += " "
		}
		published := ""
		if !e.Published.IsZero() {
			published = e.Published.Local().Format("2006-01-02 15:04")
		}
		tbl.AddRow(e.ID, mark, faint.Sprint(published), render.Truncate(e.Feed.Title, 24), e.Title)
	}
	fmt.Fprintln(w, tbl)
}
