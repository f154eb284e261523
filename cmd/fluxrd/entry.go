package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pders01/fluxrd/internal/app"
	"github.com/pders01/fluxrd/internal/media"
	"github.com/pders01/fluxrd/internal/render"
	"github.com/pders01/fluxrd/internal/storage"
)

const fallbackWidth = 100

type readOptions struct {
	quiet bool
	raw   bool
	width int
}

func addRead(topLevel *cobra.Command, o *rootOptions) {
	ro := &readOptions{}
	cmd := &cobra.Command{
		Use:   "read <id>",
		Short: "Print an entry and mark it read.",
		Example: `
fluxrd read 7f3a9c0e12ab44d0e1f2a3b4
fluxrd read 1234 --raw | less
fluxrd read 1234 --quiet
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, sess, ent, err := openEntry(cmd.Context(), o, args[0])
			if err != nil {
				return err
			}
			defer e.Close()

			if err := sess.Controller.Open(cmd.Context(), ent); err != nil {
				return err
			}
			if ro.quiet {
				return nil
			}

			opened := *sess.Content.Snapshot().ActiveContent
			if ro.raw {
				fmt.Fprintln(cmd.OutOrStdout(), render.Markdown(opened))
				return nil
			}
			r := render.NewRenderer(e.cfg.UI.Article.WordWrapMinWidth, e.cfg.UI.Article.WordWrapMaxWidth)
			out, err := r.Render(opened, terminalWidth(ro.width))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&ro.quiet, "quiet", "q", false, "Only mark the entry read")
	cmd.Flags().BoolVar(&ro.raw, "raw", false, "Print markdown instead of styled output")
	cmd.Flags().IntVarP(&ro.width, "width", "w", 0, "Wrap width (defaults to the terminal width)")
	topLevel.AddCommand(cmd)
}

func addUnread(topLevel *cobra.Command, o *rootOptions) {
	cmd := &cobra.Command{
		Use:   "unread <id>",
		Short: "Mark an entry unread.",
		Example: `
fluxrd unread 1234
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, sess, ent, err := openEntry(cmd.Context(), o, args[0])
			if err != nil {
				return err
			}
			defer e.Close()

			if ent.Status == storage.StatusUnread {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is already unread\n", ent.ID)
				return nil
			}
			sess.Content.SetActiveContent(&ent)
			if err := sess.Controller.ToggleStatus(cmd.Context()); err != nil {
				return err
			}
			_, _ = color.New(color.FgHiCyan).Fprintf(cmd.OutOrStdout(), "● %s\n", ent.Title)
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}

func addStar(topLevel *cobra.Command, o *rootOptions) {
	cmd := &cobra.Command{
		Use:   "star <id>",
		Short: "Toggle the starred flag of an entry.",
		Example: `
fluxrd star 1234
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, sess, ent, err := openEntry(cmd.Context(), o, args[0])
			if err != nil {
				return err
			}
			defer e.Close()

			sess.Content.SetActiveContent(&ent)
			if err := sess.Controller.ToggleStarred(cmd.Context()); err != nil {
				return err
			}
			if sess.Content.Snapshot().ActiveContent.Starred {
				_, _ = color.New(color.FgHiYellow).Fprintf(cmd.OutOrStdout(), "★ %s\n", ent.Title)
			} else {
				_, _ = color.New(color.Faint).Fprintf(cmd.OutOrStdout(), "☆ %s\n", ent.Title)
			}
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}

func addOpen(topLevel *cobra.Command, o *rootOptions) {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "open <id>",
		Short: "Open the link of an entry in an external application.",
		Example: `
fluxrd open 1234
fluxrd open 1234 --dry-run
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, ent, err := openEntry(cmd.Context(), o, args[0])
			if err != nil {
				return err
			}
			defer e.Close()

			launcher, err := media.NewLauncher(e.cfg.Media)
			if err != nil {
				return err
			}
			if dryRun {
				name, argv, err := launcher.Command(ent.URL)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(append([]string{name}, argv...), " "))
				return nil
			}
			return launcher.Open(ent.URL)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the command instead of running it")
	topLevel.AddCommand(cmd)
}

// openEntry opens the environment and fetches one entry from the backend.
// The caller closes the returned env.
func openEntry(ctx context.Context, o *rootOptions, id string) (*env, *app.Session, storage.Entry, error) {
	e, err := o.open()
	if err != nil {
		return nil, nil, storage.Entry{}, err
	}
	sess, err := e.session()
	if err != nil {
		_ = e.Close()
		return nil, nil, storage.Entry{}, err
	}
	ent, err := e.backend.Entry(ctx, id)
	if err != nil {
		_ = e.Close()
		return nil, nil, storage.Entry{}, fmt.Errorf("failed to get entry: %w", err)
	}
	return e, sess, ent, nil
}

func terminalWidth(flag int) int {
	if flag > 0 {
		return flag
	}
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return fallbackWidth
}
