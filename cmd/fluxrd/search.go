package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/pders01/fluxrd/internal/render"
)

func addSearch(topLevel *cobra.Command, o *rootOptions) {
	limit := 20
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over cached entries.",
		Example: `
fluxrd search generics
fluxrd search "release notes" -n 5
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.open()
			if err != nil {
				return err
			}
			defer e.Close()

			hits, err := e.index.Search(strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			if len(hits) == 0 {
				_, _ = color.New(color.Faint, color.Italic).Fprintln(cmd.OutOrStdout(), " no matches")
				return nil
			}

			bold := color.New(color.Bold)
			faint := color.New(color.Faint)
			tbl := uitable.New()
			tbl.Separator = "  "
			tbl.MaxColWidth = 60
			tbl.AddRow(bold.Sprint("ID"), bold.Sprint("Score"), bold.Sprint("Feed"), bold.Sprint("Title"))
			for _, h := range hits {
				tbl.AddRow(h.ID, faint.Sprintf("%.2f", h.Score), render.Truncate(h.FeedTitle, 24), h.Title)
			}
			fmt.Fprintln(cmd.OutOrStdout(), tbl)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", limit, "Maximum number of results")
	topLevel.AddCommand(cmd)
}
