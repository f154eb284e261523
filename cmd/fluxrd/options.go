package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pders01/fluxrd/internal/content"
)

// viewOptions select which slice of the article view a command prints.
type viewOptions struct {
	Scope    string
	Status   string
	Category string
	Filter   string
	Type     string
	Limit    int
}

func addViewFlags(cmd *cobra.Command, o *viewOptions) {
	cmd.Flags().StringVar(&o.Scope, "scope", "", "One of all, today, starred, history or category (defaults to settings.home_page)")
	cmd.Flags().StringVar(&o.Status, "status", "", "One of all or unread (defaults to settings.show_status)")
	cmd.Flags().StringVar(&o.Category, "category", "", "Category id, implies --scope category")
	cmd.Flags().StringVarP(&o.Filter, "filter", "f", "", "Only show entries containing this text")
	cmd.Flags().StringVarP(&o.Type, "type", "t", "title", "Field the filter applies to: title, content or author")
	cmd.Flags().IntVarP(&o.Limit, "limit", "n", 0, "Print at most n entries")
}

func parseScope(s string) (content.Scope, error) {
	switch sc := content.Scope(strings.ToLower(s)); sc {
	case content.ScopeAll, content.ScopeToday, content.ScopeStarred, content.ScopeHistory, content.ScopeCategory:
		return sc, nil
	}
	return "", fmt.Errorf("unknown scope %q", s)
}

func parseStatus(s string) (content.FilterStatus, error) {
	switch st := content.FilterStatus(strings.ToLower(s)); st {
	case content.FilterAll, content.FilterUnread:
		return st, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

func parseFilterType(s string) (content.FilterType, error) {
	switch strings.ToLower(s) {
	case "title", "":
		return content.FilterTitle, nil
	case "content":
		return content.FilterContent, nil
	case "author":
		return content.FilterAuthor, nil
	}
	return "", fmt.Errorf("unknown filter type %q", s)
}
