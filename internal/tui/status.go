package tui

import (
	"fmt"
)

// StatusKind picks the status line style.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusError
)

// Canonical short status messages used across the app.
const (
	MsgLoading       = "Loading…"
	MsgRefreshing    = "Refreshing…"
	MsgOpening       = "Opening…"
	MsgAllLoaded     = "Everything is loaded"
	MsgInFlight      = "Still saving this entry…"
	MsgNoRefresh     = "The server refreshes feeds itself"
	MsgFilterCleared = "Filter cleared"
	MsgStarred       = "Starred"
	MsgUnstarred     = "Unstarred"
	MsgMarkedRead    = "Marked as read"
	MsgMarkedUnread  = "Marked as unread"
	MsgLinkOpened    = "Opened link"
	MsgNoOpener      = "Opening links is not set up"
)

func MsgLoaded(shown, total int) string {
	if shown == 1 {
		return fmt.Sprintf("1 entry • %d total", total)
	}
	return fmt.Sprintf("%d entries • %d total", shown, total)
}

func MsgScope(scope, category string) string {
	if category != "" {
		return fmt.Sprintf("Showing %s %s", scope, category)
	}
	return "Showing " + scope
}

func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
