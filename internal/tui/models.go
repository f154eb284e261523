package tui

type View int

const (
	ViewEntries View = iota
	ViewReader
	ViewFilter
)
