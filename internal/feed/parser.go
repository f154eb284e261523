package feed

import (
	"crypto/sha256"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/pders01/fluxrd/internal/storage"
)

type Parser struct {
	parser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		parser: gofeed.NewParser(),
	}
}

// Parsed is the result of parsing one feed document.
type Parsed struct {
	Title   string
	Entries []storage.Entry
}

// Parse reads RSS, Atom or JSON Feed from reader. Entries carry a copy of
// owner so they can be filtered by feed and category.
func (p *Parser) Parse(reader io.Reader, owner storage.Feed) (*Parsed, error) {
	doc, err := p.parser.Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	owner.Title = firstNonEmpty(owner.Title, strings.TrimSpace(doc.Title), owner.URL)
	now := time.Now()

	entries := make([]storage.Entry, 0, len(doc.Items))
	for _, item := range doc.Items {
		e := storage.Entry{
			ID:      generateID(owner.ID, item),
			Title:   strings.TrimSpace(item.Title),
			Content: getContent(item),
			Author:  getAuthor(item),
			URL:     item.Link,
			Status:  storage.StatusUnread,
			Feed:    owner,
		}

		switch {
		case item.PublishedParsed != nil:
			e.Published = *item.PublishedParsed
		case item.UpdatedParsed != nil:
			e.Published = *item.UpdatedParsed
		default:
			e.Published = now
		}

		entries = append(entries, e)
	}

	return &Parsed{Title: owner.Title, Entries: entries}, nil
}

func getContent(item *gofeed.Item) string {
	if item.Content != "" {
		return item.Content
	}
	return item.Description
}

func getAuthor(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}
	for _, a := range item.Authors {
		if a != nil && a.Name != "" {
			return a.Name
		}
	}
	return ""
}

// generateID derives a stable id so refetching a feed updates entries in
// place instead of duplicating them.
func generateID(feedID string, item *gofeed.Item) string {
	key := firstNonEmpty(item.GUID, item.Link)
	if key == "" {
		key = item.Title + "\x00" + item.Published
	}
	sum := sha256.Sum256([]byte(feedID + "\x00" + key))
	return fmt.Sprintf("%x", sum[:12])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
