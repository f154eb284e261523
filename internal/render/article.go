package render

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/pders01/fluxrd/internal/storage"
)

// Markdown builds the article page for an entry.
func Markdown(e storage.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", strings.TrimSpace(e.Title))

	meta := []string{}
	if e.Feed.Title != "" {
		meta = append(meta, e.Feed.Title)
	}
	if e.Author != "" {
		meta = append(meta, e.Author)
	}
	if !e.Published.IsZero() {
		meta = append(meta, e.Published.Format(time.RFC1123))
	}
	if len(meta) > 0 {
		fmt.Fprintf(&b, "*%s*\n\n", strings.Join(meta, " · "))
	}
	if e.Starred {
		b.WriteString("★ starred\n\n")
	}
	if e.URL != "" {
		fmt.Fprintf(&b, "[Read Online](%s)\n\n", e.URL)
	}
	b.WriteString("---\n\n")
	b.WriteString(HTMLToMarkdown(e.Content))
	return b.String()
}

// Renderer renders article markdown for a terminal, reusing the glamour
// renderer until the wrap width drifts.
type Renderer struct {
	minWidth int
	maxWidth int

	mu    sync.Mutex
	term  *glamour.TermRenderer
	width int
}

func NewRenderer(minWidth, maxWidth int) *Renderer {
	if minWidth <= 0 {
		minWidth = 40
	}
	if maxWidth < minWidth {
		maxWidth = max(120, minWidth)
	}
	return &Renderer{minWidth: minWidth, maxWidth: maxWidth}
}

// WrapWidth picks a readable column count for a terminal width.
func (r *Renderer) WrapWidth(termWidth int) int {
	if termWidth < 50 {
		return max(termWidth-4, 20)
	}
	w := termWidth * 9 / 10
	w = min(w, r.maxWidth)
	return max(w, r.minWidth)
}

// Render formats e for a terminal of the given width.
func (r *Renderer) Render(e storage.Entry, termWidth int) (string, error) {
	term, err := r.renderer(r.WrapWidth(termWidth))
	if err != nil {
		return "", fmt.Errorf("failed to initialize renderer: %w", err)
	}
	out, err := term.Render(Markdown(e))
	if err != nil {
		return "", fmt.Errorf("failed to render entry %s: %w", e.ID, err)
	}
	return out, nil
}

func (r *Renderer) renderer(width int) (*glamour.TermRenderer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	diff := r.width - width
	if r.term != nil && diff <= 10 && diff >= -10 {
		return r.term, nil
	}
	term, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	r.term = term
	r.width = width
	return term, nil
}
