package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/fluxrd/internal/storage"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  hello \n world ", "hello world"},
		{"markup", "<p>Hello <b>bold</b></p><p>next</p>", "Hello boldnext"},
		{"drops scripts", "<p>a</p><script>alert(1)</script><style>p{}</style>", "a"},
		{"entities", "fish &amp; chips", "fish & chips"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlainText(tt.in))
		})
	}
}

func TestHTMLToMarkdown(t *testing.T) {
	md := HTMLToMarkdown(`<h2>Intro</h2><p>See <a href="https://example.com">this</a>.</p>`)
	assert.Contains(t, md, "## Intro")
	assert.Contains(t, md, "[this](https://example.com)")
	assert.Empty(t, HTMLToMarkdown("   "))
}

func TestMarkdown(t *testing.T) {
	e := storage.Entry{
		ID:        "1",
		Title:     " Release notes ",
		Author:    "ada",
		URL:       "https://example.com/post",
		Content:   "<p>Body</p>",
		Starred:   true,
		Published: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Feed:      storage.Feed{Title: "Example"},
	}

	md := Markdown(e)
	assert.True(t, strings.HasPrefix(md, "# Release notes\n\n"))
	assert.Contains(t, md, "*Example · ada · Sun, 01 Mar 2026 12:00:00 UTC*")
	assert.Contains(t, md, "★ starred")
	assert.Contains(t, md, "[Read Online](https://example.com/post)")
	assert.True(t, strings.HasSuffix(md, "---\n\nBody"))
}

func TestRenderer_WrapWidth(t *testing.T) {
	r := NewRenderer(40, 120)

	tests := []struct {
		term int
		want int
	}{
		{200, 120},
		{100, 90},
		{50, 45},
		{45, 41},
		{10, 20},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.WrapWidth(tt.term), "term width %d", tt.term)
	}
}

func TestRenderer_ReusesTermRenderer(t *testing.T) {
	r := NewRenderer(0, 0)
	e := storage.Entry{ID: "1", Title: "Hello", Content: "<p>World</p>"}

	out, err := r.Render(e, 100)
	require.NoError(t, err)
	assert.Contains(t, out, "World")
	first := r.term

	_, err = r.Render(e, 105)
	require.NoError(t, err)
	assert.Same(t, first, r.term)

	_, err = r.Render(e, 200)
	require.NoError(t, err)
	assert.NotSame(t, first, r.term)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 5))
	assert.Equal(t, "hel…", Truncate("hello", 4))
	assert.Equal(t, "…", Truncate("hello", 1))
	assert.Equal(t, "", Truncate("hello", 0))
	assert.Equal(t, "héll…", Truncate("héllo wörld", 5))
}

func TestTruncateMiddle(t *testing.T) {
	assert.Equal(t, "https:/…om/post", TruncateMiddle("https://example.com/post", 15))
	assert.Equal(t, "short", TruncateMiddle("short", 10))
	assert.Equal(t, "x…b", TruncateMiddle("xxab", 3))
	assert.Equal(t, "…b", TruncateMiddle("xxab", 2))
	assert.Equal(t, "…", TruncateMiddle("abc", 1))
	assert.Equal(t, "", TruncateMiddle("abc", 0))
}
