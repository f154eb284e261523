package discover

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRule struct {
	name     string
	priority int
	match    string
	err      error
}

func (s stubRule) Name() string  { return s.name }
func (s stubRule) Priority() int { return s.priority }
func (s stubRule) CanHandle(u *url.URL) bool {
	return strings.Contains(u.String(), s.match)
}
func (s stubRule) Resolve(_ context.Context, u *url.URL) (FeedInfo, error) {
	return FeedInfo{FeedURL: u.String() + "/" + s.name}, s.err
}

func TestRegistry_PriorityWins(t *testing.T) {
	r := NewRegistry(
		stubRule{name: "low", priority: 1, match: "example"},
		stubRule{name: "high", priority: 10, match: "example"},
		stubRule{name: "other", priority: 100, match: "elsewhere"},
	)

	rule := r.Find("https://example.com")
	require.NotNil(t, rule)
	assert.Equal(t, "high", rule.Name())

	info, err := r.Resolve(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/high", info.FeedURL)
	assert.Equal(t, "https://example.com", info.OriginalURL)
	assert.Equal(t, "high", info.Rule)
}

func TestRegistry_Passthrough(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Find("https://example.com"))

	info, err := r.Resolve(context.Background(), "https://example.com/feed.xml")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/feed.xml", info.FeedURL)
	assert.Empty(t, info.Rule)
}

func TestRegistry_RuleError(t *testing.T) {
	boom := errors.New("boom")
	r := NewRegistry(stubRule{name: "bad", match: "example", err: boom})
	_, err := r.Resolve(context.Background(), "https://example.com")
	assert.ErrorIs(t, err, boom)
}

func TestDefaultRules(t *testing.T) {
	r := DefaultRegistry()
	tests := []struct {
		in, feed, title, rule string
	}{
		{"https://www.reddit.com/r/golang/", "https://www.reddit.com/r/golang.rss", "Reddit - r/golang", "reddit"},
		{"https://old.reddit.com/r/golang?sort=new", "https://www.reddit.com/r/golang.rss", "Reddit - r/golang", "reddit"},
		{"https://reddit.com/user/spez", "https://www.reddit.com/user/spez.rss", "Reddit - u/spez", "reddit"},
		{"https://www.youtube.com/channel/UC123/videos", "https://www.youtube.com/feeds/videos.xml?channel_id=UC123", "", "youtube"},
		{"https://youtube.com/playlist?list=PL9", "https://www.youtube.com/feeds/videos.xml?playlist_id=PL9", "", "youtube"},
		{"https://www.youtube.com/@golang", "https://www.youtube.com/@golang", "", ""},
		{"https://go.dev/blog/feed.atom", "https://go.dev/blog/feed.atom", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			info, err := r.Resolve(context.Background(), tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.feed, info.FeedURL)
			assert.Equal(t, tt.title, info.Title)
			assert.Equal(t, tt.rule, info.Rule)
		})
	}

	_, err := r.Resolve(context.Background(), "https://www.reddit.com/r/")
	assert.Error(t, err)
}

func TestLinks(t *testing.T) {
	page := `<html><head>
<link rel="stylesheet" href="/style.css">
<link rel="alternate" type="application/rss+xml" href="/feed.xml" title="RSS">
<link rel="alternate" type="application/atom+xml" href="https://cdn.example.com/atom.xml">
<link rel="alternate" type="text/html" hreflang="de" href="/de/">
<link rel="alternate" type="application/rss+xml" href="/feed.xml">
</head><body></body></html>`

	links, err := Links(strings.NewReader(page), "https://example.com/blog/post")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/feed.xml", "https://cdn.example.com/atom.xml"}, links)

	links, err = Links(strings.NewReader("<p>no head</p>"), "https://example.com")
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestIsHTML(t *testing.T) {
	assert.True(t, IsHTML("text/html; charset=utf-8"))
	assert.True(t, IsHTML("application/xhtml+xml"))
	assert.False(t, IsHTML("application/rss+xml"))
	assert.False(t, IsHTML(""))
}
