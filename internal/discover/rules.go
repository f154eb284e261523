package discover

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// RedditRule maps a subreddit or user page to its .rss listing.
type RedditRule struct{}

func (RedditRule) Name() string  { return "reddit" }
func (RedditRule) Priority() int { return 50 }

func (RedditRule) CanHandle(u *url.URL) bool {
	if !hostIs(u, "reddit.com", "old.reddit.com") {
		return false
	}
	return strings.HasPrefix(u.Path, "/r/") || strings.HasPrefix(u.Path, "/user/")
}

func (RedditRule) Resolve(_ context.Context, u *url.URL) (FeedInfo, error) {
	path := strings.TrimSuffix(u.Path, "/")
	if strings.HasSuffix(path, ".rss") {
		return FeedInfo{FeedURL: u.String()}, nil
	}
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(parts) < 2 || parts[1] == "" {
		return FeedInfo{}, fmt.Errorf("reddit URL %s names no subreddit", u)
	}

	feed := *u
	feed.Host = "www.reddit.com"
	feed.Path = path + ".rss"
	feed.RawQuery = ""
	feed.Fragment = ""

	prefix := "r/"
	if parts[0] == "user" {
		prefix = "u/"
	}
	return FeedInfo{FeedURL: feed.String(), Title: "Reddit - " + prefix + parts[1]}, nil
}

// YouTubeRule maps channel and playlist pages to YouTube's Atom feeds.
// Handle URLs (/@name) need the channel id from the page, which the
// HTML link discovery finds instead.
type YouTubeRule struct{}

func (YouTubeRule) Name() string  { return "youtube" }
func (YouTubeRule) Priority() int { return 50 }

func (YouTubeRule) CanHandle(u *url.URL) bool {
	if !hostIs(u, "youtube.com", "m.youtube.com") {
		return false
	}
	return strings.HasPrefix(u.Path, "/channel/") || (u.Path == "/playlist" && u.Query().Get("list") != "")
}

func (YouTubeRule) Resolve(_ context.Context, u *url.URL) (FeedInfo, error) {
	q := url.Values{}
	if u.Path == "/playlist" {
		q.Set("playlist_id", u.Query().Get("list"))
	} else {
		id := strings.Split(strings.TrimPrefix(u.Path, "/channel/"), "/")[0]
		if id == "" {
			return FeedInfo{}, fmt.Errorf("youtube URL %s names no channel", u)
		}
		q.Set("channel_id", id)
	}
	return FeedInfo{FeedURL: "https://www.youtube.com/feeds/videos.xml?" + q.Encode()}, nil
}
