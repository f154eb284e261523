package feed

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/pders01/fluxrd/internal/config"
	"github.com/pders01/fluxrd/internal/storage"
)

type Fetcher struct {
	client       *http.Client
	userAgent    string
	defaultRetry time.Duration
	ignoreCache  bool
}

func NewFetcher(cfg *config.Config) *Fetcher {
	return &Fetcher{
		client:       &http.Client{Timeout: cfg.Feed.HTTPTimeout},
		userAgent:    cfg.Feed.UserAgent,
		defaultRetry: cfg.Feed.DefaultRetryAfter,
	}
}

// SetIgnoreCache makes Fetch skip the conditional request headers.
func (f *Fetcher) SetIgnoreCache(ignore bool) {
	f.ignoreCache = ignore
}

// Fetch performs a conditional GET. A nil response with updated == false
// means the feed has not changed since the last fetch.
func (f *Fetcher) Fetch(ctx context.Context, feed *storage.Feed) (resp *http.Response, updated bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/feed+json, application/xml, text/xml")

	if !f.ignoreCache {
		if feed.ETag != "" {
			req.Header.Set("If-None-Match", feed.ETag)
		}
		if feed.LastModified != "" {
			req.Header.Set("If-Modified-Since", feed.LastModified)
		}
	}

	resp, err = f.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("fetching feed: %w", err)
	}

	if resp.StatusCode == http.StatusNotModified {
		resp.Body.Close()
		return nil, false, nil
	}

	if resp.StatusCode >= 400 {
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
			return nil, false, fmt.Errorf("HTTP error: %d (retry after %s)", resp.StatusCode, f.RetryAfter(resp))
		}
		return nil, false, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	return resp, true, nil
}

func (f *Fetcher) UpdateFeedMetadata(feed *storage.Feed, resp *http.Response) {
	if etag := resp.Header.Get("ETag"); etag != "" {
		feed.ETag = etag
	}
	if lastMod := resp.Header.Get("Last-Modified"); lastMod != "" {
		feed.LastModified = lastMod
	}
	feed.LastFetched = time.Now()
}

// RetryAfter reads the Retry-After header in either its seconds or its
// HTTP-date form.
func (f *Fetcher) RetryAfter(resp *http.Response) time.Duration {
	value := resp.Header.Get("Retry-After")
	if value == "" {
		return f.defaultRetry
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
		return 0
	}
	return f.defaultRetry
}
