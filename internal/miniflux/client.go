// Package miniflux is a client for the parts of the Miniflux v1 REST API
// the reader uses.
package miniflux

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pders01/fluxrd/internal/storage"
)

// statusRemoved marks entries the server keeps only to avoid refetching
// them. They are never shown.
const statusRemoved = "removed"

type entry struct {
	ID          int64     `json:"id"`
	FeedID      int64     `json:"feed_id"`
	Status      string    `json:"status"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Author      string    `json:"author"`
	Content     string    `json:"content"`
	Starred     bool      `json:"starred"`
	PublishedAt time.Time `json:"published_at"`
	ChangedAt   time.Time `json:"changed_at"`
	Feed        feed      `json:"feed"`
}

type feed struct {
	ID       int64    `json:"id"`
	Title    string   `json:"title"`
	FeedURL  string   `json:"feed_url"`
	Category category `json:"category"`
}

type category struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type feedCounters struct {
	Unreads map[string]int `json:"unreads"`
}

type entriesResponse struct {
	Total   int     `json:"total"`
	Entries []entry `json:"entries"`
}

// User is the account behind the API token.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// EntryQuery selects a page of entries.
type EntryQuery struct {
	Status         storage.Status // empty for any
	Starred        bool
	CategoryID     string
	PublishedAfter time.Time
	// ByChange orders by last status change instead of publication.
	ByChange bool
	Offset   int
	Limit    int
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

// Me returns the authenticated user; used to check credentials.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.call(ctx, http.MethodGet, "/v1/me", nil, "current user", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Entries lists a page of entries, newest first.
func (c *Client) Entries(ctx context.Context, q EntryQuery) (storage.EntryPage, error) {
	v := make(url.Values)
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if q.Starred {
		v.Set("starred", "true")
	}
	if !q.PublishedAfter.IsZero() {
		v.Set("published_after", strconv.FormatInt(q.PublishedAfter.Unix(), 10))
	}
	order := "published_at"
	if q.ByChange {
		order = "changed_at"
	}
	v.Set("order", order)
	v.Set("direction", "desc")
	v.Set("offset", strconv.Itoa(max(q.Offset, 0)))
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}

	path := "/v1/entries"
	if q.CategoryID != "" {
		path = "/v1/categories/" + url.PathEscape(q.CategoryID) + "/entries"
	}

	var resp entriesResponse
	if err := c.call(ctx, http.MethodGet, path+"?"+v.Encode(), nil, "entries", &resp); err != nil {
		return storage.EntryPage{}, err
	}

	page := storage.EntryPage{Total: resp.Total, Entries: make([]storage.Entry, 0, len(resp.Entries))}
	for _, e := range resp.Entries {
		if e.Status == statusRemoved {
			page.Total = max(page.Total-1, 0)
			continue
		}
		page.Entries = append(page.Entries, e.toStorage())
	}
	return page, nil
}

// Entry fetches one entry by id.
func (c *Client) Entry(ctx context.Context, id string) (storage.Entry, error) {
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return storage.Entry{}, fmt.Errorf("invalid entry id %q: %w", id, err)
	}
	var e entry
	if err := c.call(ctx, http.MethodGet, "/v1/entries/"+id, nil, "entry", &e); err != nil {
		return storage.Entry{}, err
	}
	if e.Status == statusRemoved {
		return storage.Entry{}, fmt.Errorf("entry %s was removed: %w", id, storage.ErrNotFound)
	}
	return e.toStorage(), nil
}

// UnreadCounts returns the server's unread totals per feed, summed per
// category through the feed list.
func (c *Client) UnreadCounts(ctx context.Context) (storage.UnreadCounts, error) {
	var counters feedCounters
	if err := c.call(ctx, http.MethodGet, "/v1/feeds/counters", nil, "feed counters", &counters); err != nil {
		return storage.UnreadCounts{}, err
	}
	var feeds []feed
	if err := c.call(ctx, http.MethodGet, "/v1/feeds", nil, "feeds", &feeds); err != nil {
		return storage.UnreadCounts{}, err
	}

	counts := storage.UnreadCounts{Feeds: make(map[string]int, len(counters.Unreads)), Categories: make(map[string]int)}
	for id, n := range counters.Unreads {
		counts.Feeds[id] = n
	}
	for _, f := range feeds {
		id := strconv.FormatInt(f.ID, 10)
		if n := counts.Feeds[id]; n > 0 {
			counts.Categories[strconv.FormatInt(f.Category.ID, 10)] += n
		}
	}
	return counts, nil
}

// UpdateEntriesStatus sets the status of every entry in ids.
func (c *Client) UpdateEntriesStatus(ctx context.Context, ids []string, status storage.Status) error {
	numeric := make([]int64, 0, len(ids))
	for _, id := range ids {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid entry id %q: %w", id, err)
		}
		numeric = append(numeric, n)
	}

	body, err := json.Marshal(struct {
		EntryIDs []int64 `json:"entry_ids"`
		Status   string  `json:"status"`
	}{numeric, string(status)})
	if err != nil {
		return fmt.Errorf("encode status update: %w", err)
	}
	return c.call(ctx, http.MethodPut, "/v1/entries", body, "update entries", nil)
}

// ToggleBookmark flips the starred flag of one entry.
func (c *Client) ToggleBookmark(ctx context.Context, id string) error {
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return fmt.Errorf("invalid entry id %q: %w", id, err)
	}
	return c.call(ctx, http.MethodPut, "/v1/entries/"+id+"/bookmark", nil, "toggle bookmark", nil)
}

func (c *Client) call(ctx context.Context, method, path string, body []byte, resource string, out any) error {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := c.newRequest(ctx, method, path, r)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%s failed: invalid API token", resource)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s failed with status %d: %s", resource, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", resource, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Auth-Token", c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (e entry) toStorage() storage.Entry {
	out := storage.Entry{
		ID:        strconv.FormatInt(e.ID, 10),
		Title:     e.Title,
		Content:   e.Content,
		Author:    e.Author,
		URL:       e.URL,
		Status:    storage.StatusUnread,
		Starred:   e.Starred,
		Published: e.PublishedAt,
		Feed: storage.Feed{
			ID:    strconv.FormatInt(e.Feed.ID, 10),
			URL:   e.Feed.FeedURL,
			Title: e.Feed.Title,
			Category: storage.Category{
				ID:    strconv.FormatInt(e.Feed.Category.ID, 10),
				Title: e.Feed.Category.Title,
			},
		},
	}
	if e.Feed.ID == 0 {
		out.Feed.ID = strconv.FormatInt(e.FeedID, 10)
	}
	if e.Status == string(storage.StatusRead) {
		out.Status = storage.StatusRead
		out.ReadAt = e.ChangedAt
	}
	return out
}
