package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/fluxrd/internal/config"
	"github.com/pders01/fluxrd/internal/discover"
	"github.com/pders01/fluxrd/internal/storage"
)

func setupManager(t *testing.T) (*Manager, *storage.Store) {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	m := NewManager(store, config.TestConfig())
	m.SetPermissiveValidation(true)
	return m, store
}

func feedServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		if r.Header.Get("If-None-Match") == "\"v1\"" {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", "\"v1\"")
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssDoc))
	}))
	t.Cleanup(server.Close)
	return server
}

type recordingIndexer struct {
	mu      sync.Mutex
	indexed int
}

func (r *recordingIndexer) Index(entries []storage.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indexed += len(entries)
	return nil
}

func TestAddFeed(t *testing.T) {
	m, store := setupManager(t)
	ix := &recordingIndexer{}
	m.SetIndexer(ix)
	server := feedServer(t, nil)

	feed, err := m.AddFeed(context.Background(), server.URL+"/rss", "Dev Blogs")
	require.NoError(t, err)

	assert.Equal(t, "Test RSS Feed", feed.Title)
	assert.Equal(t, "dev-blogs", feed.Category.ID)
	assert.Equal(t, "\"v1\"", feed.ETag)

	page, err := store.QueryEntries(storage.EntryFilter{FeedID: feed.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, "dev-blogs", page.Entries[0].Feed.Category.ID)
	assert.Equal(t, 2, ix.indexed)

	_, err = m.AddFeed(context.Background(), server.URL+"/rss", "")
	assert.ErrorContains(t, err, "already exists")
}

func TestAddFeed_FollowsPageLinks(t *testing.T) {
	m, _ := setupManager(t)
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/feed.xml":
			w.Header().Set("Content-Type", "application/rss+xml")
			_, _ = w.Write([]byte(rssDoc))
		case "/empty":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html><head></head></html>"))
		default:
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = fmt.Fprintf(w, `<html><head><link rel="alternate" type="application/rss+xml" href="%s/feed.xml"></head></html>`, server.URL)
		}
	}))
	defer server.Close()

	feed, err := m.AddFeed(context.Background(), server.URL+"/blog", "")
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/feed.xml", feed.URL)
	assert.Equal(t, "Test RSS Feed", feed.Title)

	_, err = m.AddFeed(context.Background(), server.URL+"/empty", "")
	assert.ErrorContains(t, err, "no feed found")
}

type rewriteRule struct{ target string }

func (rewriteRule) Name() string              { return "rewrite" }
func (rewriteRule) Priority() int             { return 1 }
func (rewriteRule) CanHandle(u *url.URL) bool { return u.Host == "page.example" }
func (r rewriteRule) Resolve(context.Context, *url.URL) (discover.FeedInfo, error) {
	return discover.FeedInfo{FeedURL: r.target, Title: "Suggested"}, nil
}

func TestAddFeed_UsesResolverRules(t *testing.T) {
	m, _ := setupManager(t)
	server := feedServer(t, nil)
	m.resolver = discover.NewRegistry(rewriteRule{target: server.URL + "/rss"})

	feed, err := m.AddFeed(context.Background(), "https://page.example/channel", "")
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/rss", feed.URL)
	assert.Equal(t, "Test RSS Feed", feed.Title, "the feed's own title wins over the suggestion")
}

func TestAddFeed_Validation(t *testing.T) {
	m, _ := setupManager(t)
	m.SetPermissiveValidation(false)

	_, err := m.AddFeed(context.Background(), "", "")
	assert.ErrorContains(t, err, "invalid feed URL")

	_, err = m.AddFeed(context.Background(), "http://localhost:1234/feed", "")
	assert.ErrorContains(t, err, "localhost")
}

func TestAddFeed_ServerError(t *testing.T) {
	m, store := setupManager(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := m.AddFeed(context.Background(), server.URL, "")
	assert.ErrorContains(t, err, "HTTP error: 404")

	feeds, err := store.GetAllFeeds()
	require.NoError(t, err)
	assert.Empty(t, feeds)
}

func TestRefreshFeed_RespectsIntervalAndCache(t *testing.T) {
	m, store := setupManager(t)
	var hits int32
	server := feedServer(t, &hits)

	feed, err := m.AddFeed(context.Background(), server.URL, "")
	require.NoError(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&hits))

	// fetched moments ago, inside the refresh interval
	require.NoError(t, m.RefreshFeed(context.Background(), feed.ID))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	// read state survives a forced refresh
	page, err := store.QueryEntries(storage.EntryFilter{FeedID: feed.ID})
	require.NoError(t, err)
	require.NoError(t, store.SetEntriesStatus([]string{page.Entries[0].ID}, storage.StatusRead))

	m.SetForceRefresh(true)
	require.NoError(t, m.RefreshFeed(context.Background(), feed.ID))
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))

	got, err := store.GetEntry(page.Entries[0].ID)
	require.NoError(t, err)
	assert.Equal(t, storage.StatusRead, got.Status)

	assert.Error(t, m.RefreshFeed(context.Background(), "missing"))
}

func TestRefreshAllFeeds(t *testing.T) {
	t.Run("no feeds", func(t *testing.T) {
		m, _ := setupManager(t)
		assert.NoError(t, m.RefreshAllFeeds(context.Background()))
	})

	t.Run("joins per feed errors", func(t *testing.T) {
		m, store := setupManager(t)
		var hits int32
		good := feedServer(t, &hits)

		_, err := m.AddFeed(context.Background(), good.URL+"/a", "")
		require.NoError(t, err)
		for i := 0; i < 3; i++ {
			require.NoError(t, store.SaveFeed(&storage.Feed{
				ID:  fmt.Sprintf("broken-%d", i),
				URL: "http://127.0.0.1:1/unreachable",
			}))
		}

		m.SetForceRefresh(true)
		err = m.RefreshAllFeeds(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unreachable")
		assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	})
}

func TestCategoryFor(t *testing.T) {
	assert.Equal(t, storage.Category{ID: "uncategorized", Title: "Uncategorized"}, categoryFor("  "))
	assert.Equal(t, storage.Category{ID: "open-source-news", Title: "Open  Source News"}, categoryFor("Open  Source News"))
}

func TestGenerateFeedID(t *testing.T) {
	a := generateFeedID("https://blog.test/rss")
	assert.Len(t, a, 16)
	assert.Equal(t, a, generateFeedID("https://blog.test/rss"))
	assert.NotEqual(t, a, generateFeedID("https://blog.test/atom"))
}
