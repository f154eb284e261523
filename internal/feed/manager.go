package feed

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/pders01/fluxrd/internal/config"
	"github.com/pders01/fluxrd/internal/debuglog"
	"github.com/pders01/fluxrd/internal/discover"
	"github.com/pders01/fluxrd/internal/storage"
	"github.com/pders01/fluxrd/internal/validation"
)

// maxPageSize caps how much of an HTML page is read for feed links.
const maxPageSize = 2 << 20

// Indexer receives entries after they are stored, for search.
type Indexer interface {
	Index(entries []storage.Entry) error
}

type Manager struct {
	store        *storage.Store
	fetcher      *Fetcher
	parser       *Parser
	config       *config.Config
	urlValidator *validation.URLValidator
	resolver     *discover.Registry
	indexer      Indexer

	// serializes AddFeed so duplicate checks see each other
	mu sync.Mutex
}

func NewManager(store *storage.Store, cfg *config.Config) *Manager {
	return &Manager{
		store:        store,
		fetcher:      NewFetcher(cfg),
		parser:       NewParser(),
		config:       cfg,
		urlValidator: validation.NewFeedURLValidator(),
		resolver:     discover.DefaultRegistry(),
	}
}

// SetForceRefresh configures the manager to ignore ETag/Last-Modified
// headers and the refresh interval.
func (m *Manager) SetForceRefresh(force bool) {
	m.fetcher.SetIgnoreCache(force)
}

// SetPermissiveValidation allows feeds on localhost and private networks.
func (m *Manager) SetPermissiveValidation(permissive bool) {
	if permissive {
		m.urlValidator = validation.NewServerURLValidator()
	} else {
		m.urlValidator = validation.NewFeedURLValidator()
	}
}

func (m *Manager) SetIndexer(ix Indexer) {
	m.indexer = ix
}

// AddFeed resolves rawURL to a feed address, fetches it once and stores
// the feed and its entries. category may be empty.
func (m *Manager) AddFeed(ctx context.Context, rawURL, category string) (*storage.Feed, error) {
	info, err := m.resolver.Resolve(ctx, strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("resolving feed URL: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	feed, parsed, err := m.fetchNew(ctx, info.FeedURL, category, true)
	if err != nil {
		return nil, err
	}
	if feed.Title == "" {
		feed.Title = info.Title
	}

	if err := m.save(feed, parsed.Entries); err != nil {
		return nil, err
	}
	debuglog.WithFields(map[string]any{"feed": feed.ID, "entries": len(parsed.Entries), "rule": info.Rule}).
		Infof("added feed %s", feed.URL)
	return feed, nil
}

// fetchNew fetches a feed that is not stored yet. When the address serves
// an HTML page and follow is set, the first feed the page links to is
// tried instead.
func (m *Manager) fetchNew(ctx context.Context, rawURL, category string, follow bool) (*storage.Feed, *Parsed, error) {
	normalizedURL, err := m.urlValidator.ValidateAndNormalize(rawURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid feed URL: %w", err)
	}

	feed := &storage.Feed{
		ID:        generateFeedID(normalizedURL),
		URL:       normalizedURL,
		Category:  categoryFor(category),
		UpdatedAt: time.Now(),
	}
	if existing, getErr := m.store.GetFeed(feed.ID); getErr == nil {
		return nil, nil, fmt.Errorf("feed %s already exists", existing.URL)
	}

	resp, updated, err := m.fetcher.Fetch(ctx, feed)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching feed: %w", err)
	}
	if !updated || resp == nil {
		return nil, nil, fmt.Errorf("no content received for %s", normalizedURL)
	}
	defer resp.Body.Close()

	if follow && discover.IsHTML(resp.Header.Get("Content-Type")) {
		links, err := discover.Links(io.LimitReader(resp.Body, maxPageSize), normalizedURL)
		if err != nil {
			return nil, nil, err
		}
		if len(links) == 0 {
			return nil, nil, fmt.Errorf("no feed found at %s", normalizedURL)
		}
		debuglog.Debugf("%s links to %d feeds, using %s", normalizedURL, len(links), links[0])
		return m.fetchNew(ctx, links[0], category, false)
	}

	parsed, err := m.parser.Parse(resp.Body, *feed)
	if err != nil {
		return nil, nil, err
	}
	feed.Title = parsed.Title
	m.fetcher.UpdateFeedMetadata(feed, resp)
	return feed, parsed, nil
}

// RefreshFeed refetches one feed unless it was fetched within the
// refresh interval.
func (m *Manager) RefreshFeed(ctx context.Context, feedID string) error {
	feed, err := m.store.GetFeed(feedID)
	if err != nil {
		return fmt.Errorf("getting feed: %w", err)
	}

	if !m.fetcher.ignoreCache && time.Since(feed.LastFetched) < m.config.Feed.RefreshInterval {
		return nil
	}

	resp, updated, err := m.fetcher.Fetch(ctx, feed)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", feed.URL, err)
	}

	if !updated || resp == nil {
		feed.LastFetched = time.Now()
		if saveErr := m.store.SaveFeed(feed); saveErr != nil {
			return fmt.Errorf("saving feed metadata: %w", saveErr)
		}
		return nil
	}
	defer resp.Body.Close()

	parsed, err := m.parser.Parse(resp.Body, *feed)
	if err != nil {
		return fmt.Errorf("%s: %w", feed.URL, err)
	}

	m.fetcher.UpdateFeedMetadata(feed, resp)
	feed.UpdatedAt = time.Now()
	return m.save(feed, parsed.Entries)
}

func (m *Manager) save(feed *storage.Feed, entries []storage.Entry) error {
	if err := m.store.SaveFeed(feed); err != nil {
		return fmt.Errorf("saving feed: %w", err)
	}
	if err := m.store.SaveEntries(entries); err != nil {
		return fmt.Errorf("saving entries: %w", err)
	}
	if m.indexer != nil {
		if err := m.indexer.Index(entries); err != nil {
			debuglog.Warnf("indexing entries of %s: %v", feed.ID, err)
		}
	}
	return nil
}

// RefreshAllFeeds refreshes every stored feed with a bounded worker pool
// and joins the per-feed errors.
func (m *Manager) RefreshAllFeeds(ctx context.Context) error {
	feeds, err := m.store.GetAllFeeds()
	if err != nil {
		return fmt.Errorf("getting feeds: %w", err)
	}
	if len(feeds) == 0 {
		return nil
	}

	workers := m.config.Feed.Workers
	if workers <= 0 {
		workers = 1
	}

	feedChan := make(chan *storage.Feed, len(feeds))
	errChan := make(chan error, len(feeds))

	var wg sync.WaitGroup
	for i := 0; i < workers && i < len(feeds); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for feed := range feedChan {
				if ctx.Err() != nil {
					errChan <- ctx.Err()
					continue
				}
				if refreshErr := m.RefreshFeed(ctx, feed.ID); refreshErr != nil {
					errChan <- refreshErr
				}
			}
		}()
	}

	for _, feed := range feeds {
		feedChan <- feed
	}
	close(feedChan)

	wg.Wait()
	close(errChan)

	var errs []error
	for err := range errChan {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		debuglog.Warnf("refresh finished with %d errors", len(errs))
	}
	return errors.Join(errs...)
}

func generateFeedID(url string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(url)))[:16]
}

func categoryFor(title string) storage.Category {
	title = strings.TrimSpace(title)
	if title == "" {
		return storage.Category{ID: "uncategorized", Title: "Uncategorized"}
	}
	return storage.Category{ID: strings.ToLower(strings.Join(strings.Fields(title), "-")), Title: title}
}
