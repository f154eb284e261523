// Package search keeps a bleve full-text index over stored entries.
package search

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/pders01/fluxrd/internal/render"
	"github.com/pders01/fluxrd/internal/storage"
)

// Hit is one search result.
type Hit struct {
	ID        string
	Title     string
	FeedID    string
	FeedTitle string
	URL       string
	Score     float64
}

type Index struct {
	idx bleve.Index
}

// NewIndex opens the index at path, creating it when missing. An empty
// path keeps the index in memory.
func NewIndex(path string) (*Index, error) {
	if path == "" {
		idx, err := bleve.NewMemOnly(buildMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory index: %w", err)
		}
		return &Index{idx: idx}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}
	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.New(path, buildMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open index %s: %w", path, err)
	}
	return &Index{idx: idx}, nil
}

func buildMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	text := func(store bool) *mapping.FieldMapping {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = standard.Name
		fm.Store = store
		return fm
	}
	exact := bleve.NewTextFieldMapping()
	exact.Analyzer = keyword.Name
	exact.Store = true

	dm := bleve.NewDocumentMapping()
	dm.AddFieldMappingsAt("title", text(true))
	dm.AddFieldMappingsAt("content", text(false))
	dm.AddFieldMappingsAt("author", text(false))
	dm.AddFieldMappingsAt("url", text(true))
	dm.AddFieldMappingsAt("feed_title", text(true))
	dm.AddFieldMappingsAt("feed_id", exact)

	im.DefaultMapping = dm
	return im
}

func (i *Index) Close() error {
	return i.idx.Close()
}

// Index adds or replaces entries in one batch.
func (i *Index) Index(entries []storage.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	batch := i.idx.NewBatch()
	for _, e := range entries {
		doc := map[string]any{
			"title":      e.Title,
			"content":    render.PlainText(e.Content),
			"author":     e.Author,
			"url":        e.URL,
			"feed_title": e.Feed.Title,
			"feed_id":    e.Feed.ID,
		}
		if err := batch.Index(e.ID, doc); err != nil {
			return fmt.Errorf("failed to index entry %s: %w", e.ID, err)
		}
	}
	if err := i.idx.Batch(batch); err != nil {
		return fmt.Errorf("failed to write index batch: %w", err)
	}
	return nil
}

// Remove deletes entries by ID.
func (i *Index) Remove(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	batch := i.idx.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	return i.idx.Batch(batch)
}

// RemoveFeed deletes every entry indexed for feedID.
func (i *Index) RemoveFeed(feedID string) error {
	tq := bleve.NewTermQuery(feedID)
	tq.SetField("feed_id")

	const size = 1000
	for {
		res, err := i.idx.Search(bleve.NewSearchRequestOptions(tq, size, 0, false))
		if err != nil {
			return fmt.Errorf("failed to find entries of feed %s: %w", feedID, err)
		}
		if len(res.Hits) == 0 {
			return nil
		}
		ids := make([]string, len(res.Hits))
		for n, h := range res.Hits {
			ids[n] = h.ID
		}
		if err := i.Remove(ids...); err != nil {
			return err
		}
		if len(res.Hits) < size {
			return nil
		}
	}
}

// Search matches whole terms and prefixes, weighting title highest.
// Queries shorter than two characters return nothing.
func (i *Index) Search(q string, limit int) ([]Hit, error) {
	if len(strings.TrimSpace(q)) < 2 {
		return []Hit{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	fields := []struct {
		name        string
		match, pref float64
	}{
		{"title", 4, 3.5},
		{"feed_title", 2, 1.8},
		{"content", 1, 0.8},
		{"author", 1, 0.8},
		{"url", 0.5, 0.3},
	}

	var qs []query.Query
	for _, tok := range tokenize(q) {
		for _, f := range fields {
			mq := bleve.NewMatchQuery(tok)
			mq.SetField(f.name)
			mq.SetBoost(f.match)
			pq := bleve.NewPrefixQuery(tok)
			pq.SetField(f.name)
			pq.SetBoost(f.pref)
			qs = append(qs, mq, pq)
		}
	}
	if len(qs) == 0 {
		return []Hit{}, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)
	req.Fields = []string{"title", "feed_id", "feed_title", "url"}
	res, err := i.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	out := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := Hit{ID: h.ID, Score: h.Score}
		hit.Title, _ = h.Fields["title"].(string)
		hit.FeedID, _ = h.Fields["feed_id"].(string)
		hit.FeedTitle, _ = h.Fields["feed_title"].(string)
		hit.URL, _ = h.Fields["url"].(string)
		out = append(out, hit)
	}
	return out, nil
}

// DocCount reports the number of indexed entries.
func (i *Index) DocCount() (int, error) {
	n, err := i.idx.DocCount()
	return int(n), err
}

// tokenize lowercases q and splits it on anything that is not a letter or
// digit, dropping single characters.
func tokenize(q string) []string {
	words := strings.FieldsFunc(strings.ToLower(q), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	out := words[:0]
	for _, w := range words {
		if len([]rune(w)) > 1 {
			out = append(out, w)
		}
	}
	return out
}
