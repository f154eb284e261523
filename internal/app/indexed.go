package app

import (
	"context"

	"github.com/pders01/fluxrd/internal/debuglog"
	"github.com/pders01/fluxrd/internal/storage"
)

// Indexer receives every page a backend serves.
type Indexer interface {
	Index(entries []storage.Entry) error
}

type indexedBackend struct {
	Backend
	ix Indexer
}

// WithIndexer feeds loaded pages into ix so a server-backed session can be
// searched offline. Index failures are logged and never fail a load.
func WithIndexer(b Backend, ix Indexer) Backend {
	if ix == nil {
		return b
	}
	return &indexedBackend{Backend: b, ix: ix}
}

func (b *indexedBackend) Entries(ctx context.Context, q Query) (storage.EntryPage, error) {
	page, err := b.Backend.Entries(ctx, q)
	if err != nil || len(page.Entries) == 0 {
		return page, err
	}
	if ixErr := b.ix.Index(page.Entries); ixErr != nil {
		debuglog.WithFields(map[string]any{"scope": q.Scope, "count": len(page.Entries)}).
			Warnf("indexing page failed: %v", ixErr)
	}
	return page, nil
}
