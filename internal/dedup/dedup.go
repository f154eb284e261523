// Package dedup collapses near-duplicate entries under a named strategy.
package dedup

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/pders01/fluxrd/internal/storage"
)

// Strategy names an equality rule. It is the value of the
// remove_duplicates setting.
type Strategy string

// None disables deduplication. Callers short-circuit it before reaching
// the engine.
const None Strategy = "none"

var (
	ErrNoneStrategy    = errors.New("dedup: strategy none must be handled by the caller")
	ErrUnknownStrategy = errors.New("dedup: unknown strategy")
)

// KeyFunc computes the collision key of an entry. Entries with an empty
// key never collide.
type KeyFunc func(storage.Entry) string

// Registry maps strategies to key extractors.
type Registry struct {
	mu   sync.RWMutex
	keys map[Strategy]KeyFunc
}

func NewRegistry() *Registry {
	return &Registry{keys: make(map[Strategy]KeyFunc)}
}

// Register installs fn for s, replacing any previous extractor.
func (r *Registry) Register(s Strategy, fn KeyFunc) error {
	if s == None || s == "" {
		return fmt.Errorf("registering %q: %w", s, ErrNoneStrategy)
	}
	if fn == nil {
		return fmt.Errorf("registering %q: nil key function", s)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[s] = fn
	return nil
}

func (r *Registry) Lookup(s Strategy) (KeyFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.keys[s]
	return fn, ok
}

// Dedup keeps the first entry for every key and drops later collisions,
// preserving the order of the survivors.
func (r *Registry) Dedup(entries []storage.Entry, s Strategy) ([]storage.Entry, error) {
	if s == None || s == "" {
		return nil, ErrNoneStrategy
	}
	key, ok := r.Lookup(s)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}

	seen := make(map[string]struct{}, len(entries))
	out := make([]storage.Entry, 0, len(entries))
	for _, e := range entries {
		k := key(e)
		if k != "" {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
		}
		out = append(out, e)
	}
	return out, nil
}

// TitleKey treats entries with the same trimmed title as duplicates.
func TitleKey(e storage.Entry) string {
	return strings.TrimSpace(e.Title)
}

// URLKey treats entries linking to the same page as duplicates. Scheme,
// fragment and a trailing slash are ignored.
func URLKey(e storage.Entry) string {
	raw := strings.TrimSpace(e.URL)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return strings.ToLower(u.Host) + strings.TrimSuffix(u.EscapedPath(), "/") + queryPart(u)
}

func queryPart(u *url.URL) string {
	if u.RawQuery == "" {
		return ""
	}
	return "?" + u.RawQuery
}
