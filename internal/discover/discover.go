// Package discover turns the address a user pastes into a feed address,
// either with host rules or by reading feed links from an HTML page.
package discover

import (
	"context"
	"net/url"
	"sort"
	"strings"
)

// FeedInfo is the outcome of resolving a pasted URL.
type FeedInfo struct {
	OriginalURL string
	FeedURL     string
	// Title is a suggestion used when the feed does not carry one.
	Title string
	Rule  string
}

// Rule rewrites URLs of one kind of site.
type Rule interface {
	Name() string
	CanHandle(u *url.URL) bool
	Resolve(ctx context.Context, u *url.URL) (FeedInfo, error)
	// Priority breaks ties between rules; higher wins.
	Priority() int
}

type Registry struct {
	rules []Rule
}

func NewRegistry(rules ...Rule) *Registry {
	r := &Registry{}
	for _, rule := range rules {
		r.Register(rule)
	}
	return r
}

// DefaultRegistry knows the sites that hide their feeds behind a page URL.
func DefaultRegistry() *Registry {
	return NewRegistry(RedditRule{}, YouTubeRule{})
}

func (r *Registry) Register(rule Rule) {
	r.rules = append(r.rules, rule)
	sort.SliceStable(r.rules, func(i, j int) bool {
		return r.rules[i].Priority() > r.rules[j].Priority()
	})
}

// Find returns the highest priority rule for rawURL, or nil.
func (r *Registry) Find(rawURL string) Rule {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	for _, rule := range r.rules {
		if rule.CanHandle(u) {
			return rule
		}
	}
	return nil
}

// Resolve applies the matching rule. URLs no rule handles come back as
// their own feed URL.
func (r *Registry) Resolve(ctx context.Context, rawURL string) (FeedInfo, error) {
	rule := r.Find(rawURL)
	if rule == nil {
		return FeedInfo{OriginalURL: rawURL, FeedURL: rawURL}, nil
	}
	u, _ := url.Parse(rawURL)
	info, err := rule.Resolve(ctx, u)
	if err != nil {
		return FeedInfo{}, err
	}
	info.OriginalURL = rawURL
	info.Rule = rule.Name()
	return info, nil
}

func hostIs(u *url.URL, domains ...string) bool {
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	for _, d := range domains {
		if host == d {
			return true
		}
	}
	return false
}
