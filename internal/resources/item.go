// Package resources merges supplementary learning resources from ranked
// lookup sources into one capped, deduplicated list.
package resources

import (
	"context"
	"strings"
)

// Source tags where an Item came from. Sources are consulted in the order
// local, web, video.
type Source string

const (
	SourceLocal Source = "local"
	SourceWeb   Source = "web"
	SourceVideo Source = "video"
)

// Item is one supplementary resource. Two items are the same resource when
// their URLs are identical strings.
type Item struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Source      Source `json:"source"`
	Description string `json:"description,omitempty"`
}

// Admissible reports whether the item's URL is an absolute http or https
// URL.
func (it Item) Admissible() bool {
	return strings.HasPrefix(it.URL, "https://") || strings.HasPrefix(it.URL, "http://")
}

// Searcher is an external lookup collaborator.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]Item, error)
}

// SearcherFunc adapts a function to Searcher.
type SearcherFunc func(ctx context.Context, query string, maxResults int) ([]Item, error)

// Search calls f.
func (f SearcherFunc) Search(ctx context.Context, query string, maxResults int) ([]Item, error) {
	return f(ctx, query, maxResults)
}
