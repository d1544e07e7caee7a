// Package search keeps a full-text index over the cached feed so images
// can be found by description and location offline.
package search

import "github.com/pders01/feedcore/internal/feed"

// Result is one matching image with its relevance score.
type Result struct {
	Image feed.Image
	Score float64
}

// Searcher defines the query side used by the CLI.
type Searcher interface {
	Search(query string, limit int) ([]*Result, error)
}

// Indexer receives every feed snapshot written to the cache.
type Indexer interface {
	Index(images []feed.Image) error
}

// DebugStatser provides lightweight stats for visibility/debugging.
type DebugStatser interface {
	DocCount() (int, error)
}
