package storage

import (
	"time"
)

// LocalFeedImage is the persisted form of a feed image.
type LocalFeedImage struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	URL         string `json:"url"`
}

// CachedFeed is the single feed snapshot held by a store.
type CachedFeed struct {
	Feed      []LocalFeedImage `json:"feed"`
	Timestamp time.Time        `json:"timestamp"`
}
