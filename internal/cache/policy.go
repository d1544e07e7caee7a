// Package cache implements the local side of the feed client: loading,
// saving and validating the cached feed and image data.
package cache

import "time"

// DefaultMaxAge is how long a cached feed stays valid.
const DefaultMaxAge = 7 * 24 * time.Hour

// policy decides cache validity. A snapshot is still valid at exactly
// timestamp + maxAge.
type policy struct {
	maxAge time.Duration
}

func (p policy) validate(timestamp, now time.Time) bool {
	return !now.After(timestamp.Add(p.maxAge))
}
