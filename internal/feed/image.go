// Package feed holds the image feed domain: its value types, the remote
// endpoints and the mappers that turn HTTP responses into those values.
package feed

import (
	"context"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// Image is an entry of the image feed. Identity is ID; empty Description
// and Location mean the value is absent.
type Image struct {
	ID          uuid.UUID
	Description string
	Location    string
	URL         *url.URL
}

// ImageComment is a comment left on a feed image.
type ImageComment struct {
	ID        uuid.UUID
	Message   string
	CreatedAt time.Time
	Username  string
}

// Paginated is a page of items plus, when the source has more, the
// function that loads the next page. Every page carries all items
// loaded so far.
type Paginated[T any] struct {
	Items    []T
	LoadMore func(ctx context.Context) (Paginated[T], error)
}

// HasMore reports whether another page can be requested.
func (p Paginated[T]) HasMore() bool {
	return p.LoadMore != nil
}

// Last returns the last item of items, or nil when there is none.
func Last(items []Image) *Image {
	if len(items) == 0 {
		return nil
	}
	last := items[len(items)-1]
	return &last
}
