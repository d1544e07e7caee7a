package app

import (
	"context"
	"slices"

	"github.com/pders01/feedcore/internal/feed"
	"github.com/pders01/feedcore/internal/loader"
)

// pageCursor is the immutable state of a feed being paged through: every
// item loaded so far and the anchor of the next request.
type pageCursor struct {
	client *Client
	items  []feed.Image
	last   *feed.Image
}

func newPageCursor(c *Client, items []feed.Image, last *feed.Image) pageCursor {
	return pageCursor{client: c, items: items, last: last}
}

func (p pageCursor) page() feed.Paginated[feed.Image] {
	page := feed.Paginated[feed.Image]{Items: p.items}
	if p.last != nil {
		page.LoadMore = p.loadMore
	}
	return page
}

// loadMore fetches the page after the anchor, caches the accumulated
// feed and returns the next page. An empty page ends the chain.
func (p pageCursor) loadMore(ctx context.Context) (feed.Paginated[feed.Image], error) {
	c := p.client
	accumulate := loader.Map(c.remoteFeedPage(p.last), func(newItems []feed.Image) pageCursor {
		return newPageCursor(c, append(slices.Clone(p.items), newItems...), feed.Last(newItems))
	})
	saveAccumulated := func(ctx context.Context, next pageCursor) error {
		return c.saveFeed(ctx, next.items)
	}

	next, err := loader.Caching(accumulate, saveAccumulated, loader.TrackWith(&c.bg))(ctx)
	if err != nil {
		return feed.Paginated[feed.Image]{}, err
	}
	return next.page(), nil
}
