package feed

import (
	"net/url"
	"strconv"

	"github.com/google/uuid"
)

// DefaultPageSize is the number of images requested per feed page.
const DefaultPageSize = 10

// FeedURL returns the endpoint of the feed page that follows after, or of
// the first page when after is nil.
func FeedURL(baseURL *url.URL, after *Image, limit int) *url.URL {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	u := baseURL.JoinPath("v1", "feed")
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if after != nil {
		q.Set("after_id", after.ID.String())
	}
	u.RawQuery = q.Encode()
	return u
}

// ImageCommentsURL returns the endpoint listing the comments of an image.
func ImageCommentsURL(baseURL *url.URL, imageID uuid.UUID) *url.URL {
	return baseURL.JoinPath("v1", "image", imageID.String(), "comments")
}

// PageAfter returns at most limit items that follow the item identified
// by after. Sources without server side paging (RSS) are paged with it.
func PageAfter(items []Image, after *Image, limit int) []Image {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	start := 0
	if after != nil {
		start = len(items)
		for i, item := range items {
			if item.ID == after.ID {
				start = i + 1
				break
			}
		}
	}
	end := min(start+limit, len(items))
	return append([]Image{}, items[start:end]...)
}
