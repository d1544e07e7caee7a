package feed

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"
)

var imgRegex = regexp.MustCompile(`<img[^>]+src=["']([^"']+)["']`)

// MapRSSItems decodes an RSS or Atom document into feed images. Items
// without an image are skipped. Image IDs are derived from the item GUID
// (or link) so the same item keeps its identity across fetches.
func MapRSSItems(data []byte, statusCode int) ([]Image, error) {
	if !isOK(statusCode) {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrInvalidData, statusCode)
	}

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing feed: %v", ErrInvalidData, err)
	}

	images := make([]Image, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		imageURL := findImageURL(item)
		if imageURL == nil {
			continue
		}
		images = append(images, Image{
			ID:          itemID(item, imageURL),
			Description: strings.TrimSpace(item.Title),
			Location:    itemLocation(item),
			URL:         imageURL,
		})
	}
	return images, nil
}

func itemID(item *gofeed.Item, imageURL *url.URL) uuid.UUID {
	key := item.GUID
	if key == "" {
		key = item.Link
	}
	if key == "" {
		key = imageURL.String()
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key))
}

// findImageURL prefers image enclosures, then the item image, then the
// first <img> in the item's HTML.
func findImageURL(item *gofeed.Item) *url.URL {
	var candidates []string
	for _, enclosure := range item.Enclosures {
		if enclosure.URL != "" && (enclosure.Type == "" || strings.HasPrefix(enclosure.Type, "image/")) {
			candidates = append(candidates, enclosure.URL)
		}
	}
	if item.Image != nil && item.Image.URL != "" {
		candidates = append(candidates, item.Image.URL)
	}
	for _, match := range imgRegex.FindAllStringSubmatch(item.Content+" "+item.Description, -1) {
		if len(match) > 1 {
			candidates = append(candidates, match[1])
		}
	}

	for _, candidate := range candidates {
		if u, err := url.Parse(candidate); err == nil && u.IsAbs() {
			return u
		}
	}
	return nil
}

// itemLocation reads the GeoRSS feature name when the feed provides one.
func itemLocation(item *gofeed.Item) string {
	geo, ok := item.Extensions["georss"]
	if !ok {
		return ""
	}
	for _, ext := range geo["featurename"] {
		if name := strings.TrimSpace(ext.Value); name != "" {
			return name
		}
	}
	return ""
}
