package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidData is returned by every mapper for a non-2xx status or a
// payload that cannot be decoded.
var ErrInvalidData = errors.New("invalid data")

func isOK(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

type remoteFeedItem struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Image       string    `json:"image"`
}

// MapFeedItems decodes a feed page of the form
// {"items": [{"id", "description", "location", "image"}]}.
func MapFeedItems(data []byte, statusCode int) ([]Image, error) {
	if !isOK(statusCode) {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrInvalidData, statusCode)
	}

	var root struct {
		Items []remoteFeedItem `json:"items"`
	}
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	if root.Items == nil {
		return nil, fmt.Errorf("%w: missing items", ErrInvalidData)
	}

	images := make([]Image, 0, len(root.Items))
	for _, item := range root.Items {
		if item.ID == uuid.Nil {
			return nil, fmt.Errorf("%w: item without id", ErrInvalidData)
		}
		imageURL, err := url.Parse(item.Image)
		if err != nil || !imageURL.IsAbs() {
			return nil, fmt.Errorf("%w: bad image url %q", ErrInvalidData, item.Image)
		}
		images = append(images, Image{
			ID:          item.ID,
			Description: item.Description,
			Location:    item.Location,
			URL:         imageURL,
		})
	}
	return images, nil
}

type remoteComment struct {
	ID        uuid.UUID `json:"id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	Author    struct {
		Username string `json:"username"`
	} `json:"author"`
}

// MapImageComments decodes
// {"items": [{"id", "message", "created_at", "author": {"username"}}]}.
func MapImageComments(data []byte, statusCode int) ([]ImageComment, error) {
	if !isOK(statusCode) {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrInvalidData, statusCode)
	}

	var root struct {
		Items []remoteComment `json:"items"`
	}
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	if root.Items == nil {
		return nil, fmt.Errorf("%w: missing items", ErrInvalidData)
	}

	comments := make([]ImageComment, 0, len(root.Items))
	for _, item := range root.Items {
		if item.ID == uuid.Nil {
			return nil, fmt.Errorf("%w: comment without id", ErrInvalidData)
		}
		comments = append(comments, ImageComment{
			ID:        item.ID,
			Message:   item.Message,
			CreatedAt: item.CreatedAt,
			Username:  item.Author.Username,
		})
	}
	return comments, nil
}

// MapImageData accepts any non-empty 2xx body as image bytes.
func MapImageData(data []byte, statusCode int) ([]byte, error) {
	if !isOK(statusCode) {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrInvalidData, statusCode)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image data", ErrInvalidData)
	}
	return data, nil
}
