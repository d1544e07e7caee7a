package cache

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pders01/feedcore/internal/feed"
	"github.com/pders01/feedcore/internal/storage"
)

var errAny = errors.New("any error")

type messageKind int

const (
	msgDelete messageKind = iota
	msgInsert
	msgRetrieve
	msgInsertImage
	msgRetrieveImage
)

type message struct {
	kind      messageKind
	feed      []storage.LocalFeedImage
	timestamp time.Time
	url       string
	data      []byte
}

// storeSpy records every message it receives. When hold is set, each
// operation blocks until hold is closed, after announcing itself on
// entered.
type storeSpy struct {
	mu       sync.Mutex
	messages []message

	deleteErr      error
	insertErr      error
	retrieveErr    error
	retrieved      *storage.CachedFeed
	imageData      []byte
	imageErr       error
	insertImageErr error

	hold    chan struct{}
	entered chan struct{}
}

func (s *storeSpy) record(m message) {
	s.mu.Lock()
	s.messages = append(s.messages, m)
	s.mu.Unlock()
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.hold != nil {
		<-s.hold
	}
}

func (s *storeSpy) received() []messageKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	kinds := make([]messageKind, 0, len(s.messages))
	for _, m := range s.messages {
		kinds = append(kinds, m.kind)
	}
	return kinds
}

func (s *storeSpy) last() message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages[len(s.messages)-1]
}

func (s *storeSpy) DeleteCachedFeed(ctx context.Context) error {
	s.record(message{kind: msgDelete})
	return s.deleteErr
}

func (s *storeSpy) InsertFeed(ctx context.Context, feed []storage.LocalFeedImage, timestamp time.Time) error {
	s.record(message{kind: msgInsert, feed: feed, timestamp: timestamp})
	return s.insertErr
}

func (s *storeSpy) RetrieveFeed(ctx context.Context) (*storage.CachedFeed, error) {
	s.record(message{kind: msgRetrieve})
	return s.retrieved, s.retrieveErr
}

func (s *storeSpy) InsertImageData(ctx context.Context, data []byte, url string) error {
	s.record(message{kind: msgInsertImage, data: data, url: url})
	return s.insertImageErr
}

func (s *storeSpy) RetrieveImageData(ctx context.Context, url string) ([]byte, error) {
	s.record(message{kind: msgRetrieveImage, url: url})
	return s.imageData, s.imageErr
}

func uniqueImage() feed.Image {
	u, _ := url.Parse("https://images.example.org/" + uuid.NewString() + ".jpg")
	return feed.Image{ID: uuid.New(), Description: "a description", Location: "a location", URL: u}
}

func uniqueImages() ([]feed.Image, []storage.LocalFeedImage) {
	models := []feed.Image{uniqueImage(), uniqueImage()}
	return models, toLocal(models)
}

// fixedClock returns a time source pinned to now.
func fixedClock(now time.Time) func() time.Time {
	return func() time.Time { return now }
}

var currentDate = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
