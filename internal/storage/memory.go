package storage

import (
	"context"
	"slices"
	"time"
)

// MemoryStore keeps the cache in process memory. It is used for
// ":memory:" database paths and in tests.
type MemoryStore struct {
	queue  *queue
	feed   *CachedFeed
	images map[string][]byte
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		queue:  newQueue(),
		images: make(map[string][]byte),
	}
}

func (m *MemoryStore) Close() error {
	m.queue.close()
	return nil
}

func (m *MemoryStore) DeleteCachedFeed(ctx context.Context) error {
	err := exec(ctx, m.queue, func() error {
		m.feed = nil
		return nil
	})
	return storeErr("delete feed", err)
}

func (m *MemoryStore) InsertFeed(ctx context.Context, feed []LocalFeedImage, timestamp time.Time) error {
	err := exec(ctx, m.queue, func() error {
		m.feed = &CachedFeed{Feed: slices.Clone(feed), Timestamp: timestamp}
		return nil
	})
	return storeErr("insert feed", err)
}

func (m *MemoryStore) RetrieveFeed(ctx context.Context) (*CachedFeed, error) {
	cached, err := do(ctx, m.queue, func() (*CachedFeed, error) {
		if m.feed == nil {
			return nil, nil
		}
		return &CachedFeed{Feed: slices.Clone(m.feed.Feed), Timestamp: m.feed.Timestamp}, nil
	})
	if err != nil {
		return nil, storeErr("retrieve feed", err)
	}
	return cached, nil
}

func (m *MemoryStore) InsertImageData(ctx context.Context, data []byte, url string) error {
	err := exec(ctx, m.queue, func() error {
		m.images[url] = append([]byte{}, data...)
		return nil
	})
	return storeErr("insert image data", err)
}

func (m *MemoryStore) RetrieveImageData(ctx context.Context, url string) ([]byte, error) {
	data, err := do(ctx, m.queue, func() ([]byte, error) {
		data, ok := m.images[url]
		if !ok {
			return nil, nil
		}
		return append([]byte{}, data...), nil
	})
	if err != nil {
		return nil, storeErr("retrieve image data", err)
	}
	return data, nil
}

// NullStore accepts every write and never has anything cached. It
// stands in for the local store when caching is disabled.
type NullStore struct{}

var _ Store = NullStore{}

func (NullStore) DeleteCachedFeed(context.Context) error { return nil }

func (NullStore) InsertFeed(context.Context, []LocalFeedImage, time.Time) error { return nil }

func (NullStore) RetrieveFeed(context.Context) (*CachedFeed, error) { return nil, nil }

func (NullStore) InsertImageData(context.Context, []byte, string) error { return nil }

func (NullStore) RetrieveImageData(context.Context, string) ([]byte, error) { return nil, nil }

func (NullStore) Close() error { return nil }
