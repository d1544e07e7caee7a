package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	feedCacheBucket = []byte("feed_cache")
	imageDataBucket = []byte("image_data")

	cachedFeedKey = []byte("cache")
)

// BoltStore is a bbolt-backed local store. All operations of one
// instance are serialized on a private queue.
type BoltStore struct {
	db    *bolt.DB
	queue *queue
}

var _ Store = (*BoltStore)(nil)

func NewBoltStore(dbPath string, timeout time.Duration) (*BoltStore, error) {
	if timeout <= 0 {
		timeout = 1 * time.Second
	}
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{feedCacheBucket, imageDataBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltStore{db: db, queue: newQueue()}, nil
}

// Close drains pending operations and closes the database.
func (s *BoltStore) Close() error {
	s.queue.close()
	return s.db.Close()
}

func (s *BoltStore) DeleteCachedFeed(ctx context.Context) error {
	err := exec(ctx, s.queue, func() error {
		return s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(feedCacheBucket).Delete(cachedFeedKey)
		})
	})
	return storeErr("delete feed", err)
}

func (s *BoltStore) InsertFeed(ctx context.Context, feed []LocalFeedImage, timestamp time.Time) error {
	err := exec(ctx, s.queue, func() error {
		data, err := json.Marshal(CachedFeed{Feed: feed, Timestamp: timestamp.UTC()})
		if err != nil {
			return fmt.Errorf("encoding feed: %w", err)
		}
		return s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(feedCacheBucket).Put(cachedFeedKey, data)
		})
	})
	return storeErr("insert feed", err)
}

func (s *BoltStore) RetrieveFeed(ctx context.Context) (*CachedFeed, error) {
	cached, err := do(ctx, s.queue, func() (*CachedFeed, error) {
		var cached *CachedFeed
		err := s.db.View(func(tx *bolt.Tx) error {
			data := tx.Bucket(feedCacheBucket).Get(cachedFeedKey)
			if data == nil {
				return nil
			}
			cached = &CachedFeed{}
			if err := json.Unmarshal(data, cached); err != nil {
				return fmt.Errorf("decoding feed: %w", err)
			}
			return nil
		})
		return cached, err
	})
	if err != nil {
		return nil, storeErr("retrieve feed", err)
	}
	return cached, nil
}

func (s *BoltStore) InsertImageData(ctx context.Context, data []byte, url string) error {
	err := exec(ctx, s.queue, func() error {
		return s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(imageDataBucket).Put([]byte(url), data)
		})
	})
	return storeErr("insert image data", err)
}

func (s *BoltStore) RetrieveImageData(ctx context.Context, url string) ([]byte, error) {
	data, err := do(ctx, s.queue, func() ([]byte, error) {
		var data []byte
		err := s.db.View(func(tx *bolt.Tx) error {
			if v := tx.Bucket(imageDataBucket).Get([]byte(url)); v != nil {
				// bbolt values are only valid inside the transaction
				data = append([]byte{}, v...)
			}
			return nil
		})
		return data, err
	})
	if err != nil {
		return nil, storeErr("retrieve image data", err)
	}
	return data, nil
}
