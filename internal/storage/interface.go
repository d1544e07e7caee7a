package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// FeedStore persists a single feed snapshot.
//
// Implementations run their operations one at a time in the order they
// were issued. Expiration is not enforced at this level.
type FeedStore interface {
	// DeleteCachedFeed removes the snapshot. Deleting an empty cache succeeds.
	DeleteCachedFeed(ctx context.Context) error
	// InsertFeed replaces any existing snapshot wholesale.
	InsertFeed(ctx context.Context, feed []LocalFeedImage, timestamp time.Time) error
	// RetrieveFeed returns nil when nothing is cached.
	RetrieveFeed(ctx context.Context) (*CachedFeed, error)
}

// ImageDataStore persists image bytes keyed by their URL.
type ImageDataStore interface {
	InsertImageData(ctx context.Context, data []byte, url string) error
	// RetrieveImageData returns nil data when the URL has no entry.
	RetrieveImageData(ctx context.Context, url string) ([]byte, error)
}

// Store is the full local store used by the composition root.
type Store interface {
	FeedStore
	ImageDataStore
	Close() error
}

// ErrStoreClosed is returned for operations issued after Close.
var ErrStoreClosed = errors.New("store closed")

// StoreError reports a failed store operation and its cause.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
