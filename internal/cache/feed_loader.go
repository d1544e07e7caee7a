package cache

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/pders01/feedcore/internal/debuglog"
	"github.com/pders01/feedcore/internal/feed"
	"github.com/pders01/feedcore/internal/loader"
	"github.com/pders01/feedcore/internal/storage"
)

// ErrLoaderClosed is returned when a loader is closed while, or before,
// an operation runs. A closed loader sends no further store messages.
var ErrLoaderClosed = errors.New("loader closed")

type Option func(*options)

type options struct {
	now    func() time.Time
	maxAge time.Duration
}

// WithClock sets the time source. Defaults to time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithMaxAge sets the feed cache max age. Defaults to DefaultMaxAge.
func WithMaxAge(maxAge time.Duration) Option {
	return func(o *options) {
		if maxAge > 0 {
			o.maxAge = maxAge
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, maxAge: DefaultMaxAge}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// LocalFeedLoader loads, saves and validates the cached feed.
type LocalFeedLoader struct {
	store  storage.FeedStore
	now    func() time.Time
	policy policy
	owner  *loader.Owner
	log    *debuglog.FieldLogger
}

func NewLocalFeedLoader(store storage.FeedStore, opts ...Option) *LocalFeedLoader {
	o := buildOptions(opts)
	return &LocalFeedLoader{
		store:  store,
		now:    o.now,
		policy: policy{maxAge: o.maxAge},
		owner:  loader.NewOwner(),
		log:    debuglog.WithFields(map[string]any{"component": "feed-cache"}),
	}
}

// Owner is the loader's lifetime. Completions registered against it stop
// firing once the loader is closed.
func (l *LocalFeedLoader) Owner() *loader.Owner {
	return l.owner
}

// Close releases the loader. It does not close the store.
func (l *LocalFeedLoader) Close() {
	l.owner.Release()
}

// Load returns the cached feed, or an empty feed when nothing valid is
// cached. Expired snapshots are left in place.
func (l *LocalFeedLoader) Load(ctx context.Context) ([]feed.Image, error) {
	if !l.owner.Alive() {
		return nil, ErrLoaderClosed
	}
	cached, err := l.store.RetrieveFeed(ctx)
	if !l.owner.Alive() {
		return nil, ErrLoaderClosed
	}
	if err != nil {
		return nil, fmt.Errorf("loading cached feed: %w", err)
	}
	if cached == nil || !l.policy.validate(cached.Timestamp, l.now()) {
		return []feed.Image{}, nil
	}
	return toModels(cached.Feed)
}

// Save replaces the cached feed. The insert is only issued once the
// delete succeeded.
func (l *LocalFeedLoader) Save(ctx context.Context, images []feed.Image) error {
	if !l.owner.Alive() {
		return ErrLoaderClosed
	}
	if err := l.store.DeleteCachedFeed(ctx); err != nil {
		if !l.owner.Alive() {
			return ErrLoaderClosed
		}
		return fmt.Errorf("deleting cached feed: %w", err)
	}
	if !l.owner.Alive() {
		return ErrLoaderClosed
	}

	err := l.store.InsertFeed(ctx, toLocal(images), l.now())
	if !l.owner.Alive() {
		return ErrLoaderClosed
	}
	if err != nil {
		return fmt.Errorf("inserting feed: %w", err)
	}
	l.log.Debugf("cached %d images", len(images))
	return nil
}

// ValidateCache deletes the cached feed when it cannot be read or has
// expired. A valid or empty cache is left untouched.
func (l *LocalFeedLoader) ValidateCache(ctx context.Context) error {
	if !l.owner.Alive() {
		return ErrLoaderClosed
	}
	cached, err := l.store.RetrieveFeed(ctx)
	if !l.owner.Alive() {
		return ErrLoaderClosed
	}
	switch {
	case err != nil:
		l.log.Warnf("cached feed unreadable, deleting: %v", err)
	case cached == nil, l.policy.validate(cached.Timestamp, l.now()):
		return nil
	default:
		l.log.Infof("cached feed from %s expired, deleting", cached.Timestamp.Format(time.RFC3339))
	}

	if err := l.store.DeleteCachedFeed(ctx); err != nil {
		if !l.owner.Alive() {
			return ErrLoaderClosed
		}
		return fmt.Errorf("deleting cached feed: %w", err)
	}
	if !l.owner.Alive() {
		return ErrLoaderClosed
	}
	return nil
}

func toLocal(images []feed.Image) []storage.LocalFeedImage {
	local := make([]storage.LocalFeedImage, 0, len(images))
	for _, img := range images {
		var u string
		if img.URL != nil {
			u = img.URL.String()
		}
		local = append(local, storage.LocalFeedImage{
			ID:          img.ID.String(),
			Description: img.Description,
			Location:    img.Location,
			URL:         u,
		})
	}
	return local
}

func toModels(local []storage.LocalFeedImage) ([]feed.Image, error) {
	images := make([]feed.Image, 0, len(local))
	for _, item := range local {
		id, err := uuid.Parse(item.ID)
		if err != nil {
			return nil, fmt.Errorf("decoding cached image id %q: %w", item.ID, err)
		}
		u, err := url.Parse(item.URL)
		if err != nil {
			return nil, fmt.Errorf("decoding cached image url %q: %w", item.URL, err)
		}
		images = append(images, feed.Image{
			ID:          id,
			Description: item.Description,
			Location:    item.Location,
			URL:         u,
		})
	}
	return images, nil
}
