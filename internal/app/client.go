// Package app wires remote loading, local caching and search into the
// client used by the command line.
package app

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pders01/feedcore/internal/cache"
	"github.com/pders01/feedcore/internal/config"
	"github.com/pders01/feedcore/internal/debuglog"
	"github.com/pders01/feedcore/internal/feed"
	"github.com/pders01/feedcore/internal/loader"
	"github.com/pders01/feedcore/internal/remote"
	"github.com/pders01/feedcore/internal/search"
	"github.com/pders01/feedcore/internal/storage"
	"github.com/pders01/feedcore/internal/validation"
)

// Client is the composition root: every public load goes through the
// fallback and caching pipeline built here.
type Client struct {
	baseURL    *url.URL
	format     string
	pageSize   int
	reportBoth bool

	http        remote.HTTPClient
	store       storage.Store
	ownsStore   bool
	feedCache   *cache.LocalFeedLoader
	imageCache  *cache.LocalImageDataLoader
	index       *search.BleveEngine
	urlValidate *validation.RemoteURLValidator

	// bg tracks cache writes and background validation.
	bg  loader.Group
	log *debuglog.FieldLogger

	closeOnce sync.Once
	closeErr  error
}

type Option func(*clientOptions)

type clientOptions struct {
	http  remote.HTTPClient
	store storage.Store
	index *search.BleveEngine
	now   func() time.Time
}

// WithHTTPClient replaces the net/http client built from config.
func WithHTTPClient(c remote.HTTPClient) Option {
	return func(o *clientOptions) { o.http = c }
}

// WithStore uses store instead of opening one from config. The caller
// keeps ownership: Close does not close it.
func WithStore(store storage.Store) Option {
	return func(o *clientOptions) { o.store = store }
}

// WithSearchIndex uses idx instead of opening database.search_index.
func WithSearchIndex(idx *search.BleveEngine) Option {
	return func(o *clientOptions) { o.index = idx }
}

// WithClock sets the time source of the feed cache.
func WithClock(now func() time.Time) Option {
	return func(o *clientOptions) { o.now = now }
}

func New(cfg *config.Config, opts ...Option) (*Client, error) {
	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}

	urlValidator := validation.NewRemoteURLValidator()
	if cfg.API.AllowPrivate {
		urlValidator = validation.NewPermissiveRemoteURLValidator()
	}
	baseURL, err := urlValidator.ValidateAndNormalize(cfg.API.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api.base_url: %w", err)
	}

	c := &Client{
		baseURL:     baseURL,
		format:      cfg.API.Format,
		pageSize:    cfg.API.PageSize,
		reportBoth:  cfg.API.ReportBothErrors,
		http:        o.http,
		store:       o.store,
		index:       o.index,
		urlValidate: urlValidator,
		log:         debuglog.WithFields(map[string]any{"component": "app"}),
	}
	if c.pageSize <= 0 {
		c.pageSize = feed.DefaultPageSize
	}

	if c.http == nil {
		c.http = remote.NewClient(
			remote.WithTimeout(cfg.API.HTTPTimeout),
			remote.WithUserAgent(cfg.API.UserAgent),
		)
	}

	if c.store == nil {
		store, err := openStore(cfg)
		if err != nil {
			return nil, err
		}
		c.store, c.ownsStore = store, true
	}

	if c.index == nil {
		indexPath, err := validation.NewPathValidator().ValidateAndNormalize(cfg.Database.SearchIndex)
		if err != nil {
			c.closeStore()
			return nil, fmt.Errorf("invalid database.search_index: %w", err)
		}
		idx, err := search.NewBleveEngine(indexPath)
		if err != nil {
			c.closeStore()
			return nil, fmt.Errorf("opening search index: %w", err)
		}
		c.index = idx
	}

	cacheOpts := []cache.Option{cache.WithMaxAge(cfg.Cache.MaxAge)}
	if o.now != nil {
		cacheOpts = append(cacheOpts, cache.WithClock(o.now))
	}
	c.feedCache = cache.NewLocalFeedLoader(c.store, cacheOpts...)
	c.imageCache = cache.NewLocalImageDataLoader(c.store)

	return c, nil
}

func openStore(cfg *config.Config) (storage.Store, error) {
	if !cfg.Cache.Enabled {
		return storage.NullStore{}, nil
	}

	path := cfg.Database.Path
	if cfg.Database.Driver != storage.DriverMemory && cfg.Database.Driver != storage.DriverNull {
		validated, err := validation.NewPathValidator().ValidateFile(path)
		if err != nil {
			return nil, fmt.Errorf("invalid database.path: %w", err)
		}
		path = validated
	}

	store, err := storage.Open(cfg.Database.Driver, path, cfg.Database.Timeout)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return store, nil
}

// Close waits for pending cache writes and background validation, then
// releases the local loaders and closes what New opened. Loads still in
// flight complete, but their results are no longer cached. Calling Close
// again returns the first result.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.bg.Close()
		c.feedCache.Close()
		c.imageCache.Close()

		if c.index != nil {
			if err := c.index.Close(); err != nil {
				c.closeErr = fmt.Errorf("closing search index: %w", err)
			}
		}
		if err := c.closeStore(); err != nil && c.closeErr == nil {
			c.closeErr = err
		}
	})
	return c.closeErr
}

func (c *Client) closeStore() error {
	if !c.ownsStore {
		return nil
	}
	if err := c.store.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}
	return nil
}

// Feed loads the first feed page from the API, caching it, and falls back
// to the cached feed when the API cannot be reached or answers garbage.
func (c *Client) Feed(ctx context.Context) (feed.Paginated[feed.Image], error) {
	remoteFirst := loader.Caching(c.remoteFeedPage(nil), c.saveFeed, loader.TrackWith(&c.bg))
	load := loader.Map(withFallback(c.reportBoth, remoteFirst, c.feedCache.Load), func(items []feed.Image) feed.Paginated[feed.Image] {
		return newPageCursor(c, items, feed.Last(items)).page()
	})
	return load(ctx)
}

// FeedTask runs Feed in the background.
func (c *Client) FeedTask(ctx context.Context) *loader.Task[feed.Paginated[feed.Image]] {
	return loader.Go(ctx, c.Feed)
}

// ImageData returns the bytes of the image at rawURL from the local cache,
// fetching and caching them on a miss.
func (c *Client) ImageData(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := c.urlValidate.ValidateAndNormalize(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid image url: %w", err)
	}
	key := u.String()

	local := func(ctx context.Context) ([]byte, error) {
		return c.imageCache.LoadImageData(ctx, key)
	}
	save := func(ctx context.Context, data []byte) error {
		return c.imageCache.Save(ctx, data, key)
	}
	fromRemote := remote.NewLoader(c.http, feed.MapImageData).LoadFunc(u)

	return withFallback(c.reportBoth, local, loader.Caching(fromRemote, save, loader.TrackWith(&c.bg)))(ctx)
}

// withFallback picks the fallback flavour configured by
// api.report_both_errors.
func withFallback[T any](reportBoth bool, primary, fallback loader.LoadFunc[T]) loader.LoadFunc[T] {
	if reportBoth {
		return loader.FallbackJoined(primary, fallback)
	}
	return loader.Fallback(primary, fallback)
}

// ImageDataTask runs ImageData in the background.
func (c *Client) ImageDataTask(ctx context.Context, rawURL string) *loader.Task[[]byte] {
	return loader.Go(ctx, func(ctx context.Context) ([]byte, error) {
		return c.ImageData(ctx, rawURL)
	})
}

// Comments loads the comments of an image. They are never cached.
func (c *Client) Comments(ctx context.Context, imageID uuid.UUID) ([]feed.ImageComment, error) {
	return remote.NewLoader(c.http, feed.MapImageComments).Load(ctx, feed.ImageCommentsURL(c.baseURL, imageID))
}

// Search queries the index of the cached feed. The index is emptied when
// validation drops the cached feed.
func (c *Client) Search(query string, limit int) ([]*search.Result, error) {
	return c.index.Search(query, limit)
}

// ValidateCacheOnBackground removes an expired or unreadable cached feed
// without blocking the caller. Close waits for it; after Close it is a
// no-op.
func (c *Client) ValidateCacheOnBackground() {
	c.bg.Go(func() {
		if err := c.validateCache(context.Background()); err != nil {
			c.log.Warnf("cache validation failed: %v", err)
		}
	})
}

func (c *Client) validateCache(ctx context.Context) error {
	if err := c.feedCache.ValidateCache(ctx); err != nil {
		return err
	}
	images, err := c.feedCache.Load(ctx)
	if err != nil {
		return err
	}
	if len(images) == 0 {
		if err := c.index.Index(nil); err != nil {
			return fmt.Errorf("clearing search index: %w", err)
		}
	}
	return nil
}

// LocalFeed returns the cached feed without touching the network.
func (c *Client) LocalFeed(ctx context.Context) ([]feed.Image, error) {
	return c.feedCache.Load(ctx)
}

func (c *Client) saveFeed(ctx context.Context, images []feed.Image) error {
	if err := c.feedCache.Save(ctx, images); err != nil {
		return err
	}
	if err := c.index.Index(images); err != nil {
		c.log.Warnf("indexing cached feed failed: %v", err)
	}
	return nil
}

// remoteFeedPage loads the page following after from the API.
func (c *Client) remoteFeedPage(after *feed.Image) loader.LoadFunc[[]feed.Image] {
	if c.format == config.FormatRSS {
		rss := remote.NewLoader(c.http, feed.MapRSSItems).LoadFunc(c.baseURL)
		return loader.Map(rss, func(items []feed.Image) []feed.Image {
			return feed.PageAfter(items, after, c.pageSize)
		})
	}
	return remote.NewLoader(c.http, feed.MapFeedItems).LoadFunc(feed.FeedURL(c.baseURL, after, c.pageSize))
}
