package cache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/feedcore/internal/feed"
	"github.com/pders01/feedcore/internal/loader"
	"github.com/pders01/feedcore/internal/storage"
)

func makeSUT(store *storeSpy, now time.Time) *LocalFeedLoader {
	return NewLocalFeedLoader(store, WithClock(fixedClock(now)))
}

func TestLocalFeedLoader_DoesNotMessageStoreUponCreation(t *testing.T) {
	store := &storeSpy{}
	_ = makeSUT(store, currentDate)
	assert.Empty(t, store.received())
}

func TestLocalFeedLoader_Save(t *testing.T) {
	tests := []struct {
		name         string
		deleteErr    error
		insertErr    error
		wantMessages []messageKind
		wantErr      bool
	}{
		{name: "does not insert on deletion error", deleteErr: errAny, wantMessages: []messageKind{msgDelete}, wantErr: true},
		{name: "fails on insertion error", insertErr: errAny, wantMessages: []messageKind{msgDelete, msgInsert}, wantErr: true},
		{name: "succeeds on successful insertion", wantMessages: []messageKind{msgDelete, msgInsert}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &storeSpy{deleteErr: tt.deleteErr, insertErr: tt.insertErr}
			sut := makeSUT(store, currentDate)

			err := sut.Save(context.Background(), []feed.Image{uniqueImage()})

			assert.Equal(t, tt.wantMessages, store.received())
			if tt.wantErr {
				assert.ErrorIs(t, err, errAny)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestLocalFeedLoader_SaveInsertsWithTimestamp(t *testing.T) {
	store := &storeSpy{}
	sut := makeSUT(store, currentDate)
	models, local := uniqueImages()

	require.NoError(t, sut.Save(context.Background(), models))

	inserted := store.last()
	assert.Equal(t, msgInsert, inserted.kind)
	assert.Equal(t, local, inserted.feed)
	assert.Equal(t, currentDate, inserted.timestamp)
}

func TestLocalFeedLoader_Load(t *testing.T) {
	models, local := uniqueImages()
	maxAge := DefaultMaxAge

	tests := []struct {
		name        string
		retrieved   *storage.CachedFeed
		retrieveErr error
		want        []feed.Image
		wantErr     bool
	}{
		{name: "fails on retrieval error", retrieveErr: errAny, wantErr: true},
		{name: "delivers no images on empty cache", want: []feed.Image{}},
		{
			name:      "delivers cached images on non-expired cache",
			retrieved: &storage.CachedFeed{Feed: local, Timestamp: currentDate.Add(-maxAge).Add(time.Second)},
			want:      models,
		},
		{
			name:      "delivers cached images on cache expiration boundary",
			retrieved: &storage.CachedFeed{Feed: local, Timestamp: currentDate.Add(-maxAge)},
			want:      models,
		},
		{
			name:      "delivers no images on expired cache",
			retrieved: &storage.CachedFeed{Feed: local, Timestamp: currentDate.Add(-maxAge).Add(-time.Second)},
			want:      []feed.Image{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &storeSpy{retrieved: tt.retrieved, retrieveErr: tt.retrieveErr}
			sut := makeSUT(store, currentDate)

			got, err := sut.Load(context.Background())

			// load never has side effects beyond retrieval
			assert.Equal(t, []messageKind{msgRetrieve}, store.received())
			if tt.wantErr {
				assert.ErrorIs(t, err, errAny)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocalFeedLoader_LoadFailsOnCorruptedRecord(t *testing.T) {
	store := &storeSpy{retrieved: &storage.CachedFeed{
		Feed:      []storage.LocalFeedImage{{ID: "not-a-uuid", URL: "https://images.example.org/1.jpg"}},
		Timestamp: currentDate,
	}}
	_, err := makeSUT(store, currentDate).Load(context.Background())
	assert.Error(t, err)
}

func TestLocalFeedLoader_ValidateCache(t *testing.T) {
	_, local := uniqueImages()
	maxAge := DefaultMaxAge

	tests := []struct {
		name         string
		retrieved    *storage.CachedFeed
		retrieveErr  error
		deleteErr    error
		wantMessages []messageKind
		wantErr      bool
	}{
		{name: "deletes cache on retrieval error", retrieveErr: errAny, wantMessages: []messageKind{msgRetrieve, msgDelete}},
		{name: "fails on deletion error after retrieval error", retrieveErr: errAny, deleteErr: errAny, wantMessages: []messageKind{msgRetrieve, msgDelete}, wantErr: true},
		{name: "does not delete empty cache", wantMessages: []messageKind{msgRetrieve}},
		{
			name:         "does not delete non-expired cache",
			retrieved:    &storage.CachedFeed{Feed: local, Timestamp: currentDate.Add(-maxAge).Add(time.Second)},
			wantMessages: []messageKind{msgRetrieve},
		},
		{
			name:         "does not delete cache on expiration boundary",
			retrieved:    &storage.CachedFeed{Feed: local, Timestamp: currentDate.Add(-maxAge)},
			wantMessages: []messageKind{msgRetrieve},
		},
		{
			name:         "deletes expired cache",
			retrieved:    &storage.CachedFeed{Feed: local, Timestamp: currentDate.Add(-maxAge).Add(-time.Second)},
			wantMessages: []messageKind{msgRetrieve, msgDelete},
		},
		{
			name:         "fails on deletion error of expired cache",
			retrieved:    &storage.CachedFeed{Feed: local, Timestamp: currentDate.Add(-maxAge).Add(-time.Second)},
			deleteErr:    errAny,
			wantMessages: []messageKind{msgRetrieve, msgDelete},
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &storeSpy{retrieved: tt.retrieved, retrieveErr: tt.retrieveErr, deleteErr: tt.deleteErr}
			sut := makeSUT(store, currentDate)

			err := sut.ValidateCache(context.Background())

			assert.Equal(t, tt.wantMessages, store.received())
			if tt.wantErr {
				assert.ErrorIs(t, err, errAny)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLocalFeedLoader_CustomMaxAge(t *testing.T) {
	_, local := uniqueImages()
	store := &storeSpy{retrieved: &storage.CachedFeed{Feed: local, Timestamp: currentDate.Add(-2 * time.Hour)}}
	sut := NewLocalFeedLoader(store, WithClock(fixedClock(currentDate)), WithMaxAge(time.Hour))

	got, err := sut.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLocalFeedLoader_SaveDoesNotInsertAfterClose(t *testing.T) {
	store := &storeSpy{hold: make(chan struct{}), entered: make(chan struct{}, 1)}
	sut := makeSUT(store, currentDate)
	var fired atomic.Bool

	task := loader.Go(context.Background(), func(ctx context.Context) (struct{}, error) {
		return struct{}{}, sut.Save(ctx, []feed.Image{uniqueImage()})
	})
	task.OnComplete(sut.Owner(), func(struct{}, error) { fired.Store(true) })

	<-store.entered
	sut.Close()
	close(store.hold)

	_, err := task.Wait(context.Background())
	assert.ErrorIs(t, err, ErrLoaderClosed)
	assert.Equal(t, []messageKind{msgDelete}, store.received())
	time.Sleep(20 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestLocalFeedLoader_SaveDoesNotDeliverInsertionResultAfterClose(t *testing.T) {
	store := &storeSpy{entered: make(chan struct{}, 2), insertErr: errAny}
	store.hold = make(chan struct{})
	sut := makeSUT(store, currentDate)

	done := make(chan error, 1)
	go func() { done <- sut.Save(context.Background(), []feed.Image{uniqueImage()}) }()

	<-store.entered // delete
	store.hold <- struct{}{}
	<-store.entered // insert
	sut.Close()
	close(store.hold)

	assert.ErrorIs(t, <-done, ErrLoaderClosed)
	assert.Equal(t, []messageKind{msgDelete, msgInsert}, store.received())
}

func TestLocalFeedLoader_ValidateCacheDoesNotDeleteAfterClose(t *testing.T) {
	store := &storeSpy{retrieveErr: errAny, hold: make(chan struct{}), entered: make(chan struct{}, 1)}
	sut := makeSUT(store, currentDate)

	done := make(chan error, 1)
	go func() { done <- sut.ValidateCache(context.Background()) }()

	<-store.entered
	sut.Close()
	close(store.hold)

	assert.ErrorIs(t, <-done, ErrLoaderClosed)
	assert.Equal(t, []messageKind{msgRetrieve}, store.received())
}

func TestLocalFeedLoader_ClosedLoaderSendsNoMessages(t *testing.T) {
	store := &storeSpy{}
	sut := makeSUT(store, currentDate)
	sut.Close()

	_, err := sut.Load(context.Background())
	assert.ErrorIs(t, err, ErrLoaderClosed)
	assert.ErrorIs(t, sut.Save(context.Background(), nil), ErrLoaderClosed)
	assert.ErrorIs(t, sut.ValidateCache(context.Background()), ErrLoaderClosed)
	assert.Empty(t, store.received())
}

func TestLocalFeedLoader_WithMemoryStore(t *testing.T) {
	store := storage.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	t.Run("empty store delivers no images", func(t *testing.T) {
		got, err := NewLocalFeedLoader(store).Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("saved feed is valid until max age", func(t *testing.T) {
		t0 := currentDate
		models, _ := uniqueImages()
		require.NoError(t, NewLocalFeedLoader(store, WithClock(fixedClock(t0))).Save(ctx, models))

		beforeExpiry := NewLocalFeedLoader(store, WithClock(fixedClock(t0.Add(DefaultMaxAge-time.Second))))
		got, err := beforeExpiry.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, models, got)

		afterExpiry := NewLocalFeedLoader(store, WithClock(fixedClock(t0.Add(DefaultMaxAge+time.Second))))
		got, err = afterExpiry.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("validate deletes expired feed", func(t *testing.T) {
		models, _ := uniqueImages()
		require.NoError(t, NewLocalFeedLoader(store, WithClock(fixedClock(currentDate))).Save(ctx, models))

		later := NewLocalFeedLoader(store, WithClock(fixedClock(currentDate.Add(DefaultMaxAge+time.Second))))
		require.NoError(t, later.ValidateCache(ctx))

		cached, err := store.RetrieveFeed(ctx)
		require.NoError(t, err)
		assert.Nil(t, cached)
	})
}
