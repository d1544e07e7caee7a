package loader

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type saveSpy struct {
	mu    sync.Mutex
	saved [][]string
	err   error
	ctxs  []context.Context
}

func (s *saveSpy) save(ctx context.Context, v []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, v)
	s.ctxs = append(s.ctxs, ctx)
	return s.err
}

func (s *saveSpy) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

func TestCaching_DeliversLoadedValueAndSavesIt(t *testing.T) {
	spy := &saveSpy{}
	load := func(ctx context.Context) ([]string, error) {
		return []string{"a", "b"}, nil
	}

	got, err := Caching(load, spy.save)(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	assert.Eventually(t, func() bool { return spy.count() == 1 }, time.Second, 5*time.Millisecond)
	spy.mu.Lock()
	assert.Equal(t, []string{"a", "b"}, spy.saved[0])
	spy.mu.Unlock()
}

func TestCaching_DeliversLoadErrorWithoutSaving(t *testing.T) {
	spy := &saveSpy{}
	loadErr := errors.New("load failed")
	load := func(ctx context.Context) ([]string, error) {
		return nil, loadErr
	}

	_, err := Caching(load, spy.save)(context.Background())
	assert.Equal(t, loadErr, err)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, spy.count())
}

func TestCaching_SaveErrorIsSwallowed(t *testing.T) {
	spy := &saveSpy{err: errors.New("disk full")}
	load := func(ctx context.Context) ([]string, error) {
		return []string{"a"}, nil
	}

	got, err := Caching(load, spy.save)(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)
	assert.Eventually(t, func() bool { return spy.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestCaching_SaveOutlivesCallerCancellation(t *testing.T) {
	spy := &saveSpy{}
	ctx, cancel := context.WithCancel(context.Background())
	load := func(ctx context.Context) ([]string, error) {
		return []string{"a"}, nil
	}

	_, err := Caching(load, spy.save)(ctx)
	require.NoError(t, err)
	cancel()

	assert.Eventually(t, func() bool { return spy.count() == 1 }, time.Second, 5*time.Millisecond)
	spy.mu.Lock()
	defer spy.mu.Unlock()
	assert.NoError(t, spy.ctxs[0].Err())
}

func TestCaching_StacksWithFallback(t *testing.T) {
	spy := &saveSpy{}
	remote := func(ctx context.Context) ([]string, error) {
		return []string{"remote"}, nil
	}
	local := func(ctx context.Context) ([]string, error) {
		return []string{"local"}, nil
	}

	got, err := Fallback(Caching(remote, spy.save), local)(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"remote"}, got)
	assert.Eventually(t, func() bool { return spy.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestMap(t *testing.T) {
	load := func(ctx context.Context) (int, error) { return 21, nil }
	got, err := Map(load, func(v int) int { return v * 2 })(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, got)

	failing := func(ctx context.Context) (int, error) { return 0, errPrimary }
	_, err = Map(failing, func(v int) string { return "never" })(context.Background())
	assert.ErrorIs(t, err, errPrimary)
}

func TestCaching_TrackWithWaitsForSave(t *testing.T) {
	var group Group
	release := make(chan struct{})
	var saved bool
	save := func(ctx context.Context, v int) error {
		<-release
		saved = true
		return nil
	}
	load := func(ctx context.Context) (int, error) { return 1, nil }

	_, err := Caching(load, save, TrackWith(&group))(context.Background())
	require.NoError(t, err)

	close(release)
	group.Close()
	assert.True(t, saved)
}

func TestCaching_SkipsSaveOnceGroupIsClosed(t *testing.T) {
	var group Group
	spy := &saveSpy{}
	started := make(chan struct{})
	proceed := make(chan struct{})
	load := func(ctx context.Context) ([]string, error) {
		close(started)
		<-proceed
		return []string{"late"}, nil
	}

	result := make(chan []string, 1)
	go func() {
		v, _ := Caching(load, spy.save, TrackWith(&group))(context.Background())
		result <- v
	}()

	<-started
	group.Close()
	close(proceed)

	assert.Equal(t, []string{"late"}, <-result, "the loaded value is still delivered")
	assert.Equal(t, 0, spy.count())
}

func TestGroup(t *testing.T) {
	var group Group
	var mu sync.Mutex
	ran := 0

	for i := 0; i < 5; i++ {
		require.True(t, group.Go(func() {
			mu.Lock()
			ran++
			mu.Unlock()
		}))
	}
	group.Close()
	assert.Equal(t, 5, ran)

	assert.False(t, group.Begin())
	assert.False(t, group.Go(func() { t.Error("ran after close") }))
	group.Close()
}
