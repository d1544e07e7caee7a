package loader

import (
	"context"

	"github.com/pders01/feedcore/internal/debuglog"
)

type cachingOptions struct {
	group *Group
}

type CachingOption func(*cachingOptions)

// TrackWith runs every save inside g so a shutdown can wait for pending
// cache writes. Saves scheduled after g is closed are skipped.
func TrackWith(g *Group) CachingOption {
	return func(o *cachingOptions) {
		o.group = g
	}
}

// Caching delivers exactly what load delivers and, on success, hands the
// value to save on a separate goroutine. The save is not awaited, outlives
// the caller's cancellation and has its error logged and dropped.
func Caching[T any](load LoadFunc[T], save SaveFunc[T], opts ...CachingOption) LoadFunc[T] {
	var o cachingOptions
	for _, opt := range opts {
		opt(&o)
	}

	return func(ctx context.Context) (T, error) {
		v, err := load(ctx)
		if err != nil {
			return v, err
		}
		saveCtx := context.WithoutCancel(ctx)
		write := func() {
			if err := save(saveCtx, v); err != nil {
				debuglog.Warnf("cache write failed: %v", err)
			}
		}
		if o.group == nil {
			go write()
		} else if !o.group.Go(write) {
			debuglog.Debugf("cache write skipped: shutting down")
		}
		return v, nil
	}
}

// Map transforms a successful result of load.
func Map[T, U any](load LoadFunc[T], fn func(T) U) LoadFunc[U] {
	return func(ctx context.Context) (U, error) {
		v, err := load(ctx)
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(v), nil
	}
}
