// Package loader composes asynchronous loads: remote with local fallback,
// write-through caching and cancellable tasks whose results are only
// delivered while their owner is alive.
package loader

import "context"

// LoadFunc produces a value or an error. Implementations must return
// promptly once ctx is done.
type LoadFunc[T any] func(ctx context.Context) (T, error)

// SaveFunc persists a value. Its error never reaches the caller
// of a caching composition.
type SaveFunc[T any] func(ctx context.Context, value T) error
