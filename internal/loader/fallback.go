package loader

import (
	"context"
	"fmt"

	"github.com/pders01/feedcore/internal/debuglog"
)

// BothFailedError is delivered by FallbackJoined when primary and
// fallback both fail.
type BothFailedError struct {
	Primary  error
	Fallback error
}

func (e *BothFailedError) Error() string {
	return fmt.Sprintf("primary failed: %v; fallback failed: %v", e.Primary, e.Fallback)
}

// Unwrap exposes both causes to errors.Is and errors.As.
func (e *BothFailedError) Unwrap() []error {
	return []error{e.Primary, e.Fallback}
}

// Fallback runs primary and, only if it fails, fallback. The fallback's
// outcome is delivered as is; the primary error is logged and dropped.
// A primary failure caused by cancelling ctx never starts the fallback.
func Fallback[T any](primary, fallback LoadFunc[T]) LoadFunc[T] {
	return func(ctx context.Context) (T, error) {
		v, err := primary(ctx)
		if err == nil {
			return v, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			var zero T
			return zero, ctxErr
		}
		debuglog.Debugf("primary load failed, using fallback: %v", err)
		return fallback(ctx)
	}
}

// FallbackJoined behaves like Fallback but reports both errors when the
// fallback fails too.
func FallbackJoined[T any](primary, fallback LoadFunc[T]) LoadFunc[T] {
	return func(ctx context.Context) (T, error) {
		v, primaryErr := primary(ctx)
		if primaryErr == nil {
			return v, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			var zero T
			return zero, ctxErr
		}
		v, fallbackErr := fallback(ctx)
		if fallbackErr != nil {
			var zero T
			return zero, &BothFailedError{Primary: primaryErr, Fallback: fallbackErr}
		}
		return v, nil
	}
}
