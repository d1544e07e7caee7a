package loader

import (
	"context"
	"sync"
)

// Task is a load running in the background. It settles exactly once:
// either with the load's outcome or, when Cancel comes first, with
// context.Canceled. A cancelled task never delivers a late value.
type Task[T any] struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once

	mu        sync.Mutex
	value     T
	err       error
	cancelled bool
}

// Go starts load on its own goroutine under a context derived from ctx.
func Go[T any](ctx context.Context, load LoadFunc[T]) *Task[T] {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task[T]{cancel: cancel, done: make(chan struct{})}
	go func() {
		v, err := load(ctx)
		t.settle(v, err, false)
		cancel()
	}()
	return t
}

func (t *Task[T]) settle(v T, err error, cancelled bool) {
	t.once.Do(func() {
		t.mu.Lock()
		t.value, t.err, t.cancelled = v, err, cancelled
		t.mu.Unlock()
		close(t.done)
	})
}

// Cancel stops the load. If the task has not settled yet it settles now
// with context.Canceled and whatever the load produces later is dropped.
// Cancelling a settled task has no effect.
func (t *Task[T]) Cancel() {
	var zero T
	t.settle(zero, context.Canceled, true)
	t.cancel()
}

// Done is closed once the task has settled.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task settles or ctx is done.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.Result()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result returns the settled outcome. It must only be called after Done
// is closed.
func (t *Task[T]) Result() (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value, t.err
}

func (t *Task[T]) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// OnComplete calls fn with the outcome once the task settles, unless the
// task was cancelled or owner has been released by then. fn runs on a
// separate goroutine.
func (t *Task[T]) OnComplete(owner *Owner, fn func(T, error)) {
	go func() {
		<-t.done
		if t.Cancelled() {
			return
		}
		v, err := t.Result()
		owner.run(func() { fn(v, err) })
	}()
}
