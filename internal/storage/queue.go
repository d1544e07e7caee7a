package storage

import (
	"context"
	"sync"
)

// queue runs submitted jobs one at a time, in submission order, on a
// single worker goroutine.
type queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	jobs   []func()
	closed bool
	done   chan struct{}
}

func newQueue() *queue {
	q := &queue{done: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

func (q *queue) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.jobs) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.jobs) == 0 {
			q.mu.Unlock()
			return
		}
		job := q.jobs[0]
		q.jobs[0] = nil
		q.jobs = q.jobs[1:]
		q.mu.Unlock()

		job()
	}
}

func (q *queue) submit(job func()) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrStoreClosed
	}
	q.jobs = append(q.jobs, job)
	q.cond.Signal()
	return nil
}

// close stops accepting jobs and waits for the queued ones to finish.
func (q *queue) close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		q.cond.Broadcast()
	}
	q.mu.Unlock()
	<-q.done
}

type result[T any] struct {
	value T
	err   error
}

// do runs fn on the queue and waits for its result. A caller that gives
// up via ctx stops waiting; a job whose caller is already gone when it is
// dequeued is skipped. Once started, fn always runs to completion.
func do[T any](ctx context.Context, q *queue, fn func() (T, error)) (T, error) {
	var zero T
	ch := make(chan result[T], 1)
	err := q.submit(func() {
		if err := ctx.Err(); err != nil {
			ch <- result[T]{err: err}
			return
		}
		v, err := fn()
		ch <- result[T]{value: v, err: err}
	})
	if err != nil {
		return zero, err
	}

	select {
	case r := <-ch:
		return r.value, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func exec(ctx context.Context, q *queue, fn func() error) error {
	_, err := do(ctx, q, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
