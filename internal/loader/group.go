package loader

import "sync"

// Group tracks background work such as cache writes. Once closed it admits
// nothing new, so Close never races a late Begin.
type Group struct {
	mu     sync.Mutex
	wg     sync.WaitGroup
	closed bool
}

// Begin registers one unit of work. It reports false after Close; the
// caller must then skip the work.
func (g *Group) Begin() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return false
	}
	g.wg.Add(1)
	return true
}

// End marks a unit started with Begin as finished.
func (g *Group) End() {
	g.wg.Done()
}

// Go runs fn on its own goroutine unless the group is closed.
func (g *Group) Go(fn func()) bool {
	if !g.Begin() {
		return false
	}
	go func() {
		defer g.End()
		fn()
	}()
	return true
}

// Close stops admitting work and waits for what is running.
func (g *Group) Close() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
	g.wg.Wait()
}
