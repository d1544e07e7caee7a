package loader

import "sync"

// Owner is the lifetime of whoever consumes a load result. Once released,
// completions registered against it are dropped.
type Owner struct {
	mu       sync.RWMutex
	released bool
}

func NewOwner() *Owner {
	return &Owner{}
}

// Release marks the owner gone. It is safe to call more than once.
func (o *Owner) Release() {
	o.mu.Lock()
	o.released = true
	o.mu.Unlock()
}

func (o *Owner) Alive() bool {
	if o == nil {
		return false
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	return !o.released
}

// run calls fn while holding the owner alive, so Release cannot
// interleave with a delivery in flight.
func (o *Owner) run(fn func()) bool {
	if o == nil {
		return false
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.released {
		return false
	}
	fn()
	return true
}
