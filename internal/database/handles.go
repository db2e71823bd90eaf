package database

import "sync"

// Handles is a process-wide registry of lazily initialised values keyed by
// backend name. The first caller for a key runs init while holding the write
// lock; concurrent callers block and then observe the stored value. A failed
// init stores nothing so a later call tries again.
type Handles[T any] struct {
	mu sync.RWMutex
	m  map[string]T
}

// Get returns the value for key, initialising it once.
func (h *Handles[T]) Get(key string, init func() (T, error)) (T, error) {
	h.mu.RLock()
	v, ok := h.m[key]
	h.mu.RUnlock()
	if ok {
		return v, nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if v, ok := h.m[key]; ok {
		return v, nil
	}
	v, err := init()
	if err != nil {
		var zero T
		return zero, err
	}
	if h.m == nil {
		h.m = make(map[string]T)
	}
	h.m[key] = v
	return v, nil
}

// Reset drops the value for key.
func (h *Handles[T]) Reset(key string) {
	h.mu.Lock()
	delete(h.m, key)
	h.mu.Unlock()
}
