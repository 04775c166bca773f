package viewstate

import "sync"

// Fallback remembers resources that failed to load. A failed resource never
// recovers within one Fallback.
type Fallback struct {
	mu     sync.RWMutex
	failed map[string]struct{}
}

func NewFallback() *Fallback {
	return &Fallback{failed: map[string]struct{}{}}
}

// Fail marks key as failed and reports whether it was newly marked.
func (f *Fallback) Fail(key string) bool {
	if key == "" {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.failed[key]; ok {
		return false
	}
	f.failed[key] = struct{}{}
	return true
}

func (f *Fallback) Failed(key string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.failed[key]
	return ok
}

func (f *Fallback) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.failed)
}
