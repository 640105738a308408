package rill

import "sync"

// errorRing is a thread-safe ring buffer retaining the most recent errors
// absorbed by a coordinator: failed merge cycles, connect attempts, and
// missed-update fetches.
type errorRing struct {
	mu    sync.RWMutex
	buf   []error
	head  int
	count int
}

// newErrorRing creates a ring retaining up to size errors.
// A size of 0 disables history; the ring methods are nil-safe.
func newErrorRing(size int) *errorRing {
	if size <= 0 {
		return nil
	}
	return &errorRing{buf: make([]error, size)}
}

// push appends an error, evicting the oldest when full.
func (r *errorRing) push(err error) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buf[r.head] = err
	r.head = (r.head + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

// all returns the retained errors, oldest first.
func (r *errorRing) all() []error {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.count == 0 {
		return nil
	}
	out := make([]error, r.count)
	start := (r.head - r.count + len(r.buf)) % len(r.buf)
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(start+i)%len(r.buf)]
	}
	return out
}
