package memory

import "sync"

// Ring is a fixed-capacity overwrite ring: appends never fail, the
// oldest value falls off once the buffer wraps. It backs the recent
// trade tape, written under the engine lock and read by API
// goroutines, hence the internal RWMutex.
type Ring[T any] struct {
	mu   sync.RWMutex
	buf  []T
	mask uint64
	head uint64 // total values ever appended
}

// NewRing creates a ring with the given capacity, which must be a
// power of two.
func NewRing[T any](size uint64) *Ring[T] {
	if size == 0 || size&(size-1) != 0 {
		panic("memory.Ring: size must be a power of two")
	}
	return &Ring[T]{
		buf:  make([]T, size),
		mask: size - 1,
	}
}

// Append stores v, overwriting the oldest value when full.
func (r *Ring[T]) Append(v T) {
	r.mu.Lock()
	r.buf[r.head&r.mask] = v
	r.head++
	r.mu.Unlock()
}

// Recent returns up to n values, newest first.
func (r *Ring[T]) Recent(n int) []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	have := r.head
	if have > uint64(len(r.buf)) {
		have = uint64(len(r.buf))
	}
	if n < 0 || uint64(n) > have {
		n = int(have)
	}

	out := make([]T, 0, n)
	for i := uint64(0); i < uint64(n); i++ {
		out = append(out, r.buf[(r.head-1-i)&r.mask])
	}
	return out
}

// Len reports how many values are currently held.
func (r *Ring[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.head > uint64(len(r.buf)) {
		return len(r.buf)
	}
	return int(r.head)
}

// Total reports how many values were ever appended.
func (r *Ring[T]) Total() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.head
}
