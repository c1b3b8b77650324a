package scratch

// Ring is a fixed-capacity buffer whose cursor wraps with a bitmask. Writes never fail:
// under pressure the oldest entries are silently overwritten. Capacity is a power of two.
type Ring[T any] struct {
	buf  []T
	mask int
	pos  int
}

// NewRing allocates a ring of at least capacity entries, rounded up to a power of two
func NewRing[T any](capacity int) *Ring[T] {
	capacity = nextPowerOfTwo(capacity)
	return &Ring[T]{
		buf:  make([]T, capacity),
		mask: capacity - 1,
	}
}

// nextPowerOfTwo rounds n up to the next power of two
func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	n++
	return n
}

// Next returns the entry under the cursor and advances it. The entry keeps whatever a
// previous query left there.
func (r *Ring[T]) Next() *T {
	p := &r.buf[r.pos]
	r.pos = (r.pos + 1) & r.mask
	return p
}

// Take returns n contiguous entries. When they do not fit before the end of the buffer
// the cursor restarts at 0. n is clamped to the capacity.
func (r *Ring[T]) Take(n int) []T {
	n = min(n, len(r.buf))
	if r.pos+n > len(r.buf) {
		r.pos = 0
	}
	s := r.buf[r.pos : r.pos+n]
	r.pos = (r.pos + n) & r.mask
	return s
}

// At returns entry i, wrapped into the buffer
func (r *Ring[T]) At(i int) *T {
	return &r.buf[i&r.mask]
}

// Pos returns the cursor
func (r *Ring[T]) Pos() int { return r.pos }

// Cap returns the capacity
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Since returns the entries written after mark, assuming the cursor did not wrap past it
func (r *Ring[T]) Since(mark int) []T {
	if r.pos >= mark {
		return r.buf[mark:r.pos]
	}
	// wrapped once: the tail is lost to the caller
	return r.buf[:r.pos]
}

// Reset moves the cursor back to the start. Entries are not cleared.
func (r *Ring[T]) Reset() {
	r.pos = 0
}
