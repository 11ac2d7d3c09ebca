// Package clock provides the per-thread vector clocks used to record the
// happens-before relation between parallel actors.
package clock

// VectorClock is a logical clock indexed by thread id.
//
// An entry holds the ordinal of the last observed completed operation of
// that thread, or -1 if no operation of the thread has been observed.
type VectorClock []int

// New creates a clock for n threads with every entry unobserved.
func New(n int) VectorClock {
	c := make(VectorClock, n)
	for i := range c {
		c[i] = -1
	}
	return c
}

// Copy returns an independent copy of the clock.
func (c VectorClock) Copy() VectorClock {
	out := make(VectorClock, len(c))
	copy(out, c)
	return out
}

// Merge sets every entry to the pointwise maximum of both clocks.
// The other clock may be shorter; missing entries are treated as unobserved.
func (c VectorClock) Merge(other VectorClock) {
	for i := range c {
		if i < len(other) && other[i] > c[i] {
			c[i] = other[i]
		}
	}
}

// Observe records that the operation with ordinal ts of thread tid has been
// observed, if it is later than what the clock already holds.
func (c VectorClock) Observe(tid, ts int) {
	if tid >= 0 && tid < len(c) && ts > c[tid] {
		c[tid] = ts
	}
}

// Observes reports whether the clock has observed operation ordinal ts of
// thread tid. Monotonic: once true for some ts it is true for all smaller ts.
func (c VectorClock) Observes(tid, ts int) bool {
	if tid < 0 || tid >= len(c) {
		return false
	}
	return c[tid] >= ts
}

// Empty reports whether no operation of any thread has been observed.
func (c VectorClock) Empty() bool {
	for _, ts := range c {
		if ts != -1 {
			return false
		}
	}
	return true
}
