package result

import "linchk/clock"

// ResultWithClock pairs a parallel actor's result with the vector clock
// snapshot taken when the actor completed. The verifier derives the
// happens-before partial order between parallel actors from these snapshots.
type ResultWithClock struct {
	Result
	Clock clock.VectorClock
}

// WithClock attaches a clock snapshot to a result.
func WithClock(r Result, c clock.VectorClock) ResultWithClock {
	return ResultWithClock{Result: r, Clock: c}
}

// ClockEmpty reports whether the snapshot carries no cross-thread
// observation for any thread but own. Own observations only encode program
// order, which the verifier enforces anyway.
func (r ResultWithClock) ClockEmpty(own int) bool {
	for tid, ts := range r.Clock {
		if tid != own && ts != -1 {
			return false
		}
	}
	return true
}
