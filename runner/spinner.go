package runner

import (
	"runtime"
	"sync/atomic"
)

const (
	defaultSpinLimit = 1000
	maxSpinLimit     = 1_000_000
)

// spinner is the adaptive busy-wait loop used while waiting for a
// resumption. It spins on the condition for up to the current limit before
// yielding the OS thread. The limit self-tunes per runner: halved when the
// last wait had to yield, doubled (capped) when it did not, trading busy CPU
// against wake-up latency.
type spinner struct {
	limit atomic.Int64
}

func newSpinner() *spinner {
	s := &spinner{}
	s.limit.Store(defaultSpinLimit)
	return s
}

// wait spins until cond returns true or abort returns true. Reports whether
// cond was satisfied.
func (s *spinner) wait(cond func() bool, abort func() bool) bool {
	limit := s.limit.Load()
	yielded := false
	for i := int64(0); ; i++ {
		if cond() {
			s.tune(yielded)
			return true
		}
		if abort() {
			s.tune(yielded)
			return false
		}
		if i >= limit {
			yielded = true
			runtime.Gosched()
			i = 0
		}
	}
}

func (s *spinner) tune(yielded bool) {
	limit := s.limit.Load()
	if yielded {
		limit /= 2
		if limit < 1 {
			limit = 1
		}
	} else {
		limit *= 2
		if limit > maxSpinLimit {
			limit = maxSpinLimit
		}
	}
	s.limit.Store(limit)
}

// completionCounter tracks how many workers have either finished their actor
// sequence or are parked at a suspension. When it reaches the thread count,
// a worker still waiting for a resumption can conclude that no resumer will
// ever arrive.
type completionCounter struct {
	n atomic.Int32
}

func (c *completionCounter) complete() { c.n.Add(1) }
func (c *completionCounter) suspend()  { c.n.Add(1) }
func (c *completionCounter) resume()   { c.n.Add(-1) }

func (c *completionCounter) allSettled(threads int) bool {
	return int(c.n.Load()) == threads
}
