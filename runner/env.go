package runner

import (
	"sync/atomic"

	"linchk/clock"
	"linchk/result"
)

const (
	suspensionPending int32 = iota
	suspensionClaimed
	suspensionResumed
	suspensionCancelled
)

// Suspension is the completion slot of one suspended operation.
//
// The parked operation's owning worker spins on the slot; the worker whose
// operation resumes the suspension writes the final result and its clock
// snapshot into it. The slot is written at most once: a resumer first claims
// it with a CAS on the state word, writes the fields, then publishes, so
// competing resumers and the cancelling owner race only on the CAS.
type Suspension struct {
	state atomic.Int32

	// Written by the claiming resumer before the store to resumed, read by
	// the owner after observing the resumed state.
	res          result.Result
	resumerClock clock.VectorClock
}

// Cancelled reports whether the suspension was cancelled. Tested structures
// check this when dequeuing parked waiters so that a cancelled request is
// skipped instead of completed.
func (s *Suspension) Cancelled() bool {
	return s.state.Load() == suspensionCancelled
}

func (s *Suspension) resume(res result.Result, snapshot clock.VectorClock) bool {
	if !s.state.CompareAndSwap(suspensionPending, suspensionClaimed) {
		return false
	}
	s.res = res
	s.resumerClock = snapshot
	s.state.Store(suspensionResumed)
	return true
}

func (s *Suspension) cancel() bool {
	return s.state.CompareAndSwap(suspensionPending, suspensionCancelled)
}

// resumed reports whether the slot's result has been published. A claim in
// progress does not count; the fields may not be written yet.
func (s *Suspension) resumed() bool {
	return s.state.Load() == suspensionResumed
}

// Env is the environment handle passed to the operations of a tested
// structure in scenarios with suspendable actors. It identifies the logical
// thread executing the operation and mediates the park/resume protocol.
type Env struct {
	thread int
	clock  clock.VectorClock

	// Index of the actor currently being invoked on this thread.
	cur int
	// Suspension created by the current invocation, if it parked.
	pending *Suspension
}

// Thread returns the logical thread id executing the current operation.
func (e *Env) Thread() int { return e.thread }

// Suspend parks the current operation. The operation must store the returned
// suspension where a later operation can find it, then return
// scenario.ErrSuspended.
func (e *Env) Suspend() *Suspension {
	s := &Suspension{}
	e.pending = s
	return s
}

// Resume completes a parked operation with the given result.
//
// Returns false if the suspension was already cancelled or resumed; the
// caller should then pick another waiter. The resumer's clock snapshot is
// attached so the resumed operation observes a happens-before edge from the
// resuming operation.
func (e *Env) Resume(s *Suspension, res result.Result) bool {
	snapshot := e.clock.Copy()
	snapshot.Observe(e.thread, e.cur)
	return s.resume(res, snapshot)
}
