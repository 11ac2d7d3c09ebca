package lts

import (
	"linchk/result"
)

const (
	waiterPending = iota
	waiterResumed
	waiterCancelled
)

// Waiter is the sequential counterpart of a runtime suspension: one parked
// request of the sequential specification, addressed by its ticket.
type Waiter struct {
	ticket   int
	state    int
	actorKey string

	// Result supplied by the resuming operation, and that operation's key.
	res       result.Result
	resumedBy string
}

// Ticket returns the integer handle assigned when the request suspended.
func (w *Waiter) Ticket() int { return w.ticket }

// Cancelled reports whether the request was cancelled. Specifications check
// this when dequeuing parked waiters, mirroring the runtime contract.
func (w *Waiter) Cancelled() bool { return w.state == waiterCancelled }

// Env is the environment handle passed to suspendable operations of the
// sequential specification during replay. It is the sequential analogue of
// the runner's environment: operations park through it and complete each
// other through it, and the replay records which operation resumed which.
type Env struct {
	waiters []*Waiter
	next    int

	// Key of the actor currently being replayed; recorded as the resumer
	// of any waiter completed during its invocation.
	curKey string
	// Waiter created by the current invocation, if it parked.
	pending *Waiter
}

func newEnv() *Env {
	return &Env{}
}

// Suspend parks the current operation and assigns it the next ticket. The
// operation must store the returned waiter where a later operation can find
// it, then return scenario.ErrSuspended.
func (e *Env) Suspend() *Waiter {
	w := &Waiter{ticket: e.next, state: waiterPending, actorKey: e.curKey}
	e.next++
	e.waiters = append(e.waiters, w)
	e.pending = w
	return w
}

// Resume completes a parked request with the given result. Returns false if
// the waiter is no longer pending, in which case the specification should
// pick another waiter.
func (e *Env) Resume(w *Waiter, res result.Result) bool {
	if w.state != waiterPending {
		return false
	}
	w.state = waiterResumed
	w.res = res
	w.resumedBy = e.curKey
	return true
}

func (e *Env) find(ticket int) *Waiter {
	for _, w := range e.waiters {
		if w.ticket == ticket {
			return w
		}
	}
	return nil
}

// drop removes a waiter from the replay bookkeeping once its follow-up or
// cancellation has been consumed.
func (e *Env) drop(ticket int) {
	for i, w := range e.waiters {
		if w.ticket == ticket {
			e.waiters = append(e.waiters[:i], e.waiters[i+1:]...)
			return
		}
	}
}

// pendingWaiters returns the still-suspended requests in suspension order.
func (e *Env) pendingWaiters() []*Waiter {
	out := []*Waiter{}
	for _, w := range e.waiters {
		if w.state == waiterPending {
			out = append(out, w)
		}
	}
	return out
}

// resumedWaiters returns the requests that were resumed but whose follow-up
// has not been consumed yet, in suspension order.
func (e *Env) resumedWaiters() []*Waiter {
	out := []*Waiter{}
	for _, w := range e.waiters {
		if w.state == waiterResumed {
			out = append(out, w)
		}
	}
	return out
}
