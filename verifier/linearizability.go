package verifier

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"linchk/lts"
	"linchk/result"
	"linchk/runner"
	"linchk/scenario"
)

// LinearizabilityVerifier checks that the observed execution corresponds to
// some linearization: a total order of the operations that respects program
// order within each thread and the recorded happens-before edges, and whose
// sequential replay reproduces every observed result.
type LinearizabilityVerifier struct {
	transitions *lts.LTS
}

// NewLinearizability builds a verifier over the sequential specification.
//
// checkEquivalence guards the specification's StateEquals/StateHash
// implementation once up front; disable it only for specifications with a
// deliberately trivial state.
func NewLinearizability(newSpec func() any, checkEquivalence bool) (*LinearizabilityVerifier, error) {
	if checkEquivalence {
		if err := lts.CheckStateEquivalence(newSpec); err != nil {
			return nil, err
		}
	}
	transitions, err := lts.New(newSpec)
	if err != nil {
		return nil, err
	}
	return &LinearizabilityVerifier{transitions: transitions}, nil
}

func (v *LinearizabilityVerifier) Verify(scn *scenario.ExecutionScenario, res *runner.ExecutionResult) (bool, error) {
	if len(res.Parallel) != scn.Threads() {
		return false, errors.Errorf("verifier: result has %d parallel threads, scenario %d", len(res.Parallel), scn.Threads())
	}

	// The init part ran single-threaded before the parallel section, so any
	// legal linearization starts with it in order.
	state, ok, err := replaySequential(v.transitions.Root(), scn.Init, res.Init)
	if err != nil || !ok {
		return false, err
	}

	ctx := &searchContext{
		scn:    scn,
		res:    res,
		state:  state,
		index:  make([]int, scn.Threads()),
		ticket: make([]int, scn.Threads()),
		done:   make([]bool, scn.Threads()),
	}
	for t := range ctx.ticket {
		ctx.ticket[t] = lts.NoTicket
		ctx.done[t] = len(scn.Parallel[t]) == 0
	}
	return v.search(ctx)
}

// searchContext is one node of the backtracking search: the current LTS
// state plus per-thread progress. Branching copies the context, so siblings
// never observe each other's bookkeeping.
type searchContext struct {
	scn *scenario.ExecutionScenario
	res *runner.ExecutionResult

	state *lts.State
	// Next unconsumed actor position per thread.
	index []int
	// Pending suspension ticket of the actor at index, or NoTicket.
	ticket []int
	// Thread fully consumed or terminally suspended.
	done []bool
}

func (c *searchContext) copy() *searchContext {
	return &searchContext{
		scn:    c.scn,
		res:    c.res,
		state:  c.state,
		index:  slices.Clone(c.index),
		ticket: slices.Clone(c.ticket),
		done:   slices.Clone(c.done),
	}
}

func (c *searchContext) allDone() bool {
	for _, d := range c.done {
		if !d {
			return false
		}
	}
	return true
}

// requested counts the operations of thread u whose request has been
// applied, including a pending suspended request. Happens-before edges only
// require the predecessor's request to be scheduled: a resumed operation
// observes its resumer, and the resumer's linearization point is its
// request.
func (c *searchContext) requested(u int) int {
	n := c.index[u]
	if c.ticket[u] != lts.NoTicket {
		n++
	}
	return n
}

// hbLegal reports whether every operation the clock snapshot observes has
// already been scheduled.
func (c *searchContext) hbLegal(t int, snapshot result.ResultWithClock) bool {
	for u, ts := range snapshot.Clock {
		if u == t || ts == -1 {
			continue
		}
		if c.requested(u) <= ts {
			return false
		}
	}
	return true
}

// search explores every schedulable thread at the current step, depth
// first. Success anywhere suffices: existence of one legal interleaving is
// all linearizability asks.
func (v *LinearizabilityVerifier) search(c *searchContext) (bool, error) {
	if c.allDone() {
		// Every parallel operation is placed; the post part ran
		// single-threaded after, so it closes the linearization in order.
		_, ok, err := replaySequential(c.state, c.scn.Post, c.res.Post)
		return ok, err
	}
	for t := range c.scn.Parallel {
		if c.done[t] {
			continue
		}
		next, err := v.scheduleThread(c, t)
		if err != nil {
			return false, err
		}
		if next == nil {
			continue
		}
		ok, err := v.search(next)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

// scheduleThread attempts to apply thread t's next step, either a fresh
// request or the follow-up/cancellation of its pending suspended request,
// and returns the successor context, or nil if the step is not legal here.
func (v *LinearizabilityVerifier) scheduleThread(c *searchContext, t int) (*searchContext, error) {
	i := c.index[t]
	a := c.scn.Parallel[t][i]
	observed := c.res.Parallel[t][i]

	if c.ticket[t] != lts.NoTicket {
		return v.scheduleResolution(c, t, a, observed)
	}

	if !c.hbLegal(t, observed) {
		return nil, nil
	}
	ti, err := c.state.Next(a, observed.Result, lts.NoTicket)
	if err != nil {
		return nil, err
	}
	if ti == nil {
		return nil, nil
	}

	next := c.copy()
	next.applyTransition(ti)

	if ti.Result.Kind() != result.KindSuspended {
		// Completed in one step with the observed result.
		next.advance(t)
		return next, nil
	}

	// The request suspended in the specification.
	if observed.Kind() == result.KindSuspended {
		// It also stayed suspended in the real execution: the request is
		// terminally pending and the rest of the thread was never invoked.
		for j := i + 1; j < len(c.scn.Parallel[t]); j++ {
			if c.res.Parallel[t][j].Kind() != result.KindNoResult {
				return nil, nil
			}
		}
		next.index[t] = len(c.scn.Parallel[t])
		next.done[t] = true
		return next, nil
	}
	// It was later resumed (or cancelled) in the real execution: park the
	// ticket and resolve it in a later step.
	next.ticket[t] = ti.Ticket
	return next, nil
}

// scheduleResolution resolves a pending suspended request: cancellation if
// that is what was observed, otherwise the follow-up carrying the resumed
// result. A nil transition here is not a dead end; the resuming operation
// may simply not be scheduled yet.
func (v *LinearizabilityVerifier) scheduleResolution(c *searchContext, t int, a scenario.Actor, observed result.ResultWithClock) (*searchContext, error) {
	var ti *lts.TransitionInfo
	var err error
	if observed.Kind() == result.KindCancelled {
		ti, err = c.state.NextCancel(a, c.ticket[t])
	} else {
		ti, err = c.state.Next(a, observed.Result, c.ticket[t])
	}
	if err != nil || ti == nil {
		return nil, err
	}
	next := c.copy()
	next.applyTransition(ti)
	next.ticket[t] = lts.NoTicket
	next.advance(t)
	return next, nil
}

func (c *searchContext) applyTransition(ti *lts.TransitionInfo) {
	c.state = ti.NextState
	for u := range c.ticket {
		c.ticket[u] = ti.RemapTicket(c.ticket[u])
	}
}

func (c *searchContext) advance(t int) {
	c.index[t]++
	if c.index[t] >= len(c.scn.Parallel[t]) {
		c.done[t] = true
	}
}

// replaySequential applies a single-threaded actor sequence to the state,
// requiring every transition to reproduce the recorded result.
func replaySequential(state *lts.State, actors []scenario.Actor, results []result.Result) (*lts.State, bool, error) {
	if len(actors) != len(results) {
		return nil, false, errors.Errorf("verifier: %d actors with %d results", len(actors), len(results))
	}
	for i, a := range actors {
		ti, err := state.Next(a, results[i], lts.NoTicket)
		if err != nil {
			return nil, false, err
		}
		if ti == nil {
			return nil, false, nil
		}
		if ti.Result.Kind() == result.KindSuspended && results[i].Kind() != result.KindSuspended {
			// A single-threaded part has no resumer; a suspension here can
			// only ever stay suspended.
			return nil, false, nil
		}
		state = ti.NextState
	}
	return state, true, nil
}
