package verifier

import (
	"linchk/lts"
	"linchk/result"
	"linchk/runner"
	"linchk/scenario"
)

// specCounter is a sequential counter specification.
type specCounter struct {
	n int64
}

func (c *specCounter) Inc() int64 {
	c.n++
	return c.n
}

func (c *specCounter) Get() int64 {
	return c.n
}

func (c *specCounter) StateEquals(other any) bool {
	o, ok := other.(*specCounter)
	return ok && o.n == c.n
}

func (c *specCounter) StateHash() uint64 {
	return uint64(c.n)
}

func newSpecCounter() any { return &specCounter{} }

// specChannel is the sequential specification of a rendezvous channel.
type specChannel struct {
	senders   []specSend
	receivers []*lts.Waiter
}

type specSend struct {
	v int
	w *lts.Waiter
}

func (c *specChannel) Send(v int, env *lts.Env) error {
	for len(c.receivers) > 0 {
		r := c.receivers[0]
		c.receivers = c.receivers[1:]
		if r.Cancelled() {
			continue
		}
		if env.Resume(r, result.Value(v)) {
			return nil
		}
	}
	c.senders = append(c.senders, specSend{v: v, w: env.Suspend()})
	return scenario.ErrSuspended
}

func (c *specChannel) Receive(env *lts.Env) (int, error) {
	for len(c.senders) > 0 {
		s := c.senders[0]
		c.senders = c.senders[1:]
		if s.w.Cancelled() {
			continue
		}
		if env.Resume(s.w, result.Void()) {
			return s.v, nil
		}
	}
	c.receivers = append(c.receivers, env.Suspend())
	return 0, scenario.ErrSuspended
}

func (c *specChannel) pendingSendValues() []int {
	out := []int{}
	for _, s := range c.senders {
		if !s.w.Cancelled() {
			out = append(out, s.v)
		}
	}
	return out
}

func (c *specChannel) pendingReceivers() int {
	n := 0
	for _, r := range c.receivers {
		if !r.Cancelled() {
			n++
		}
	}
	return n
}

func (c *specChannel) StateEquals(other any) bool {
	o, ok := other.(*specChannel)
	if !ok || c.pendingReceivers() != o.pendingReceivers() {
		return false
	}
	a, b := c.pendingSendValues(), o.pendingSendValues()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (c *specChannel) StateHash() uint64 {
	h := uint64(17)
	for _, v := range c.pendingSendValues() {
		h = h*31 + uint64(v)
	}
	return h*31 + uint64(c.pendingReceivers())
}

func newSpecChannel() any { return &specChannel{} }

// relaxedCounter is a cost-counter specification: increments are strict,
// reads may lag behind at a cost of their distance from the true value.
type relaxedCounter struct {
	n int64
}

func (c relaxedCounter) Inc(observed result.Result) any {
	v, ok := observed.Value().(int64)
	if observed.Kind() != result.KindValue || !ok || v != c.n+1 {
		return nil
	}
	return relaxedCounter{n: c.n + 1}
}

func (c relaxedCounter) Get(observed result.Result) []lts.CostWithNextState {
	v, ok := observed.Value().(int64)
	if observed.Kind() != result.KindValue || !ok {
		return nil
	}
	d := int(v - c.n)
	if d < 0 {
		d = -d
	}
	return []lts.CostWithNextState{{Next: c, Cost: d, Predicate: d > 0}}
}

func newRelaxedCounter() any { return relaxedCounter{} }

func inc() scenario.Actor { return scenario.Actor{Method: "Inc"} }
func get() scenario.Actor { return scenario.Actor{Method: "Get"} }

func value(v int64) result.ResultWithClock {
	return result.ResultWithClock{Result: result.Value(v)}
}

func parallelResult(threads ...[]result.ResultWithClock) *runner.ExecutionResult {
	return &runner.ExecutionResult{Parallel: threads}
}
