package lts

import (
	"linchk/result"
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

// specChannel is the sequential specification of a rendezvous channel: Send
// parks until a Receive takes the value, and vice versa.
type specChannel struct {
	senders   []specSend
	receivers []*Waiter
}

type specSend struct {
	v int
	w *Waiter
}

func (c *specChannel) Send(v int, env *Env) error {
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

func (c *specChannel) Receive(env *Env) (int, error) {
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

// notEquivalent lacks the equivalence methods.
type notEquivalent struct{}

func (notEquivalent) Get() int { return 0 }
