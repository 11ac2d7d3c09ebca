package runner

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"linchk/result"
	"linchk/scenario"
)

var errBroken = errors.New("broken")

// atomicCounter is a correct concurrent counter.
type atomicCounter struct {
	n atomic.Int64
}

func (c *atomicCounter) Inc() int64 {
	return c.n.Add(1)
}

func (c *atomicCounter) Get() int64 {
	return c.n.Load()
}

// blocker parks forever, for exercising the deadlock timeout.
type blocker struct{}

func (blocker) Block() {
	select {}
}

// faulty fails with an undeclared error.
type faulty struct{}

func (faulty) Fail() error {
	return errBroken
}

func (faulty) Boom() {
	panic("boom")
}

// syncChannel is a rendezvous channel built on the suspension protocol:
// Send parks until a Receive takes the value, and vice versa.
type syncChannel struct {
	mu        sync.Mutex
	senders   []sendReq
	receivers []*Suspension
}

type sendReq struct {
	v int
	s *Suspension
}

func (c *syncChannel) Send(v int, env *Env) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.receivers) > 0 {
		r := c.receivers[0]
		c.receivers = c.receivers[1:]
		if env.Resume(r, result.Value(v)) {
			return nil
		}
	}
	c.senders = append(c.senders, sendReq{v: v, s: env.Suspend()})
	return scenario.ErrSuspended
}

func (c *syncChannel) Receive(env *Env) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.senders) > 0 {
		sr := c.senders[0]
		c.senders = c.senders[1:]
		if env.Resume(sr.s, result.Void()) {
			return sr.v, nil
		}
	}
	c.receivers = append(c.receivers, env.Suspend())
	return 0, scenario.ErrSuspended
}
