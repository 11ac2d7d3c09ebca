package linchk

import "sync/atomic"

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

// staleCounter returns the value before the increment: every increment
// disagrees with the sequential counter, deterministically.
type staleCounter struct {
	n int64
}

func (c *staleCounter) Inc() int64 {
	v := c.n
	c.n = v + 1
	return v
}

func (c *staleCounter) Get() int64 {
	return c.n
}

// specCounter is the sequential counter specification.
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
