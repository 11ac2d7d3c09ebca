package scenario

import "github.com/pkg/errors"

var errClosed = errors.New("register closed")

// register is a small structure exercising every invocation shape.
type register struct {
	v      int
	closed bool
}

func (r *register) Write(v int) {
	r.v = v
}

func (r *register) Read() int {
	return r.v
}

func (r *register) ReadChecked() (int, error) {
	if r.closed {
		return 0, errClosed
	}
	return r.v, nil
}

func (r *register) Close() error {
	if r.closed {
		return errClosed
	}
	r.closed = true
	return nil
}

func (r *register) Explode() {
	panic("boom")
}

// park returns the suspension sentinel; used to check the engine-side
// mapping without a real parking protocol.
func (r *register) Park(env any) error {
	return ErrSuspended
}
