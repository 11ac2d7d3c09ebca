package result

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

// Kind tags the outcome of one actor invocation.
type Kind int

const (
	// The operation returned a value.
	KindValue Kind = iota
	// The operation returned without a value.
	KindVoid
	// The operation failed with an error the actor declared as handled.
	KindException
	// The operation suspended and was never resumed.
	KindSuspended
	// The operation suspended and its request was cancelled.
	KindCancelled
	// The operation was never invoked because an earlier operation of the
	// same thread stayed suspended.
	KindNoResult
	// The operation did not finish within the invocation timeout.
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindVoid:
		return "void"
	case KindException:
		return "exception"
	case KindSuspended:
		return "suspended"
	case KindCancelled:
		return "cancelled"
	case KindNoResult:
		return "no result"
	case KindTimeout:
		return "timeout"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Result is the outcome of invoking one operation.
//
// It is a closed tagged union over the kinds above. Results are created once
// by the execution engine or the sequential replay and never mutated.
type Result struct {
	kind  Kind
	value any
	err   error

	// True if the result was produced by resuming a suspended request.
	// Carried for diagnostics; equality ignores it, since a specification
	// may legally complete the same operation directly or through a
	// suspension.
	wasSuspended bool
}

// Value creates a result carrying the returned value.
func Value(v any) Result {
	return Result{kind: KindValue, value: v}
}

// Void creates a result for an operation without a return value.
func Void() Result {
	return Result{kind: KindVoid}
}

// Exception creates a result for an operation that failed with a handled error.
func Exception(err error) Result {
	return Result{kind: KindException, err: err}
}

// Suspended creates a result for a request that stayed suspended.
func Suspended() Result {
	return Result{kind: KindSuspended}
}

// Cancelled creates a result for a request that was cancelled instead of resumed.
func Cancelled() Result {
	return Result{kind: KindCancelled}
}

// NoResult creates a result for an operation that was never invoked.
func NoResult() Result {
	return Result{kind: KindNoResult}
}

// Timeout creates a result for an operation that exceeded the invocation timeout.
func Timeout() Result {
	return Result{kind: KindTimeout}
}

func (r Result) Kind() Kind { return r.kind }

// Value returns the carried value. Only meaningful for KindValue results.
func (r Result) Value() any { return r.value }

// Err returns the carried error. Only meaningful for KindException results.
func (r Result) Err() error { return r.err }

// WasSuspended reports whether the result was produced through a
// suspension/resumption handoff rather than a direct completion.
func (r Result) WasSuspended() bool { return r.wasSuspended }

// Resumed marks the result as produced through a resumption.
func (r Result) Resumed() Result {
	r.wasSuspended = true
	return r
}

// Equals reports whether two results are interchangeable for verification.
//
// Value results compare by payload, exception results by error identity
// (errors.Is in either direction, falling back to the dynamic type). Void
// results are equal regardless of whether they went through a suspension:
// the sequential specification may represent a completed void operation
// either way, and treating them as distinct makes the formalism too strict
// for dual data structures.
func (r Result) Equals(other Result) bool {
	if r.kind != other.kind {
		return false
	}
	switch r.kind {
	case KindValue:
		return reflect.DeepEqual(r.value, other.value)
	case KindException:
		return sameError(r.err, other.err)
	default:
		return true
	}
}

func sameError(a, b error) bool {
	if a == nil || b == nil {
		return a == b
	}
	if errors.Is(a, b) || errors.Is(b, a) {
		return true
	}
	return reflect.TypeOf(a) == reflect.TypeOf(b)
}

func (r Result) String() string {
	switch r.kind {
	case KindValue:
		return fmt.Sprintf("%v", r.value)
	case KindException:
		return fmt.Sprintf("exception=%v", r.err)
	default:
		return r.kind.String()
	}
}

// Key returns a string usable as a map key for memoizing results. The
// payload's dynamic type is part of the key so that differently typed
// payloads with the same rendering do not collide.
func (r Result) Key() string {
	return fmt.Sprintf("%d:%T:%v:%v", int(r.kind), r.value, r.value, r.err)
}
