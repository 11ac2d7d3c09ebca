// Package scenario defines the execution scenario consumed by the execution
// engine and the verifier: actor invocations grouped into an init part, a
// parallel part with one sequence per logical thread, and a post part.
package scenario

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Actor is one operation invocation: a method name on the tested instance,
// concrete argument values and invocation flags. Immutable once generated.
type Actor struct {
	// Name of the exported method to invoke.
	Method string
	// Concrete argument values, in declaration order.
	Args []any

	// Errors that count as normal Exception results instead of failures.
	// Matched with errors.Is against the returned error.
	HandledErrors []error

	// The operation may park and be completed by another thread.
	Suspendable bool
	// A suspended request is cancelled instead of waiting for resumption.
	CancelOnSuspension bool
	// The operation only needs to be consistent across quiescent points.
	QuiescentConsistent bool
}

func (a Actor) String() string {
	args := make([]string, len(a.Args))
	for i, arg := range a.Args {
		args[i] = fmt.Sprintf("%v", arg)
	}
	return fmt.Sprintf("%s(%s)", a.Method, strings.Join(args, ","))
}

// Key returns a stable identity for transition caching. Actors with the same
// method and arguments behave identically against a deterministic sequential
// specification, so they may share cached transitions.
func (a Actor) Key() string {
	return a.String()
}

// Handled reports whether err is declared as a handled error of the actor.
func (a Actor) Handled(err error) bool {
	for _, h := range a.HandledErrors {
		if errors.Is(err, h) {
			return true
		}
	}
	return false
}

// ValidationFunc checks a user invariant on the tested instance at scenario
// boundaries. A non-nil error fails the iteration with a validation failure.
type ValidationFunc func(instance any) error

// ExecutionScenario is one generated test case.
type ExecutionScenario struct {
	// Run single-threaded before the parallel part.
	Init []Actor
	// One actor sequence per logical thread, run concurrently.
	Parallel [][]Actor
	// Run single-threaded after the parallel part.
	Post []Actor

	// Optional invariant check invoked at every scenario boundary.
	Validation ValidationFunc
}

// Threads returns the number of logical threads in the parallel part.
func (s *ExecutionScenario) Threads() int {
	return len(s.Parallel)
}

// HasSuspendableActors reports whether any parallel actor may suspend.
func (s *ExecutionScenario) HasSuspendableActors() bool {
	for _, thread := range s.Parallel {
		for _, a := range thread {
			if a.Suspendable {
				return true
			}
		}
	}
	return false
}

// Validate checks the scenario invariants before execution.
//
// The parallel part must be non-empty. If the parallel part contains
// suspendable actors, the init part must not, and the post part must be
// empty: a suspended request has no defined order relative to a
// single-threaded epilogue.
func (s *ExecutionScenario) Validate() error {
	if len(s.Parallel) == 0 {
		return errors.New("scenario: the parallel part must contain at least one thread")
	}
	total := 0
	for _, thread := range s.Parallel {
		total += len(thread)
	}
	if total == 0 {
		return errors.New("scenario: the parallel part must contain at least one actor")
	}
	if !s.HasSuspendableActors() {
		return nil
	}
	for _, a := range s.Init {
		if a.Suspendable {
			return errors.New("scenario: the init part must not contain suspendable actors")
		}
	}
	if len(s.Post) > 0 {
		return errors.New("scenario: the post part must be empty when the parallel part contains suspendable actors")
	}
	return nil
}

func (s *ExecutionScenario) String() string {
	out := strings.Builder{}
	out.WriteString(fmt.Sprintf("init: %v\n", s.Init))
	for t, thread := range s.Parallel {
		out.WriteString(fmt.Sprintf("thread %d: %v\n", t, thread))
	}
	out.WriteString(fmt.Sprintf("post: %v", s.Post))
	return out.String()
}
