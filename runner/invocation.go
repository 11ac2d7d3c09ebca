package runner

import (
	"fmt"
	"strings"

	"linchk/result"
	"linchk/scenario"
)

// ExecutionResult holds every result produced by one invocation of a
// scenario: plain results for the single-threaded init and post parts and
// clock-annotated results for the parallel part.
type ExecutionResult struct {
	Init     []result.Result
	Parallel [][]result.ResultWithClock
	Post     []result.Result

	// Optional representation of the tested instance after the scenario,
	// captured for failure diagnostics.
	StateRepresentation string
}

// Key returns a string identity of the observed results, used by the cached
// verifier to memoize verification outcomes.
func (r *ExecutionResult) Key() string {
	out := strings.Builder{}
	for _, res := range r.Init {
		out.WriteString(res.Key())
		out.WriteString("|")
	}
	for _, thread := range r.Parallel {
		out.WriteString("[")
		for _, res := range thread {
			out.WriteString(res.Key())
			out.WriteString("|")
		}
		out.WriteString("]")
	}
	for _, res := range r.Post {
		out.WriteString(res.Key())
		out.WriteString("|")
	}
	return out.String()
}

func (r *ExecutionResult) String() string {
	out := strings.Builder{}
	out.WriteString(fmt.Sprintf("init: %v\n", r.Init))
	for t, thread := range r.Parallel {
		out.WriteString(fmt.Sprintf("thread %d: %v\n", t, thread))
	}
	out.WriteString(fmt.Sprintf("post: %v", r.Post))
	return out.String()
}

// InvocationResult is the outcome of one invocation of a scenario.
//
// Completed carries the execution result; the other implementations are the
// failure modes of execution: deadlock, unexpected error and validation
// failure.
type InvocationResult interface {
	invocationResult()
}

// CompletedInvocationResult is a scenario invocation that ran to the end.
type CompletedInvocationResult struct {
	Result *ExecutionResult
}

// DeadlockInvocationResult is a scenario invocation that exceeded the
// configured timeout. Carries a dump of all goroutine stacks taken at the
// moment the timeout fired.
type DeadlockInvocationResult struct {
	ThreadDump string
}

// UnexpectedExceptionInvocationResult is a scenario invocation aborted by an
// error no actor declared as handled, or by a panic. Thread is -1 for the
// init and post parts.
type UnexpectedExceptionInvocationResult struct {
	Thread int
	Err    error
}

// Error makes the unexpected exception usable as a worker error.
func (u UnexpectedExceptionInvocationResult) Error() string {
	return fmt.Sprintf("runner: unexpected error on thread %d: %v", u.Thread, u.Err)
}

// ValidationFailureInvocationResult is a scenario invocation aborted by a
// failing validation function. Prefix is the truncated scenario that
// reproduces the failure.
type ValidationFailureInvocationResult struct {
	Prefix *scenario.ExecutionScenario
	Err    error
}

func (CompletedInvocationResult) invocationResult()           {}
func (DeadlockInvocationResult) invocationResult()            {}
func (UnexpectedExceptionInvocationResult) invocationResult() {}
func (ValidationFailureInvocationResult) invocationResult()   {}
