package linchk

import (
	"fmt"
	"strings"

	"linchk/runner"
	"linchk/scenario"
)

// Failure describes why checking failed, carrying the scenario that produced
// it (minimized by default).
type Failure interface {
	FailedScenario() *scenario.ExecutionScenario
	fmt.Stringer
}

// IncorrectResultsFailure reports an invocation whose observed results no
// legal sequential execution of the specification can reproduce.
type IncorrectResultsFailure struct {
	Scenario *scenario.ExecutionScenario
	Results  *runner.ExecutionResult
}

func (f IncorrectResultsFailure) FailedScenario() *scenario.ExecutionScenario { return f.Scenario }

func (f IncorrectResultsFailure) String() string {
	var b strings.Builder
	b.WriteString("incorrect results\n")
	b.WriteString(f.Scenario.String())
	b.WriteString("observed:\n")
	b.WriteString(f.Results.String())
	return b.String()
}

// DeadlockFailure reports an invocation that exceeded the timeout, with a
// goroutine dump taken at that moment.
type DeadlockFailure struct {
	Scenario   *scenario.ExecutionScenario
	ThreadDump string
}

func (f DeadlockFailure) FailedScenario() *scenario.ExecutionScenario { return f.Scenario }

func (f DeadlockFailure) String() string {
	return fmt.Sprintf("deadlock or livelock\n%s%s", f.Scenario, f.ThreadDump)
}

// UnexpectedExceptionFailure reports an actor invocation that returned or
// panicked with an error its actor does not declare as handled. Thread is -1
// for the init and post parts.
type UnexpectedExceptionFailure struct {
	Scenario *scenario.ExecutionScenario
	Thread   int
	Err      error
}

func (f UnexpectedExceptionFailure) FailedScenario() *scenario.ExecutionScenario { return f.Scenario }

func (f UnexpectedExceptionFailure) String() string {
	return fmt.Sprintf("unexpected exception in thread %d: %v\n%s", f.Thread, f.Err, f.Scenario)
}

// ValidationFailure reports a validation function rejecting the structure's
// state. Prefix is the part of the scenario executed up to the failing
// validation point.
type ValidationFailure struct {
	Scenario *scenario.ExecutionScenario
	Prefix   *scenario.ExecutionScenario
	Err      error
}

func (f ValidationFailure) FailedScenario() *scenario.ExecutionScenario { return f.Scenario }

func (f ValidationFailure) String() string {
	return fmt.Sprintf("validation failed: %v\nafter executing:\n%s", f.Err, f.Prefix)
}
