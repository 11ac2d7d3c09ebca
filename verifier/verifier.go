// Package verifier checks whether a concurrently observed execution result
// is explainable by some legal sequential execution of the specification:
// a depth-first backtracking search over the labeled transition system,
// honoring per-thread program order and the happens-before partial order
// recorded in vector clocks.
package verifier

import (
	"sync"

	"linchk/runner"
	"linchk/scenario"
)

// Verifier decides whether the observed results of one scenario invocation
// are consistent with the configured correctness model.
//
// A false report means no legal sequential interleaving reproduces the
// observed results: a bug in the tested structure. An error reports a defect
// in the verification setup (broken equivalence relation, inconsistent
// sequential specification), which is distinct from a correctness bug.
type Verifier interface {
	Verify(scn *scenario.ExecutionScenario, res *runner.ExecutionResult) (bool, error)
}

// CachedVerifier memoizes verification outcomes per (scenario, result)
// pair, so re-verifying the overlapping results produced by repeated
// invocations and minimized scenarios is cheap.
type CachedVerifier struct {
	inner Verifier

	mu   sync.Mutex
	seen map[string]map[string]bool
}

// NewCached wraps a verifier with memoization.
func NewCached(inner Verifier) *CachedVerifier {
	return &CachedVerifier{
		inner: inner,
		seen:  map[string]map[string]bool{},
	}
}

func (c *CachedVerifier) Verify(scn *scenario.ExecutionScenario, res *runner.ExecutionResult) (bool, error) {
	scnKey := scn.String()
	resKey := res.Key()

	c.mu.Lock()
	if c.seen[scnKey][resKey] {
		c.mu.Unlock()
		return true, nil
	}
	c.mu.Unlock()

	valid, err := c.inner.Verify(scn, res)
	if err != nil {
		return false, err
	}
	if valid {
		c.mu.Lock()
		if c.seen[scnKey] == nil {
			c.seen[scnKey] = map[string]bool{}
		}
		c.seen[scnKey][resKey] = true
		c.mu.Unlock()
	}
	return valid, nil
}

// EpsilonVerifier accepts every execution. Used to disable checking.
type EpsilonVerifier struct{}

func (EpsilonVerifier) Verify(*scenario.ExecutionScenario, *runner.ExecutionResult) (bool, error) {
	return true, nil
}
