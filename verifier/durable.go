package verifier

import (
	"linchk/result"
	"linchk/runner"
	"linchk/scenario"
)

// DurableLinearizabilityVerifier checks linearizability of executions over
// durable structures that may replay an operation after a crash: an
// operation re-executed on recovery shows up as an adjacent duplicate in its
// thread's history. Adjacent duplicates with identical results are collapsed
// before the plain linearizability check.
type DurableLinearizabilityVerifier struct {
	lin *LinearizabilityVerifier
}

func NewDurableLinearizability(newSpec func() any, checkEquivalence bool) (*DurableLinearizabilityVerifier, error) {
	lin, err := NewLinearizability(newSpec, checkEquivalence)
	if err != nil {
		return nil, err
	}
	return &DurableLinearizabilityVerifier{lin: lin}, nil
}

func (v *DurableLinearizabilityVerifier) Verify(scn *scenario.ExecutionScenario, res *runner.ExecutionResult) (bool, error) {
	convScn, convRes := collapseDuplicates(scn, res)
	return v.lin.Verify(convScn, convRes)
}

// collapseDuplicates removes, per parallel thread, every actor whose key and
// result both equal those of its immediate predecessor. Collapsing shifts
// operation ordinals, so clock snapshots are dropped whenever any thread
// actually collapsed; untouched executions keep their clocks and lose no
// precision.
func collapseDuplicates(scn *scenario.ExecutionScenario, res *runner.ExecutionResult) (*scenario.ExecutionScenario, *runner.ExecutionResult) {
	actors := make([][]scenario.Actor, scn.Threads())
	results := make([][]result.ResultWithClock, scn.Threads())
	collapsed := false

	for t, thread := range scn.Parallel {
		for i, a := range thread {
			r := res.Parallel[t][i]
			if n := len(actors[t]); n > 0 {
				prev := actors[t][n-1]
				if prev.Key() == a.Key() && results[t][n-1].Equals(r.Result) {
					collapsed = true
					continue
				}
			}
			actors[t] = append(actors[t], a)
			results[t] = append(results[t], r)
		}
	}

	if !collapsed {
		return scn, res
	}
	for t := range results {
		for i := range results[t] {
			results[t][i].Clock = nil
		}
	}
	convScn := &scenario.ExecutionScenario{
		Init:     scn.Init,
		Parallel: actors,
		Post:     scn.Post,
	}
	convRes := &runner.ExecutionResult{
		Init:     res.Init,
		Parallel: results,
		Post:     res.Post,
	}
	return convScn, convRes
}
