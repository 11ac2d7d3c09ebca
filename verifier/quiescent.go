package verifier

import (
	"linchk/result"
	"linchk/runner"
	"linchk/scenario"
)

// QuiescentConsistencyVerifier relaxes linearizability across quiescent
// points: operations marked quiescent-consistent may reorder with operations
// of other threads, while program order still holds between the remaining
// operations of each thread.
//
// The relaxation is implemented as a scenario conversion: every
// quiescent-consistent actor of a multi-actor thread moves to a fresh
// logical thread of its own, after which plain linearizability is checked.
type QuiescentConsistencyVerifier struct {
	lin *LinearizabilityVerifier
}

func NewQuiescentConsistency(newSpec func() any, checkEquivalence bool) (*QuiescentConsistencyVerifier, error) {
	lin, err := NewLinearizability(newSpec, checkEquivalence)
	if err != nil {
		return nil, err
	}
	return &QuiescentConsistencyVerifier{lin: lin}, nil
}

func (v *QuiescentConsistencyVerifier) Verify(scn *scenario.ExecutionScenario, res *runner.ExecutionResult) (bool, error) {
	convScn, convRes := convertQuiescent(scn, res)
	return v.lin.Verify(convScn, convRes)
}

// convertQuiescent relocates quiescent-consistent actors into singleton
// threads, converting the scenario and the observed results in lockstep.
// Clock snapshots are dropped: relocated actors no longer share the original
// thread indexing, and the model deliberately forgets cross-thread order.
func convertQuiescent(scn *scenario.ExecutionScenario, res *runner.ExecutionResult) (*scenario.ExecutionScenario, *runner.ExecutionResult) {
	n := scn.Threads()
	actors := make([][]scenario.Actor, n)
	results := make([][]result.ResultWithClock, n)

	for t, thread := range scn.Parallel {
		for i, a := range thread {
			r := res.Parallel[t][i]
			if a.QuiescentConsistent && len(thread) > 1 {
				actors = append(actors, []scenario.Actor{a})
				results = append(results, []result.ResultWithClock{{Result: r.Result}})
				continue
			}
			actors[t] = append(actors[t], a)
			results[t] = append(results[t], result.ResultWithClock{Result: r.Result})
		}
	}

	// Relocation may leave an original thread empty; keep it, the search
	// marks empty threads done immediately.
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
