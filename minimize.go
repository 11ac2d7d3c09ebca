package linchk

import (
	"golang.org/x/exp/slices"

	"linchk/scenario"
	"linchk/verifier"
)

// minimize greedily shrinks the failing scenario: drop one actor at a time,
// re-run the iteration, and keep any smaller scenario that still fails.
// Stops at a local minimum where no single removal reproduces a failure.
func minimize(fail Failure, newInstance func() any, v verifier.Verifier, cfg config) (Failure, error) {
	scn := fail.FailedScenario()
	for {
		shrunk := false
		for _, cand := range removals(scn) {
			if cand.Validate() != nil {
				continue
			}
			f, err := runIteration(cand, newInstance, v, cfg)
			if err != nil {
				return nil, err
			}
			if f != nil {
				fail, scn, shrunk = f, cand, true
				break
			}
		}
		if !shrunk {
			return fail, nil
		}
	}
}

// removals produces every scenario one actor smaller than scn. A parallel
// thread emptied by a removal is dropped entirely.
func removals(scn *scenario.ExecutionScenario) []*scenario.ExecutionScenario {
	var out []*scenario.ExecutionScenario

	for i := range scn.Init {
		c := shallowCopy(scn)
		c.Init = dropActor(scn.Init, i)
		out = append(out, c)
	}
	for t := range scn.Parallel {
		for i := range scn.Parallel[t] {
			c := shallowCopy(scn)
			c.Parallel = slices.Clone(scn.Parallel)
			if len(scn.Parallel[t]) == 1 {
				c.Parallel = append(c.Parallel[:t:t], c.Parallel[t+1:]...)
			} else {
				c.Parallel[t] = dropActor(scn.Parallel[t], i)
			}
			out = append(out, c)
		}
	}
	for i := range scn.Post {
		c := shallowCopy(scn)
		c.Post = dropActor(scn.Post, i)
		out = append(out, c)
	}
	return out
}

func shallowCopy(scn *scenario.ExecutionScenario) *scenario.ExecutionScenario {
	return &scenario.ExecutionScenario{
		Init:       scn.Init,
		Parallel:   scn.Parallel,
		Post:       scn.Post,
		Validation: scn.Validation,
	}
}

func dropActor(actors []scenario.Actor, i int) []scenario.Actor {
	out := make([]scenario.Actor, 0, len(actors)-1)
	out = append(out, actors[:i]...)
	return append(out, actors[i+1:]...)
}
