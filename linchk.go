// Package linchk stress-tests concurrent data structures for correctness:
// random scenarios are executed many times against a live instance, and each
// observed outcome is checked against a sequential specification under the
// configured correctness model.
package linchk

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"linchk/runner"
	"linchk/scenario"
	"linchk/verifier"
)

// Check runs the configured number of iterations and returns the first
// failure, or nil if every observed execution verified. An error reports a
// defect in the checking setup, not in the tested structure.
//
// newInstance must return a fresh instance of the tested structure.
func Check(newInstance func() any, verifOpt VerifierOption, genOpt GeneratorOption, opts ...Option) (Failure, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		switch t := opt.(type) {
		case iterationsOption:
			cfg.iterations = t.n
		case invocationsOption:
			cfg.invocations = t.n
		case timeoutOption:
			cfg.timeout = t.d
		case stateRepresentationOption:
			cfg.stateRep = t.f
		case noMinimizationOption:
			cfg.minimize = false
		case skipEquivalenceCheckOption:
			cfg.checkEquiv = false
		}
	}

	// Surface setup defects (broken equivalence relation, bad factor) before
	// any scenario runs.
	if _, err := verifOpt.build(cfg.checkEquiv); err != nil {
		return nil, err
	}
	g, err := genOpt.build()
	if err != nil {
		return nil, err
	}

	log := logrus.WithFields(logrus.Fields{
		"component": "linchk",
		"run":       uuid.NewString(),
	})

	for it := 0; it < cfg.iterations; it++ {
		scn, err := g.Next()
		if err != nil {
			return nil, err
		}
		log.WithFields(logrus.Fields{
			"iteration": it,
			"scenario":  scn.String(),
		}).Debug("checking scenario")

		// A fresh verifier per iteration bounds the memory held by interned
		// sequential states; the cache still spans the invocations and the
		// minimization runs of this iteration.
		inner, err := verifOpt.build(cfg.checkEquiv)
		if err != nil {
			return nil, err
		}
		v := verifier.NewCached(inner)

		fail, err := runIteration(scn, newInstance, v, cfg)
		if err != nil {
			return nil, err
		}
		if fail == nil {
			continue
		}
		log.WithField("iteration", it).Info("scenario failed")
		if cfg.minimize {
			fail, err = minimize(fail, newInstance, v, cfg)
			if err != nil {
				return nil, err
			}
		}
		return fail, nil
	}
	return nil, nil
}

// runIteration executes one scenario the configured number of times,
// verifying every completed invocation.
func runIteration(scn *scenario.ExecutionScenario, newInstance func() any, v verifier.Verifier, cfg config) (Failure, error) {
	r, err := runner.New(scn, newInstance, cfg.timeout, cfg.stateRep)
	if err != nil {
		return nil, err
	}
	for k := 0; k < cfg.invocations; k++ {
		switch res := r.Run().(type) {
		case runner.CompletedInvocationResult:
			valid, err := v.Verify(scn, res.Result)
			if err != nil {
				return nil, err
			}
			if !valid {
				return IncorrectResultsFailure{Scenario: scn, Results: res.Result}, nil
			}
		case runner.DeadlockInvocationResult:
			return DeadlockFailure{Scenario: scn, ThreadDump: res.ThreadDump}, nil
		case runner.UnexpectedExceptionInvocationResult:
			return UnexpectedExceptionFailure{Scenario: scn, Thread: res.Thread, Err: res.Err}, nil
		case runner.ValidationFailureInvocationResult:
			return ValidationFailure{Scenario: scn, Prefix: res.Prefix, Err: res.Err}, nil
		}
	}
	return nil, nil
}
