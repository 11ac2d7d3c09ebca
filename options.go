package linchk

import (
	"time"

	"linchk/gen"
	"linchk/lts"
	"linchk/runner"
	"linchk/scenario"
	"linchk/verifier"
)

type config struct {
	iterations  int
	invocations int
	timeout     time.Duration
	stateRep    func(any) string
	minimize    bool
	checkEquiv  bool
}

func defaultConfig() config {
	return config{
		iterations:  100,
		invocations: 1000,
		timeout:     runner.DefaultTimeout,
		minimize:    true,
		checkEquiv:  true,
	}
}

type Option interface{}

type iterationsOption struct{ n int }

// Configure the number of iterations: distinct scenarios checked.
//
// Default value is 100.
func Iterations(n int) Option {
	return iterationsOption{n: n}
}

type invocationsOption struct{ n int }

// Configure the number of invocations per iteration: how often each scenario
// is executed and its results verified.
//
// Default value is 1000.
func InvocationsPerIteration(n int) Option {
	return invocationsOption{n: n}
}

type timeoutOption struct{ d time.Duration }

// Configure the invocation timeout after which an iteration is reported as
// deadlocked.
//
// Default value is 10 seconds.
func InvocationTimeout(d time.Duration) Option {
	return timeoutOption{d: d}
}

type stateRepresentationOption struct{ f func(any) string }

// Configure a function rendering the tested structure's state, captured at
// the end of every completed invocation and attached to failure reports.
func WithStateRepresentation(f func(any) string) Option {
	return stateRepresentationOption{f: f}
}

type noMinimizationOption struct{}

// Report the originally generated failing scenario instead of greedily
// minimizing it first. Minimization re-executes shrunk scenarios, so
// disabling it makes failures cheaper but harder to read.
func NoMinimization() Option {
	return noMinimizationOption{}
}

type skipEquivalenceCheckOption struct{}

// Skip the up-front sanity check of the specification's StateEquals and
// StateHash implementation.
func SkipEquivalenceCheck() Option {
	return skipEquivalenceCheckOption{}
}

// VerifierOption selects the correctness model the observed results are
// checked against.
type VerifierOption struct {
	build func(checkEquivalence bool) (verifier.Verifier, error)
}

// Check linearizability against the sequential specification. newSpec must
// return a fresh specification instance implementing lts.Equivalence.
func LinearizabilityChecking(newSpec func() any) VerifierOption {
	return VerifierOption{build: func(checkEquivalence bool) (verifier.Verifier, error) {
		return verifier.NewLinearizability(newSpec, checkEquivalence)
	}}
}

// Check quiescent consistency: actors marked quiescent-consistent may
// reorder across threads.
func QuiescentConsistencyChecking(newSpec func() any) VerifierOption {
	return VerifierOption{build: func(checkEquivalence bool) (verifier.Verifier, error) {
		return verifier.NewQuiescentConsistency(newSpec, checkEquivalence)
	}}
}

// Check durable linearizability: adjacent re-executions of an operation
// after recovery collapse into one.
func DurableLinearizabilityChecking(newSpec func() any) VerifierOption {
	return VerifierOption{build: func(checkEquivalence bool) (verifier.Verifier, error) {
		return verifier.NewDurableLinearizability(newSpec, checkEquivalence)
	}}
}

// Check quantitatively relaxed linearizability against a cost-counter
// specification, bounded by the path cost function and relaxation factor.
func QuantitativeRelaxationChecking(newCounter func() any, factor int, pathCost lts.PathCostFunction) VerifierOption {
	return VerifierOption{build: func(bool) (verifier.Verifier, error) {
		return verifier.NewQuantitativeRelaxation(newCounter, factor, pathCost)
	}}
}

// Disable result verification: only deadlocks, unexpected exceptions and
// validation failures are reported.
func NoChecking() VerifierOption {
	return VerifierOption{build: func(bool) (verifier.Verifier, error) {
		return verifier.EpsilonVerifier{}, nil
	}}
}

// Use the provided verifier directly.
func WithVerifier(v verifier.Verifier) VerifierOption {
	return VerifierOption{build: func(bool) (verifier.Verifier, error) {
		return v, nil
	}}
}

// GeneratorOption selects how iteration scenarios are produced.
type GeneratorOption struct {
	build func() (gen.ExecutionGenerator, error)
}

// Sample random scenarios of the given shape from the actor templates.
//
// Initialized with a seed so a failing run can be reproduced.
func RandomScenarios(seed int64, shape gen.Shape, templates []gen.ActorTemplate) GeneratorOption {
	return GeneratorOption{build: func() (gen.ExecutionGenerator, error) {
		return gen.NewRandom(seed, shape, templates)
	}}
}

// Use the provided generator.
func WithGenerator(g gen.ExecutionGenerator) GeneratorOption {
	return GeneratorOption{build: func() (gen.ExecutionGenerator, error) {
		return g, nil
	}}
}

// Check a single fixed scenario every iteration.
func FixedScenario(scn *scenario.ExecutionScenario) GeneratorOption {
	return GeneratorOption{build: func() (gen.ExecutionGenerator, error) {
		if err := scn.Validate(); err != nil {
			return nil, err
		}
		return fixedGenerator{scn: scn}, nil
	}}
}

type fixedGenerator struct{ scn *scenario.ExecutionScenario }

func (g fixedGenerator) Next() (*scenario.ExecutionScenario, error) {
	return g.scn, nil
}
