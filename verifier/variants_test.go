package verifier

import (
	"testing"

	"github.com/stretchr/testify/require"

	"linchk/lts"
	"linchk/result"
	"linchk/runner"
	"linchk/scenario"
)

func TestQuiescentConsistencyAllowsReordering(t *testing.T) {
	quiescentGet := scenario.Actor{Method: "Get", QuiescentConsistent: true}
	scn := &scenario.ExecutionScenario{
		Parallel: [][]scenario.Actor{{inc(), quiescentGet}},
	}
	// The read follows the increment in program order but returns the older
	// value: illegal under linearizability, legal once the read may float to
	// its own thread.
	res := parallelResult([]result.ResultWithClock{value(1), value(0)})

	lin := newLin(t, newSpecCounter)
	valid, err := lin.Verify(scn, res)
	require.NoError(t, err)
	require.False(t, valid)

	qc, err := NewQuiescentConsistency(newSpecCounter, true)
	require.NoError(t, err)
	valid, err = qc.Verify(scn, res)
	require.NoError(t, err)
	require.True(t, valid)
}

func TestQuiescentConsistencyStillChecksResults(t *testing.T) {
	quiescentGet := scenario.Actor{Method: "Get", QuiescentConsistent: true}
	scn := &scenario.ExecutionScenario{
		Parallel: [][]scenario.Actor{{inc(), quiescentGet}},
	}
	qc, err := NewQuiescentConsistency(newSpecCounter, true)
	require.NoError(t, err)

	valid, err := qc.Verify(scn, parallelResult([]result.ResultWithClock{value(1), value(5)}))
	require.NoError(t, err)
	require.False(t, valid, "an impossible read stays impossible under reordering")
}

func TestDurableLinearizabilityCollapsesReplays(t *testing.T) {
	scn := &scenario.ExecutionScenario{
		Parallel: [][]scenario.Actor{{inc(), inc()}},
	}
	// The second increment is the crash-recovery replay of the first: both
	// report the same value.
	res := parallelResult([]result.ResultWithClock{value(1), value(1)})

	lin := newLin(t, newSpecCounter)
	valid, err := lin.Verify(scn, res)
	require.NoError(t, err)
	require.False(t, valid)

	dur, err := NewDurableLinearizability(newSpecCounter, true)
	require.NoError(t, err)
	valid, err = dur.Verify(scn, res)
	require.NoError(t, err)
	require.True(t, valid)

	// Distinct results are not replays and must still verify strictly.
	valid, err = dur.Verify(scn, parallelResult([]result.ResultWithClock{value(1), value(3)}))
	require.NoError(t, err)
	require.False(t, valid)
}

func TestQuantitativeRelaxation(t *testing.T) {
	scn := &scenario.ExecutionScenario{
		Init:     []scenario.Actor{inc()},
		Parallel: [][]scenario.Actor{{get()}},
	}
	// The read lags one increment behind.
	res := &runner.ExecutionResult{
		Init:     []result.Result{result.Value(int64(1))},
		Parallel: [][]result.ResultWithClock{{value(0)}},
	}

	strict, err := NewQuantitativeRelaxation(newRelaxedCounter, 1, lts.NonRelaxed)
	require.NoError(t, err)
	valid, err := strict.Verify(scn, res)
	require.NoError(t, err)
	require.False(t, valid, "a lagging read must not verify without relaxation")

	relaxed, err := NewQuantitativeRelaxation(newRelaxedCounter, 1, lts.MaxCost)
	require.NoError(t, err)
	valid, err = relaxed.Verify(scn, res)
	require.NoError(t, err)
	require.True(t, valid, "a lag of one is within a relaxation factor of one")

	// A lag of two exceeds the factor.
	scn2 := &scenario.ExecutionScenario{
		Init:     []scenario.Actor{inc(), inc()},
		Parallel: [][]scenario.Actor{{get()}},
	}
	res2 := &runner.ExecutionResult{
		Init:     []result.Result{result.Value(int64(1)), result.Value(int64(2))},
		Parallel: [][]result.ResultWithClock{{value(0)}},
	}
	valid, err = relaxed.Verify(scn2, res2)
	require.NoError(t, err)
	require.False(t, valid)
}

func TestQuantitativeRejectsSuspendableActors(t *testing.T) {
	v, err := NewQuantitativeRelaxation(newRelaxedCounter, 1, lts.MaxCost)
	require.NoError(t, err)
	scn := &scenario.ExecutionScenario{
		Parallel: [][]scenario.Actor{{{Method: "Get", Suspendable: true}}},
	}
	_, err = v.Verify(scn, parallelResult([]result.ResultWithClock{value(0)}))
	require.Error(t, err)
}

// countingVerifier records how often the inner verification actually ran.
type countingVerifier struct {
	inner Verifier
	calls int
}

func (c *countingVerifier) Verify(scn *scenario.ExecutionScenario, res *runner.ExecutionResult) (bool, error) {
	c.calls++
	return c.inner.Verify(scn, res)
}

func TestCachedVerifierMemoizesValidOutcomes(t *testing.T) {
	counting := &countingVerifier{inner: newLin(t, newSpecCounter)}
	cached := NewCached(counting)

	scn := &scenario.ExecutionScenario{
		Parallel: [][]scenario.Actor{{inc()}},
	}
	res := parallelResult([]result.ResultWithClock{value(1)})

	for k := 0; k < 3; k++ {
		valid, err := cached.Verify(scn, res)
		require.NoError(t, err)
		require.True(t, valid)
	}
	require.Equal(t, 1, counting.calls, "a valid outcome must be verified once")

	// Invalid outcomes are not cached: a failure must be reproducible.
	bad := parallelResult([]result.ResultWithClock{value(9)})
	for k := 0; k < 2; k++ {
		valid, err := cached.Verify(scn, bad)
		require.NoError(t, err)
		require.False(t, valid)
	}
	require.Equal(t, 3, counting.calls)
}

func TestEpsilonVerifierAcceptsEverything(t *testing.T) {
	scn := &scenario.ExecutionScenario{
		Parallel: [][]scenario.Actor{{inc()}},
	}
	valid, err := EpsilonVerifier{}.Verify(scn, parallelResult([]result.ResultWithClock{value(999)}))
	require.NoError(t, err)
	require.True(t, valid)
}
