package lts

// Quantitative relaxation support: instead of one deterministic next state,
// a relaxed operation on a cost-counter specification fans out into several
// candidate next states, each carrying a transition cost and a predicate
// flag. A path cost function bounds the acceptable total over a path,
// generalizing strict linearizability to structures that are "not too far"
// from sequential.

// CostWithNextState is one candidate outcome of a relaxed operation: the
// next cost-counter state with the transition cost and predicate
// satisfaction.
type CostWithNextState struct {
	Next      any
	Cost      int
	Predicate bool
}

// PathCostFunction is the strategy bounding the accumulated relaxation cost
// along a path, parameterized by the relaxation factor.
type PathCostFunction int

const (
	// No relaxation: every transition must have zero cost.
	NonRelaxed PathCostFunction = iota
	// The maximal transition cost on the path must not exceed the factor.
	MaxCost
	// Runs of consecutive predicate-satisfying transitions must stay
	// shorter than the factor.
	PhiInterval
	// Both of the above.
	PhiIntervalRestrictedMax
)

func (f PathCostFunction) String() string {
	switch f {
	case NonRelaxed:
		return "non-relaxed"
	case MaxCost:
		return "max"
	case PhiInterval:
		return "phi-interval"
	case PhiIntervalRestrictedMax:
		return "phi-interval-restricted-max"
	}
	return "unknown"
}

// IterationCost is the accumulated relaxation bookkeeping along one path.
type IterationCost struct {
	// Maximal transition cost seen so far.
	Cost int
	// Length of the current run of predicate-satisfying transitions.
	PredicateRun int
}

// Next folds one transition into the path cost. Reports the new accumulated
// cost and whether the path is still within the relaxation factor.
func (f PathCostFunction) Next(prev IterationCost, t CostWithNextState, factor int) (IterationCost, bool) {
	next := prev
	if t.Cost > next.Cost {
		next.Cost = t.Cost
	}
	if t.Predicate {
		next.PredicateRun = prev.PredicateRun + 1
	} else {
		next.PredicateRun = 0
	}

	switch f {
	case NonRelaxed:
		return next, t.Cost == 0 && !t.Predicate
	case MaxCost:
		return next, next.Cost <= factor
	case PhiInterval:
		return next, next.PredicateRun < factor
	case PhiIntervalRestrictedMax:
		return next, next.Cost <= factor && next.PredicateRun < factor
	}
	return next, false
}
