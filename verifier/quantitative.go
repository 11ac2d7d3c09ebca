package verifier

import (
	"reflect"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"linchk/lts"
	"linchk/result"
	"linchk/runner"
	"linchk/scenario"
)

// QuantitativeRelaxationVerifier checks k-relaxed linearizability against a
// cost-counter specification: a transition may deviate from strict
// sequential behavior at a cost, and a path is legal while the configured
// PathCostFunction keeps the accumulated cost within the relaxation factor.
//
// Cost-counter methods receive the actor arguments plus the observed result
// and return either []lts.CostWithNextState (a relaxed operation fanning out
// into candidate successors) or the next counter instance directly, nil
// meaning the result is not producible.
type QuantitativeRelaxationVerifier struct {
	newCounter func() any
	factor     int
	pathCost   lts.PathCostFunction
}

func NewQuantitativeRelaxation(newCounter func() any, factor int, pathCost lts.PathCostFunction) (*QuantitativeRelaxationVerifier, error) {
	if factor < 1 {
		return nil, errors.Errorf("verifier: relaxation factor %d, want >= 1", factor)
	}
	return &QuantitativeRelaxationVerifier{
		newCounter: newCounter,
		factor:     factor,
		pathCost:   pathCost,
	}, nil
}

func (v *QuantitativeRelaxationVerifier) Verify(scn *scenario.ExecutionScenario, res *runner.ExecutionResult) (bool, error) {
	if scn.HasSuspendableActors() {
		return false, errors.New("verifier: quantitative relaxation does not support suspendable actors")
	}
	if len(res.Parallel) != scn.Threads() {
		return false, errors.Errorf("verifier: result has %d parallel threads, scenario %d", len(res.Parallel), scn.Threads())
	}

	ctx := &costContext{
		scn:     scn,
		res:     res,
		counter: v.newCounter(),
		index:   make([]int, scn.Threads()),
	}
	counter, cost, ok, err := v.foldSequential(ctx.counter, lts.IterationCost{}, scn.Init, res.Init)
	if err != nil || !ok {
		return false, err
	}
	ctx.counter = counter
	ctx.cost = cost
	return v.search(ctx)
}

type costContext struct {
	scn *scenario.ExecutionScenario
	res *runner.ExecutionResult

	counter any
	cost    lts.IterationCost
	index   []int
}

func (c *costContext) allDone() bool {
	for t, i := range c.index {
		if i < len(c.scn.Parallel[t]) {
			return false
		}
	}
	return true
}

func (c *costContext) hbLegal(t int, snapshot result.ResultWithClock) bool {
	for u, ts := range snapshot.Clock {
		if u == t || ts == -1 {
			continue
		}
		if c.index[u] <= ts {
			return false
		}
	}
	return true
}

// search explores every candidate successor of every schedulable thread,
// depth first, pruning paths whose accumulated cost leaves the relaxation
// bound.
func (v *QuantitativeRelaxationVerifier) search(c *costContext) (bool, error) {
	if c.allDone() {
		_, _, ok, err := v.foldSequential(c.counter, c.cost, c.scn.Post, c.res.Post)
		return ok, err
	}
	for t := range c.scn.Parallel {
		i := c.index[t]
		if i >= len(c.scn.Parallel[t]) {
			continue
		}
		observed := c.res.Parallel[t][i]
		if !c.hbLegal(t, observed) {
			continue
		}
		candidates, err := invokeCostCounter(c.counter, c.scn.Parallel[t][i], observed.Result)
		if err != nil {
			return false, err
		}
		for _, cand := range candidates {
			cost, within := v.pathCost.Next(c.cost, cand, v.factor)
			if !within {
				continue
			}
			next := &costContext{
				scn:     c.scn,
				res:     c.res,
				counter: cand.Next,
				cost:    cost,
				index:   slices.Clone(c.index),
			}
			next.index[t]++
			ok, err := v.search(next)
			if err != nil || ok {
				return ok, err
			}
		}
	}
	return false, nil
}

func (v *QuantitativeRelaxationVerifier) foldSequential(counter any, cost lts.IterationCost, actors []scenario.Actor, results []result.Result) (any, lts.IterationCost, bool, error) {
	if len(actors) != len(results) {
		return nil, cost, false, errors.Errorf("verifier: %d actors with %d results", len(actors), len(results))
	}
	for i, a := range actors {
		candidates, err := invokeCostCounter(counter, a, results[i])
		if err != nil {
			return nil, cost, false, err
		}
		// A single-threaded part has exactly one legal history, so any
		// candidate within the bound will do.
		advanced := false
		for _, cand := range candidates {
			next, within := v.pathCost.Next(cost, cand, v.factor)
			if !within {
				continue
			}
			counter, cost, advanced = cand.Next, next, true
			break
		}
		if !advanced {
			return nil, cost, false, nil
		}
	}
	return counter, cost, true, nil
}

// invokeCostCounter calls the actor's method on the counter with the
// observed result appended to the arguments. The empty candidate list means
// the counter cannot produce the observed result here.
func invokeCostCounter(counter any, a scenario.Actor, observed result.Result) ([]lts.CostWithNextState, error) {
	m := reflect.ValueOf(counter).MethodByName(a.Method)
	if !m.IsValid() {
		return nil, errors.Errorf("verifier: cost counter %T has no method %s", counter, a.Method)
	}
	mt := m.Type()
	if mt.NumIn() != len(a.Args)+1 {
		return nil, errors.Errorf("verifier: %T.%s takes %d arguments, scenario supplies %d plus the result", counter, a.Method, mt.NumIn(), len(a.Args))
	}
	if mt.NumOut() != 1 {
		return nil, errors.Errorf("verifier: %T.%s returns %d values, want 1", counter, a.Method, mt.NumOut())
	}

	args := make([]reflect.Value, 0, len(a.Args)+1)
	for i, arg := range a.Args {
		if arg == nil {
			args = append(args, reflect.Zero(mt.In(i)))
		} else {
			args = append(args, reflect.ValueOf(arg))
		}
	}
	args = append(args, reflect.ValueOf(observed))

	out := m.Call(args)[0]
	if candidates, ok := out.Interface().([]lts.CostWithNextState); ok {
		return candidates, nil
	}
	switch out.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		if out.IsNil() {
			return nil, nil
		}
	}
	// A non-relaxed operation: the next counter at zero cost.
	return []lts.CostWithNextState{{Next: out.Interface()}}, nil
}
