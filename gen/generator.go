// Package gen produces execution scenarios for the stress iterations: actor
// templates describe the operations of the tested structure, and a generator
// samples random scenarios from them.
package gen

import (
	"math/rand"

	"github.com/pkg/errors"

	"linchk/scenario"
)

// Arg produces one random argument value for an actor.
type Arg func(rnd *rand.Rand) any

// IntArg produces integers in [0, max).
func IntArg(max int) Arg {
	return func(rnd *rand.Rand) any {
		return rnd.Intn(max)
	}
}

// BoolArg produces booleans.
func BoolArg() Arg {
	return func(rnd *rand.Rand) any {
		return rnd.Intn(2) == 0
	}
}

// ConstArg always produces the same value.
func ConstArg(v any) Arg {
	return func(*rand.Rand) any {
		return v
	}
}

// ActorTemplate describes one operation the generator may pick, with the
// generators of its arguments and the flags carried onto the sampled actors.
type ActorTemplate struct {
	Method              string
	Args                []Arg
	HandledErrors       []error
	Suspendable         bool
	CancelOnSuspension  bool
	QuiescentConsistent bool
}

func (t ActorTemplate) sample(rnd *rand.Rand) scenario.Actor {
	args := make([]any, len(t.Args))
	for i, g := range t.Args {
		args[i] = g(rnd)
	}
	return scenario.Actor{
		Method:              t.Method,
		Args:                args,
		HandledErrors:       t.HandledErrors,
		Suspendable:         t.Suspendable,
		CancelOnSuspension:  t.CancelOnSuspension,
		QuiescentConsistent: t.QuiescentConsistent,
	}
}

// ExecutionGenerator produces the scenario for the next iteration.
type ExecutionGenerator interface {
	Next() (*scenario.ExecutionScenario, error)
}

// Shape fixes the size of the generated scenarios.
type Shape struct {
	Threads         int
	ActorsPerThread int
	InitActors      int
	PostActors      int
}

// RandomExecutionGenerator samples scenarios uniformly from the templates.
// Suspendable templates are only used in the parallel part; when any
// template is suspendable the post part is left empty, since a thread parked
// on a suspension has no one to resume it there.
type RandomExecutionGenerator struct {
	templates []ActorTemplate
	shape     Shape
	rnd       *rand.Rand
}

// NewRandom creates a generator over the templates.
//
// Initialized with a seed so a failing iteration can be reproduced.
func NewRandom(seed int64, shape Shape, templates []ActorTemplate) (*RandomExecutionGenerator, error) {
	if len(templates) == 0 {
		return nil, errors.New("gen: no actor templates")
	}
	if shape.Threads < 1 || shape.ActorsPerThread < 1 {
		return nil, errors.Errorf("gen: shape %d threads x %d actors, want both >= 1", shape.Threads, shape.ActorsPerThread)
	}
	return &RandomExecutionGenerator{
		templates: templates,
		shape:     shape,
		rnd:       rand.New(rand.NewSource(seed)),
	}, nil
}

func (g *RandomExecutionGenerator) Next() (*scenario.ExecutionScenario, error) {
	suspendable := false
	for _, t := range g.templates {
		if t.Suspendable {
			suspendable = true
		}
	}

	scn := &scenario.ExecutionScenario{
		Init:     g.sampleSequential(g.shape.InitActors),
		Parallel: make([][]scenario.Actor, g.shape.Threads),
		Post:     nil,
	}
	for t := range scn.Parallel {
		scn.Parallel[t] = make([]scenario.Actor, g.shape.ActorsPerThread)
		for i := range scn.Parallel[t] {
			scn.Parallel[t][i] = g.pick(true).sample(g.rnd)
		}
	}
	if !suspendable {
		scn.Post = g.sampleSequential(g.shape.PostActors)
	}
	if err := scn.Validate(); err != nil {
		return nil, err
	}
	return scn, nil
}

func (g *RandomExecutionGenerator) sampleSequential(n int) []scenario.Actor {
	sequential := false
	for _, t := range g.templates {
		if !t.Suspendable {
			sequential = true
		}
	}
	if !sequential {
		return nil
	}
	actors := make([]scenario.Actor, 0, n)
	for i := 0; i < n; i++ {
		actors = append(actors, g.pick(false).sample(g.rnd))
	}
	return actors
}

// pick draws a template, redrawing suspendable ones when they are not
// allowed in the target part.
func (g *RandomExecutionGenerator) pick(allowSuspendable bool) ActorTemplate {
	for {
		t := g.templates[g.rnd.Intn(len(g.templates))]
		if t.Suspendable && !allowSuspendable {
			continue
		}
		return t
	}
}
