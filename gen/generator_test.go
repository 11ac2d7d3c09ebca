package gen

import (
	"testing"
)

func templates() []ActorTemplate {
	return []ActorTemplate{
		{Method: "Inc"},
		{Method: "Add", Args: []Arg{IntArg(10)}},
		{Method: "Get"},
	}
}

func TestGeneratedShape(t *testing.T) {
	g, err := NewRandom(1, Shape{Threads: 3, ActorsPerThread: 4, InitActors: 2, PostActors: 1}, templates())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for k := 0; k < 10; k++ {
		scn, err := g.Next()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(scn.Init) != 2 || len(scn.Post) != 1 {
			t.Errorf("unexpected init/post sizes: %d/%d", len(scn.Init), len(scn.Post))
		}
		if scn.Threads() != 3 {
			t.Errorf("expected 3 threads, got %d", scn.Threads())
		}
		for _, thread := range scn.Parallel {
			if len(thread) != 4 {
				t.Errorf("expected 4 actors per thread, got %d", len(thread))
			}
		}
	}
}

func TestSameSeedSameScenarios(t *testing.T) {
	shape := Shape{Threads: 2, ActorsPerThread: 3, InitActors: 1, PostActors: 1}
	a, err := NewRandom(7, shape, templates())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := NewRandom(7, shape, templates())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for k := 0; k < 5; k++ {
		sa, err := a.Next()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		sb, err := b.Next()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sa.String() != sb.String() {
			t.Fatalf("iteration %d: same seed produced different scenarios:\n%s\nvs\n%s", k, sa, sb)
		}
	}
}

func TestSuspendableTemplatePlacement(t *testing.T) {
	ts := append(templates(), ActorTemplate{Method: "Receive", Suspendable: true})
	g, err := NewRandom(3, Shape{Threads: 2, ActorsPerThread: 5, InitActors: 3, PostActors: 3}, ts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for k := 0; k < 20; k++ {
		scn, err := g.Next()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, a := range scn.Init {
			if a.Suspendable {
				t.Fatalf("suspendable actor in the init part")
			}
		}
		if len(scn.Post) != 0 {
			t.Fatalf("expected an empty post part alongside suspendable templates")
		}
	}
}

func TestRejectsEmptyConfiguration(t *testing.T) {
	if _, err := NewRandom(1, Shape{Threads: 2, ActorsPerThread: 2}, nil); err == nil {
		t.Errorf("expected missing templates to be rejected")
	}
	if _, err := NewRandom(1, Shape{}, templates()); err == nil {
		t.Errorf("expected a degenerate shape to be rejected")
	}
}

func TestArgGenerators(t *testing.T) {
	g, err := NewRandom(5, Shape{Threads: 1, ActorsPerThread: 10}, []ActorTemplate{
		{Method: "Add", Args: []Arg{IntArg(3), ConstArg("x"), BoolArg()}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	scn, err := g.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, a := range scn.Parallel[0] {
		if len(a.Args) != 3 {
			t.Fatalf("expected 3 arguments, got %v", a.Args)
		}
		n, ok := a.Args[0].(int)
		if !ok || n < 0 || n >= 3 {
			t.Errorf("int argument out of range: %v", a.Args[0])
		}
		if a.Args[1] != "x" {
			t.Errorf("constant argument changed: %v", a.Args[1])
		}
		if _, ok := a.Args[2].(bool); !ok {
			t.Errorf("expected a bool argument, got %v", a.Args[2])
		}
	}
}
