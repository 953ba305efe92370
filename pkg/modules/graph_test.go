package modules

import "testing"

func TestBuildOrderLinearChain(t *testing.T) {
	g := NewGraph()
	g.AddEdge(0, 1, Value)
	g.AddEdge(1, 2, Value)

	order, err := g.BuildOrder()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pos := map[ModuleID]int{}
	for i, id := range order {
		pos[id] = i
	}
	if pos[0] >= pos[1] || pos[1] >= pos[2] {
		t.Errorf("expected 0 before 1 before 2, got order %v", order)
	}
}

func TestBuildOrderIgnoresTypeOnlyEdges(t *testing.T) {
	g := NewGraph()
	g.AddEdge(0, 1, TypeOnly)
	g.AddEdge(1, 0, TypeOnly)

	// A cycle made entirely of TypeOnly edges must not block BuildOrder
	// and must not be reported by DetectValueCycles.
	if _, err := g.BuildOrder(); err != nil {
		t.Fatalf("type-only cycle should not block build order: %v", err)
	}
	if cycles := g.DetectValueCycles(); len(cycles) != 0 {
		t.Errorf("expected no value cycles, got %v", cycles)
	}
}

func TestDetectValueCycles(t *testing.T) {
	g := NewGraph()
	g.AddEdge(0, 1, Value)
	g.AddEdge(1, 0, Value)

	_, err := g.BuildOrder()
	if err == nil {
		t.Fatal("expected BuildOrder to fail on a value cycle")
	}

	cycles := g.DetectValueCycles()
	if len(cycles) != 1 || len(cycles[0]) != 2 {
		t.Fatalf("expected one 2-node cycle, got %v", cycles)
	}
}

func TestBuildOrderDeterministicTieBreak(t *testing.T) {
	g := NewGraph()
	g.AddEdge(2, 10, Value)
	g.AddEdge(0, 10, Value)
	g.AddEdge(1, 10, Value)

	order, err := g.BuildOrder()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []ModuleID{0, 1, 2, 10}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i, id := range want {
		if order[i] != id {
			t.Errorf("expected order %v, got %v", want, order)
			break
		}
	}
}
