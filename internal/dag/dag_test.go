// SPDX-License-Identifier: MPL-2.0

package dag

import (
	"errors"
	"slices"
	"testing"
)

func TestTopologicalSort_EmptyGraph(t *testing.T) {
	t.Parallel()
	g := New()
	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order != nil {
		t.Errorf("expected nil, got %v", order)
	}
}

func TestTopologicalSort_LinearChain(t *testing.T) {
	t.Parallel()
	g := New()
	// A -> B -> C (A must be processed first, then B, then C)
	g.AddEdge("A", "B")
	g.AddEdge("B", "C")

	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []string{"A", "B", "C"}
	if !slices.Equal(order, expected) {
		t.Errorf("expected %v, got %v", expected, order)
	}
}

func TestTopologicalSort_Diamond(t *testing.T) {
	t.Parallel()
	g := New()
	// A -> B, A -> C, B -> D, C -> D
	g.AddEdge("A", "B")
	g.AddEdge("A", "C")
	g.AddEdge("B", "D")
	g.AddEdge("C", "D")

	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []string{"A", "B", "C", "D"}
	if !slices.Equal(order, expected) {
		t.Errorf("expected %v, got %v", expected, order)
	}
}

func TestTopologicalSort_Cycle(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddEdge("A", "B")
	g.AddEdge("B", "A")

	_, err := g.TopologicalSort()
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected CycleError, got %v", err)
	}
	if !slices.Contains(cycleErr.Cycle, "A") || !slices.Contains(cycleErr.Cycle, "B") {
		t.Errorf("cycle should name both A and B, got %v", cycleErr.Cycle)
	}
}

func TestClosure_TransitiveDeps(t *testing.T) {
	t.Parallel()
	g := New()
	// foo depends on bar, bar depends on baz; qux is unrelated.
	g.AddEdge("foo", "bar")
	g.AddEdge("bar", "baz")
	g.AddNode("qux")

	got := g.Closure([]string{"foo"})
	expected := []string{"foo", "bar", "baz"}
	if !slices.Equal(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func TestClosure_NoDuplicates(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddEdge("foo", "shared")
	g.AddEdge("bar", "shared")

	got := g.Closure([]string{"foo", "bar", "foo"})
	expected := []string{"foo", "shared", "bar"}
	if !slices.Equal(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func TestClosure_UnknownStartNode(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddEdge("foo", "bar")

	got := g.Closure([]string{"ghost"})
	if !slices.Equal(got, []string{"ghost"}) {
		t.Errorf("unknown start node should pass through, got %v", got)
	}
}
