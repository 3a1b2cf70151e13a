package graph

import (
	"errors"
	"maps"
	"slices"
	"testing"
)

func newStore(n int) *Store[string] {
	s := NewStore[string]()
	for i := range n {
		s.Add(string(rune('a' + i)))
	}
	return s
}

func TestStore(t *testing.T) {
	s := NewStore[string]()
	a := s.Add("a")
	b := s.Add("b")

	if a != 0 || b != 1 {
		t.Fatalf("ids = %d, %d, want 0, 1", a, b)
	}
	if got, ok := s.Node(b); !ok || got != "b" {
		t.Errorf("Node(b) = %q, %v", got, ok)
	}
	if _, ok := s.Node(5); ok {
		t.Error("Node(5) should be absent")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestDirected_SetGetRemove(t *testing.T) {
	s := newStore(3)
	d := NewDirected[int](s)

	d.SetEdge(0, 1, 10)
	d.SetEdge(0, 2, 20)
	d.SetEdge(0, 1, 11)

	if v, ok := d.Edge(0, 1); !ok || v != 11 {
		t.Errorf("Edge(0,1) = %d, %v, want 11, true", v, ok)
	}
	if _, ok := d.Edge(1, 0); ok {
		t.Error("Edge(1,0) should not exist in a directed layer")
	}
	if d.Len() != 2 {
		t.Errorf("Len() = %d, want 2", d.Len())
	}

	// The backward index sees the overwritten value.
	in := maps.Collect(d.Incoming(1))
	if in[0] != 11 {
		t.Errorf("Incoming(1)[0] = %d, want 11", in[0])
	}

	if !d.RemoveEdge(0, 1) {
		t.Error("RemoveEdge(0,1) = false, want true")
	}
	if d.RemoveEdge(0, 1) {
		t.Error("second RemoveEdge(0,1) = true, want false")
	}
	if d.InDegree(1) != 0 || d.OutDegree(0) != 1 {
		t.Errorf("degrees after remove: in(1)=%d out(0)=%d", d.InDegree(1), d.OutDegree(0))
	}
}

func TestDirected_OutgoingAscending(t *testing.T) {
	s := newStore(6)
	d := NewDirected[Unit](s)
	for _, b := range []ID{5, 2, 4, 1} {
		d.SetEdge(0, b, Unit{})
	}
	d.RemoveEdge(0, 4)
	d.SetEdge(0, 3, Unit{})

	got := slices.Collect(maps.Keys(maps.Collect(d.Outgoing(0))))
	slices.Sort(got)

	var ordered []ID
	for id := range d.Outgoing(0) {
		ordered = append(ordered, id)
	}

	want := []ID{1, 2, 3, 5}
	if !slices.Equal(ordered, want) {
		t.Errorf("Outgoing(0) order = %v, want %v", ordered, want)
	}
	if !slices.Equal(got, want) {
		t.Errorf("Outgoing(0) set = %v, want %v", got, want)
	}
}

func TestDirected_LayersAreIndependent(t *testing.T) {
	s := newStore(2)
	deps := NewDirected[Unit](s)
	other := NewDirected[string](s)

	deps.SetEdge(0, 1, Unit{})
	if other.HasEdge(0, 1) {
		t.Error("edge leaked into an unrelated layer")
	}
}

func TestDirected_TopoSort(t *testing.T) {
	s := newStore(5)
	d := NewDirected[Unit](s)
	edges := [][2]ID{{3, 1}, {1, 0}, {4, 3}, {2, 0}, {4, 2}}
	for _, e := range edges {
		d.SetEdge(e[0], e[1], Unit{})
	}

	order, err := d.TopoSort()
	if err != nil {
		t.Fatalf("TopoSort() error = %v", err)
	}
	if len(order) != 5 {
		t.Fatalf("len(order) = %d, want 5", len(order))
	}

	pos := make(map[ID]int)
	for i, id := range order {
		pos[id] = i
	}
	for _, e := range edges {
		if pos[e[0]] >= pos[e[1]] {
			t.Errorf("edge %v: %d does not precede %d in %v", e, e[0], e[1], order)
		}
	}

	again, _ := d.TopoSort()
	if !slices.Equal(order, again) {
		t.Errorf("TopoSort() not deterministic: %v vs %v", order, again)
	}
}

func TestDirected_TopoSortCycle(t *testing.T) {
	s := newStore(4)
	d := NewDirected[Unit](s)
	d.SetEdge(0, 1, Unit{})
	d.SetEdge(1, 2, Unit{})
	d.SetEdge(2, 0, Unit{})
	d.SetEdge(3, 0, Unit{})

	var first *CycleError
	for i := range 3 {
		order, err := d.TopoSort()
		if order != nil {
			t.Errorf("order = %v, want nil", order)
		}
		if !errors.Is(err, ErrCyclic) {
			t.Fatalf("TopoSort() error = %v, want ErrCyclic", err)
		}
		var ce *CycleError
		if !errors.As(err, &ce) {
			t.Fatalf("error %T is not *CycleError", err)
		}
		if i == 0 {
			first = ce
		} else if ce.Node != first.Node {
			t.Errorf("cycle node = %d, want %d", ce.Node, first.Node)
		}
	}
}

func TestDirected_TopoSortDeepChain(t *testing.T) {
	const n = 200000
	s := NewStore[int]()
	for i := range n {
		s.Add(i)
	}
	d := NewDirected[Unit](s)
	for i := n - 1; i > 0; i-- {
		d.SetEdge(ID(i), ID(i-1), Unit{})
	}

	order, err := d.TopoSort()
	if err != nil {
		t.Fatalf("TopoSort() error = %v", err)
	}
	if order[0] != n-1 || order[n-1] != 0 {
		t.Errorf("order ends = %d..%d, want %d..0", order[0], order[n-1], n-1)
	}
}

func TestUndirected(t *testing.T) {
	s := newStore(4)
	u := NewUndirected[string](s)

	u.SetEdge(2, 1, "x")
	if v, ok := u.Edge(1, 2); !ok || v != "x" {
		t.Errorf("Edge(1,2) = %q, %v, want x, true", v, ok)
	}

	u.SetEdge(1, 2, "y")
	if u.Len() != 1 {
		t.Errorf("Len() = %d, want 1", u.Len())
	}
	if v, _ := u.Edge(2, 1); v != "y" {
		t.Errorf("Edge(2,1) = %q, want y", v)
	}

	u.SetEdge(1, 3, "z")
	u.SetEdge(0, 1, "w")
	u.SetEdge(1, 1, "self")

	var neighbours []ID
	for id := range u.Edges(1) {
		neighbours = append(neighbours, id)
	}
	want := []ID{1, 2, 3, 0}
	if !slices.Equal(neighbours, want) {
		t.Errorf("Edges(1) = %v, want %v", neighbours, want)
	}
	if u.Degree(1) != 4 {
		t.Errorf("Degree(1) = %d, want 4", u.Degree(1))
	}

	if !u.RemoveEdge(3, 1) {
		t.Error("RemoveEdge(3,1) = false, want true")
	}
	if u.HasEdge(1, 3) {
		t.Error("edge {1,3} should be gone")
	}
}
