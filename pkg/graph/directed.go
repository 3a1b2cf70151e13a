package graph

import (
	"iter"
	"slices"
)

// Directed is a directed edge layer with independent forward and backward indices.
type Directed[E any] struct {
	store sizer
	out   index[E]
	in    index[E]
	size  int
}

// NewDirected creates a directed layer over the IDs of store.
func NewDirected[E any, N any](store *Store[N]) *Directed[E] {
	return &Directed[E]{store: store}
}

// Edge returns the value of edge (a,b).
func (d *Directed[E]) Edge(a, b ID) (E, bool) {
	s, ok := d.out.at(a).get(b)
	if !ok {
		var zero E
		return zero, false
	}
	return s.value, true
}

// HasEdge reports whether edge (a,b) exists.
func (d *Directed[E]) HasEdge(a, b ID) bool {
	_, ok := d.out.at(a).get(b)
	return ok
}

// SetEdge inserts or overwrites edge (a,b).
func (d *Directed[E]) SetEdge(a, b ID, value E) {
	if s, ok := d.out.at(a).get(b); ok {
		s.value = value
		return
	}
	s := &slot[E]{value: value}
	d.out.ensure(a).put(b, s)
	d.in.ensure(b).put(a, s)
	d.size++
}

// RemoveEdge deletes edge (a,b) and reports whether it existed.
func (d *Directed[E]) RemoveEdge(a, b ID) bool {
	if _, ok := d.out.at(a).get(b); !ok {
		return false
	}
	d.out.at(a).remove(b)
	d.in.at(b).remove(a)
	d.size--
	return true
}

// Outgoing yields (target, value) for every edge leaving a, by ascending target.
func (d *Directed[E]) Outgoing(a ID) iter.Seq2[ID, E] {
	return d.out.at(a).all()
}

// Incoming yields (source, value) for every edge entering b, by ascending source.
func (d *Directed[E]) Incoming(b ID) iter.Seq2[ID, E] {
	return d.in.at(b).all()
}

// OutDegree returns the number of edges leaving a.
func (d *Directed[E]) OutDegree(a ID) int {
	return d.out.at(a).len()
}

// InDegree returns the number of edges entering b.
func (d *Directed[E]) InDegree(b ID) int {
	return d.in.at(b).len()
}

// Len returns the number of edges in the layer.
func (d *Directed[E]) Len() int {
	return d.size
}

// visit states for TopoSort.
const (
	unvisited uint8 = iota
	inProgress
	done
)

// TopoSort returns every ID of the store ordered so that for each edge (a,b)
// a precedes b. Roots are visited in ascending ID order and neighbours in
// ascending order, so the result is deterministic. A cycle yields a
// *CycleError matching ErrCyclic.
func (d *Directed[E]) TopoSort() ([]ID, error) {
	n := d.store.Len()
	state := make([]uint8, n)
	post := make([]ID, 0, n)

	type frame struct {
		node ID
		next []ID
	}

	for start := range n {
		if state[start] != unvisited {
			continue
		}

		stack := []frame{{node: ID(start), next: slices.Clone(d.out.at(ID(start)).keys())}}
		state[start] = inProgress

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if len(top.next) == 0 {
				state[top.node] = done
				post = append(post, top.node)
				stack = stack[:len(stack)-1]
				continue
			}

			child := top.next[0]
			top.next = top.next[1:]
			if int(child) >= n {
				continue
			}

			switch state[child] {
			case inProgress:
				return nil, &CycleError{Node: child}
			case unvisited:
				state[child] = inProgress
				stack = append(stack, frame{node: child, next: slices.Clone(d.out.at(child).keys())})
			}
		}
	}

	slices.Reverse(post)
	return post, nil
}
