package graph

import "iter"

// Undirected is an edge layer where (a,b) and (b,a) address the same slot.
type Undirected[E any] struct {
	inner *Directed[E]
}

// NewUndirected creates an undirected layer over the IDs of store.
func NewUndirected[E any, N any](store *Store[N]) *Undirected[E] {
	return &Undirected[E]{inner: NewDirected[E](store)}
}

func canonical(a, b ID) (ID, ID) {
	if a > b {
		return b, a
	}
	return a, b
}

// Edge returns the value of edge {a,b}.
func (u *Undirected[E]) Edge(a, b ID) (E, bool) {
	a, b = canonical(a, b)
	return u.inner.Edge(a, b)
}

// HasEdge reports whether edge {a,b} exists.
func (u *Undirected[E]) HasEdge(a, b ID) bool {
	a, b = canonical(a, b)
	return u.inner.HasEdge(a, b)
}

// SetEdge inserts or overwrites edge {a,b}.
func (u *Undirected[E]) SetEdge(a, b ID, value E) {
	a, b = canonical(a, b)
	u.inner.SetEdge(a, b, value)
}

// RemoveEdge deletes edge {a,b} and reports whether it existed.
func (u *Undirected[E]) RemoveEdge(a, b ID) bool {
	a, b = canonical(a, b)
	return u.inner.RemoveEdge(a, b)
}

// Edges yields every neighbour of a with the edge value. Neighbours with a
// higher ID come first, then those with a lower ID; a self-loop is yielded once.
func (u *Undirected[E]) Edges(a ID) iter.Seq2[ID, E] {
	return func(yield func(ID, E) bool) {
		for b, v := range u.inner.Outgoing(a) {
			if !yield(b, v) {
				return
			}
		}
		for b, v := range u.inner.Incoming(a) {
			if b == a {
				continue
			}
			if !yield(b, v) {
				return
			}
		}
	}
}

// Degree returns the number of distinct neighbours of a.
func (u *Undirected[E]) Degree(a ID) int {
	n := u.inner.OutDegree(a) + u.inner.InDegree(a)
	if u.inner.HasEdge(a, a) {
		n--
	}
	return n
}

// Len returns the number of edges in the layer.
func (u *Undirected[E]) Len() int {
	return u.inner.Len()
}
