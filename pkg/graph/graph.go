// Package graph provides an identity store and independent edge layers over it.
//
// A Store hands out monotonically increasing IDs, each owning one payload.
// Layers (directed or undirected) record edges between those IDs and never
// own payload lifetime, so any number of relations can share one identity
// space without seeing each other's mutations.
package graph

import (
	"cmp"
	"errors"
	"fmt"
	"iter"
	"slices"
)

// ID identifies a payload in a Store. IDs are never reused within a Store.
type ID uint32

// Unit is the edge value for layers where only edge existence matters.
type Unit struct{}

// ErrCyclic is returned when a topological order is requested over a cyclic layer.
var ErrCyclic = errors.New("graph is cyclic")

// CycleError reports the node at which a cycle was detected.
type CycleError struct {
	Node ID
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cannot sort: cycle through node %d", e.Node)
}

// Is reports whether target is ErrCyclic.
func (e *CycleError) Is(target error) bool {
	return target == ErrCyclic
}

// Store allocates IDs and holds one payload per ID.
type Store[N any] struct {
	nodes []N
}

// NewStore creates an empty store.
func NewStore[N any]() *Store[N] {
	return &Store[N]{}
}

// Add stores payload and returns its newly assigned ID.
func (s *Store[N]) Add(payload N) ID {
	s.nodes = append(s.nodes, payload)
	return ID(len(s.nodes) - 1)
}

// Node returns the payload for id.
func (s *Store[N]) Node(id ID) (N, bool) {
	if int(id) >= len(s.nodes) {
		var zero N
		return zero, false
	}
	return s.nodes[id], true
}

// Len returns the number of IDs allocated so far.
func (s *Store[N]) Len() int {
	return len(s.nodes)
}

// sizer is the part of a Store that layers need.
type sizer interface {
	Len() int
}

// slot holds one edge value. Directed layers share the slot between the
// forward and backward index so an update is visible from both ends.
type slot[E any] struct {
	value E
}

// adjacency is the edge set of one endpoint. Lookups go through the map;
// iteration goes through a lazily sorted key list.
type adjacency[E any] struct {
	slots  map[ID]*slot[E]
	order  []ID
	sorted bool
}

func (a *adjacency[E]) get(id ID) (*slot[E], bool) {
	if a == nil {
		return nil, false
	}
	s, ok := a.slots[id]
	return s, ok
}

func (a *adjacency[E]) put(id ID, s *slot[E]) {
	if a.slots == nil {
		a.slots = make(map[ID]*slot[E])
	}
	a.slots[id] = s
	a.order = append(a.order, id)
	a.sorted = false
}

func (a *adjacency[E]) remove(id ID) {
	if a == nil {
		return
	}
	if _, ok := a.slots[id]; !ok {
		return
	}
	delete(a.slots, id)
	// Rebuilt on next iteration.
	a.order = nil
	a.sorted = false
}

func (a *adjacency[E]) len() int {
	if a == nil {
		return 0
	}
	return len(a.slots)
}

// keys returns neighbour IDs in ascending order.
func (a *adjacency[E]) keys() []ID {
	if a == nil {
		return nil
	}
	if !a.sorted {
		if len(a.order) != len(a.slots) {
			a.order = a.order[:0]
			for id := range a.slots {
				a.order = append(a.order, id)
			}
		}
		slices.SortFunc(a.order, cmp.Compare[ID])
		a.sorted = true
	}
	return a.order
}

func (a *adjacency[E]) all() iter.Seq2[ID, E] {
	return func(yield func(ID, E) bool) {
		for _, id := range slices.Clone(a.keys()) {
			s, ok := a.get(id)
			if !ok {
				continue
			}
			if !yield(id, s.value) {
				return
			}
		}
	}
}

// index is an ID-addressed list of adjacencies, grown on demand.
type index[E any] []*adjacency[E]

func (x *index[E]) at(id ID) *adjacency[E] {
	if int(id) >= len(*x) {
		return nil
	}
	return (*x)[id]
}

func (x *index[E]) ensure(id ID) *adjacency[E] {
	if int(id) >= len(*x) {
		*x = append(*x, make([]*adjacency[E], int(id)+1-len(*x))...)
	}
	if (*x)[id] == nil {
		(*x)[id] = &adjacency[E]{}
	}
	return (*x)[id]
}
