package engine

import (
	"github.com/Danoha/lexemite/pkg/graph"
)

// Point is a zero-based row/column position in a source file.
type Point struct {
	Row    uint32 `json:"row" toon:"row"`
	Column uint32 `json:"column" toon:"column"`
}

// Location is a span in a source file.
type Location struct {
	Start     Point  `json:"start" toon:"start"`
	End       Point  `json:"end" toon:"end"`
	StartByte uint32 `json:"start_byte" toon:"start_byte"`
	EndByte   uint32 `json:"end_byte" toon:"end_byte"`
}

// Meta is the metadata payload of a node: DirMeta, FileMeta or SymbolMeta.
type Meta interface {
	isMeta()
}

// DirMeta records the host path of a directory node.
type DirMeta struct{ Path string }

// FileMeta records the host path of a file node.
type FileMeta struct{ Path string }

// SymbolMeta records where a symbol is declared.
type SymbolMeta struct{ Location Location }

func (DirMeta) isMeta()    {}
func (FileMeta) isMeta()   {}
func (SymbolMeta) isMeta() {}

type childKey struct {
	kind Kind
	name string
}

// Node is an entry of the ownership tree. Every node is also a vertex of the
// engine's graph layers, addressed by ID.
type Node struct {
	engine   *Engine
	id       graph.ID
	kind     Kind
	name     string
	parent   *Node
	children map[childKey]*Node
	order    []*Node
	meta     Meta
	real     bool
}

func (n *Node) ID() graph.ID    { return n.id }
func (n *Node) Kind() Kind      { return n.kind }
func (n *Node) Name() string    { return n.name }
func (n *Node) Parent() *Node   { return n.parent }
func (n *Node) Engine() *Engine { return n.engine }
func (n *Node) Meta() Meta      { return n.meta }

// String returns "kind:name".
func (n *Node) String() string {
	return string(n.kind) + ":" + n.name
}

// SetMeta attaches metadata unless some is already attached, and reports
// whether m was stored.
func (n *Node) SetMeta(m Meta) bool {
	if n.meta != nil || m == nil {
		return false
	}
	n.meta = m
	return true
}

// Path returns the host path of a dir or file node.
func (n *Node) Path() (string, bool) {
	switch m := n.meta.(type) {
	case DirMeta:
		return m.Path, true
	case FileMeta:
		return m.Path, true
	}
	return "", false
}

// Location returns the declaration site of a symbol node.
func (n *Node) Location() (Location, bool) {
	if m, ok := n.meta.(SymbolMeta); ok {
		return m.Location, true
	}
	return Location{}, false
}

// IsReal reports whether the node is a confirmed entity rather than scaffolding.
func (n *Node) IsReal() bool {
	return n.real
}

// SetReal marks the node and all of its ancestors real. It cannot be undone.
func (n *Node) SetReal() {
	for cur := n; cur != nil && !cur.real; cur = cur.parent {
		cur.real = true
	}
}

// Child returns the child with the given kind and name, creating it on first use.
func (n *Node) Child(kind Kind, name string) *Node {
	key := childKey{kind: kind, name: name}
	if child, ok := n.children[key]; ok {
		return child
	}

	child := n.engine.newNode(kind, name, n)
	if n.children == nil {
		n.children = make(map[childKey]*Node)
	}
	n.children[key] = child
	n.order = append(n.order, child)

	if spec := n.engine.kindSpec(kind); spec.OnCreate != nil {
		spec.OnCreate(n.engine, child)
	}
	return child
}

// Lookup returns an existing child without creating it.
func (n *Node) Lookup(kind Kind, name string) (*Node, bool) {
	child, ok := n.children[childKey{kind: kind, name: name}]
	return child, ok
}

// Children returns the children in creation order.
func (n *Node) Children() []*Node {
	return n.order
}

// ChildrenOfKind returns the children of one kind in creation order.
func (n *Node) ChildrenOfKind(kind Kind) []*Node {
	var out []*Node
	for _, c := range n.order {
		if c.kind == kind {
			out = append(out, c)
		}
	}
	return out
}

func (n *Node) Dir(name string) *Node  { return n.Child(KindDir, name) }
func (n *Node) File(name string) *Node { return n.Child(KindFile, name) }

// Program returns the named program of a file. Creating a program links it
// with its file in both directions and creates its all-exports symbol.
func (n *Node) Program(name string) *Node {
	return n.Child(KindProgram, name)
}

// AllExports returns the all-exports symbol of a program.
func (n *Node) AllExports() *Node {
	return n.Child(KindSymbol, AllExports)
}

// Symbol returns the named symbol, creating it on first use. An empty name
// selects the all-exports symbol. The first location given is attached as
// metadata: under a program it makes the all-exports symbol depend on the
// new symbol, under any other parent it makes the symbol depend on the parent.
func (n *Node) Symbol(name string, loc *Location) *Node {
	if name == "" {
		name = AllExports
	}
	sym := n.Child(KindSymbol, name)
	if loc == nil || !sym.SetMeta(SymbolMeta{Location: *loc}) {
		return sym
	}

	if n.kind == KindProgram {
		if name != AllExports {
			n.engine.AddDependency(n.AllExports(), sym)
		}
	} else {
		n.engine.AddDependency(sym, n)
	}
	return sym
}

// Closest returns the nearest node of the given kind starting at n itself
// and walking up. If a name is given it must match too.
func (n *Node) Closest(kind Kind, name ...string) *Node {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.kind != kind {
			continue
		}
		if len(name) > 0 && cur.name != name[0] {
			continue
		}
		return cur
	}
	return nil
}

// Walk returns a pre-order cursor over the subtree below n.
func (n *Node) Walk() *Walker {
	return &Walker{start: n, current: n}
}
