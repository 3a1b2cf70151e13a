package engine

import "iter"

type walkFrame struct {
	siblings []*Node
	index    int
}

// Walker is a pre-order cursor over a subtree. It keeps its own stack, so
// arbitrarily deep trees are safe, and the manual movement methods let
// callers skip subtrees.
type Walker struct {
	start   *Node
	current *Node
	stack   []walkFrame
}

// Node returns the node under the cursor.
func (w *Walker) Node() *Node {
	return w.current
}

// Depth returns how far below the start node the cursor is.
func (w *Walker) Depth() int {
	return len(w.stack)
}

// GoToFirstChild moves to the first child of the current node.
func (w *Walker) GoToFirstChild() bool {
	children := w.current.Children()
	if len(children) == 0 {
		return false
	}
	w.stack = append(w.stack, walkFrame{siblings: children})
	w.current = children[0]
	return true
}

// GoToNextSibling moves to the next sibling. The start node has no siblings.
func (w *Walker) GoToNextSibling() bool {
	if len(w.stack) == 0 {
		return false
	}
	top := &w.stack[len(w.stack)-1]
	if top.index+1 >= len(top.siblings) {
		return false
	}
	top.index++
	w.current = top.siblings[top.index]
	return true
}

// GoToParent moves up one level, but never above the start node.
func (w *Walker) GoToParent() bool {
	if len(w.stack) == 0 {
		return false
	}
	w.stack = w.stack[:len(w.stack)-1]
	w.current = w.current.parent
	return true
}

// Next advances in pre-order and returns the new node. It returns false once
// the subtree is exhausted, leaving the cursor on the start node so the walk
// can begin again.
func (w *Walker) Next() (*Node, bool) {
	if w.GoToFirstChild() {
		return w.current, true
	}
	for !w.GoToNextSibling() {
		if !w.GoToParent() {
			return nil, false
		}
	}
	return w.current, true
}

// Reset moves the cursor back to the start node.
func (w *Walker) Reset() {
	w.current = w.start
	w.stack = w.stack[:0]
}

// All yields every node below the start node in pre-order.
func (w *Walker) All() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		w.Reset()
		for {
			n, ok := w.Next()
			if !ok || !yield(n) {
				return
			}
		}
	}
}
