package engine

import (
	"github.com/Danoha/lexemite/pkg/graph"
)

// Level is the severity of an issue.
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
)

// Issue is a finding about the analyzed codebase.
type Issue struct {
	Level       Level     `json:"level" toon:"level"`
	Code        string    `json:"code" toon:"code"`
	Description string    `json:"description" toon:"description"`
	Help        string    `json:"help,omitempty" toon:"help"`
	Location    *Location `json:"location,omitempty" toon:"location"`
	Details     []string  `json:"details,omitempty" toon:"details"`
}

// NodeIssue pairs an issue with the node it is anchored to.
type NodeIssue struct {
	Node  *Node
	Issue Issue
}

type issueList struct {
	items []Issue
}

// AddIssue anchors issue at node.
func (e *Engine) AddIssue(node *Node, issue Issue) {
	list, ok := e.issues.Edge(e.root.id, node.id)
	if !ok {
		list = &issueList{}
		e.issues.SetEdge(e.root.id, node.id, list)
	}
	list.items = append(list.items, issue)
}

// IssuesFor returns the issues anchored at node in the order they were added.
func (e *Engine) IssuesFor(node *Node) []Issue {
	list, ok := e.issues.Edge(e.root.id, node.id)
	if !ok {
		return nil
	}
	return append([]Issue(nil), list.items...)
}

// Issues returns every issue, grouped by node in ascending node ID.
func (e *Engine) Issues() []NodeIssue {
	var out []NodeIssue
	for id, list := range e.issues.Outgoing(e.root.id) {
		node := e.mustNode(id)
		for _, issue := range list.items {
			out = append(out, NodeIssue{Node: node, Issue: issue})
		}
	}
	return out
}

func (e *Engine) mustNode(id graph.ID) *Node {
	n, ok := e.store.Node(id)
	if !ok {
		panic("engine: unknown node id")
	}
	return n
}
