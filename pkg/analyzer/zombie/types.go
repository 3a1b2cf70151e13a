package zombie

import (
	"github.com/Danoha/lexemite/pkg/engine"
)

// IssueCode is the code of every issue the analyzer emits.
const IssueCode = "zombie"

// Reason classifies why a node is reported.
type Reason string

const (
	// ReasonNeedlessExport is an exported symbol nothing imports.
	ReasonNeedlessExport Reason = "needless_export"
	// ReasonUnusedSymbol is a symbol outside any program that nothing references.
	ReasonUnusedSymbol Reason = "unused_symbol"
	// ReasonUnusedNode is any other real node nothing requires.
	ReasonUnusedNode Reason = "unused_node"
)

// String implements fmt.Stringer.
func (r Reason) String() string {
	return string(r)
}

// Zombie is a real node that no entry point reaches.
type Zombie struct {
	Node   *engine.Node
	Reason Reason
}

// Result is the outcome of one analysis.
type Result struct {
	Zombies []Zombie
	// Reached is the number of nodes the mark phase visited.
	Reached int
	// Total is the number of nodes known when the analysis started.
	Total int
}

// Issue renders a zombie as an engine issue.
func (z Zombie) Issue() engine.Issue {
	issue := engine.Issue{
		Level: engine.LevelWarning,
		Code:  IssueCode,
	}
	if loc, ok := z.Node.Location(); ok {
		issue.Location = &loc
	}

	switch z.Reason {
	case ReasonNeedlessExport:
		issue.Description = "This symbol is needlessly exported"
		issue.Help = "No imports were found that reference this symbol.\nYou can safely remove the export modifier."
	case ReasonUnusedSymbol:
		issue.Description = "This symbol is not used"
		issue.Help = "No imports were found that reference this symbol.\nYou can safely remove it."
	default:
		issue.Description = "Found unused " + string(z.Node.Kind())
		if z.Node.Kind() == engine.KindFile {
			issue.Help = "No imports or references detected.\nYou can safely remove this file or update your config."
		}
	}
	return issue
}

func classify(n *engine.Node) Reason {
	if n.Kind() != engine.KindSymbol {
		return ReasonUnusedNode
	}
	if n.Closest(engine.KindProgram) != nil {
		return ReasonNeedlessExport
	}
	return ReasonUnusedSymbol
}
