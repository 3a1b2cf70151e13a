// Package zombie finds real nodes that no entry point requires.
//
// The analysis is a mark-and-sweep over the engine's dependencies layer:
//
//  1. seed the unreached set with every known node
//  2. mark everything reachable from the tree root
//  3. sweep nodes that are not real (pure scaffolding)
//  4. collapse to reporting granularity by dropping every strict ancestor
//     of a remaining node (skipped when reporting all)
package zombie

import (
	"context"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/Danoha/lexemite/pkg/engine"
	"github.com/Danoha/lexemite/pkg/graph"
)

// Analyzer computes zombies over an engine.
type Analyzer struct {
	reportAll bool
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithReportAll keeps ancestors of unreached nodes in the result instead of
// collapsing them.
func WithReportAll(reportAll bool) Option {
	return func(a *Analyzer) {
		a.reportAll = reportAll
	}
}

// New creates an analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze runs the four phases and returns the zombies by ascending node ID.
func (a *Analyzer) Analyze(e *engine.Engine) *Result {
	total := e.Len()

	// Phase 1: seed.
	unreached := roaring.New()
	unreached.AddRange(0, uint64(total))

	// Phase 2: mark.
	reached := a.mark(e, unreached)

	// Phase 3: sweep scaffolding.
	for _, id := range unreached.ToArray() {
		if n, ok := e.Node(graph.ID(id)); !ok || !n.IsReal() {
			unreached.Remove(id)
		}
	}

	// Phase 4: collapse to the deepest nodes.
	if !a.reportAll {
		for _, id := range unreached.ToArray() {
			n, _ := e.Node(graph.ID(id))
			for p := n.Parent(); p != nil; p = p.Parent() {
				unreached.Remove(uint32(p.ID()))
			}
		}
	}

	result := &Result{Reached: reached, Total: total}
	it := unreached.Iterator()
	for it.HasNext() {
		n, _ := e.Node(graph.ID(it.Next()))
		result.Zombies = append(result.Zombies, Zombie{Node: n, Reason: classify(n)})
	}
	return result
}

// mark removes everything reachable from the root from unreached and
// returns how many nodes it visited.
func (a *Analyzer) mark(e *engine.Engine, unreached *roaring.Bitmap) int {
	deps := e.DependencyLayer()
	stack := []graph.ID{e.Root().ID()}
	visited := 0

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !unreached.CheckedRemove(uint32(id)) {
			continue
		}
		visited++

		for to := range deps.Outgoing(id) {
			if unreached.Contains(uint32(to)) {
				stack = append(stack, to)
			}
		}
	}
	return visited
}

// Plugin runs the analyzer during analyzeGraph and anchors one issue per zombie.
type Plugin struct {
	analyzer *Analyzer
}

// NewPlugin creates the analyzer plugin.
func NewPlugin(opts ...Option) *Plugin {
	return &Plugin{analyzer: New(opts...)}
}

// Name is the plugin name used in config and hook registrations.
const Name = "zombie"

// Name implements engine.Plugin.
func (p *Plugin) Name() string { return Name }

// Apply implements engine.Plugin.
func (p *Plugin) Apply(e *engine.Engine) {
	e.Hooks.AnalyzeGraph.Tap(p.Name(), func(_ context.Context, e *engine.Engine) error {
		result := p.analyzer.Analyze(e)
		e.Logger().Info("reachability analyzed",
			"nodes", result.Total,
			"reached", result.Reached,
			"zombies", len(result.Zombies))

		for _, z := range result.Zombies {
			e.AddIssue(z.Node, z.Issue())
		}
		return nil
	})
}
