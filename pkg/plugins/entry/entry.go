// Package entry marks nodes matching glob patterns as entry points.
package entry

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/Danoha/lexemite/pkg/config"
	"github.com/Danoha/lexemite/pkg/engine"
	"github.com/Danoha/lexemite/pkg/hook"
)

// Name is the plugin name used in config and hook registrations.
const Name = "entry"

// Stage runs after files exist and programs are parsed.
const Stage = 20

// Plugin adds an entry for every node whose selector path matches a pattern.
type Plugin struct {
	patterns []string
}

// New validates the patterns and creates the plugin.
func New(opts config.EntryConfig) (*Plugin, error) {
	for _, p := range opts.Patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("entry: invalid glob pattern %q", p)
		}
	}
	return &Plugin{patterns: opts.Patterns}, nil
}

func (p *Plugin) Name() string { return Name }

func (p *Plugin) Apply(e *engine.Engine) {
	e.Hooks.BuildGraph.Tap(Name, func(_ context.Context, e *engine.Engine) error {
		if len(p.patterns) == 0 {
			return nil
		}
		for node := range e.Root().Walk().All() {
			if p.Match(node) {
				e.AddEntry(node)
			}
		}
		return nil
	}, hook.WithStage(Stage))
}

// Match reports whether the selector path of node matches any pattern.
func (p *Plugin) Match(node *engine.Node) bool {
	path := SelectorPath(node)
	for _, pattern := range p.patterns {
		if doublestar.MatchUnvalidated(pattern, path) {
			return true
		}
	}
	return false
}

// SelectorPath names node by the names from its closest file down to the
// node, or from below the root when it is not inside a file. Names are
// joined with "/". A file is named by its base name only, so "index.ts"
// selects every index.ts wherever it is and "index.ts/ts/default" the
// default export of each; a pattern with a directory such as "src/index.ts"
// matches no file.
func SelectorPath(node *engine.Node) string {
	var names []string
	file := node.Closest(engine.KindFile)
	for cur := node; cur != nil && cur.Kind() != engine.KindRoot; cur = cur.Parent() {
		names = append(names, cur.Name())
		if cur == file {
			break
		}
	}
	slices.Reverse(names)
	return strings.Join(names, "/")
}
