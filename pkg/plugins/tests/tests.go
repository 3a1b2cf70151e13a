// Package tests marks test files, their snapshots and their mocks as required.
package tests

import (
	"context"
	"fmt"
	"strings"

	"github.com/Danoha/lexemite/internal/scanner"
	"github.com/Danoha/lexemite/pkg/config"
	"github.com/Danoha/lexemite/pkg/engine"
	"github.com/Danoha/lexemite/pkg/hook"
)

// Name is the plugin name used in config and hook registrations.
const Name = "tests"

// Stage runs after the file and program nodes exist.
const Stage = 20

// ProgramName is the program every test file is given.
const ProgramName = "test"

// SnapshotExt is appended to a test file name to name its snapshot.
const SnapshotExt = ".snap"

// Plugin makes test programs entries.
type Plugin struct {
	baseDir string
	opts    config.TestsConfig
	matcher *scanner.Matcher
}

// New creates the plugin; include and exclude are matched against paths
// relative to baseDir.
func New(baseDir string, opts config.TestsConfig) (*Plugin, error) {
	m, err := scanner.NewMatcher(opts.Include, opts.Exclude)
	if err != nil {
		return nil, fmt.Errorf("tests: %w", err)
	}
	return &Plugin{baseDir: baseDir, opts: opts, matcher: m}, nil
}

func (p *Plugin) Name() string { return Name }

func (p *Plugin) Apply(e *engine.Engine) {
	e.Hooks.BuildGraph.Tap(Name, func(_ context.Context, e *engine.Engine) error {
		// Collect first; creating programs while iterating would grow the
		// children lists being walked.
		var matched []*engine.Node
		for file := range e.Files(nil) {
			if p.isMatch(e, file) {
				matched = append(matched, file)
			}
		}

		mockDirs := make(map[*engine.Node]bool)
		for _, file := range matched {
			program := file.Program(ProgramName)
			e.AddEntry(program)

			dir := file.Parent()
			if p.opts.SnapshotsDir != "" {
				if snaps, ok := dir.Lookup(engine.KindDir, p.opts.SnapshotsDir); ok {
					if snap, ok := snaps.Lookup(engine.KindFile, file.Name()+SnapshotExt); ok {
						e.AddDependency(program, snap)
					}
				}
			}
			if p.opts.MocksDir != "" {
				if mocks, ok := dir.Lookup(engine.KindDir, p.opts.MocksDir); ok {
					mockDirs[mocks] = true
				}
			}
		}

		for mocks := range mockDirs {
			for file := range e.Files(mocks) {
				e.AddEntry(file)
			}
		}
		return nil
	}, hook.WithStage(Stage))
}

func (p *Plugin) isMatch(e *engine.Engine, file *engine.Node) bool {
	path, ok := file.Path()
	if !ok {
		return false
	}
	rel, err := e.Host.Rel(p.baseDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	return p.matcher.Match(rel)
}
