// Package engine holds the dependency graph of an analyzed codebase.
//
// The graph has two orderings. The ownership tree (root, dirs, files,
// programs, symbols and plugin-defined kinds) gives every node a parent and
// memoized children. The dependencies layer records "A requires B" edges
// between arbitrary nodes. Plugins populate both through the Engine during
// staged execution and the zombie analyzer walks the dependencies layer to
// find what nothing requires.
package engine

import (
	"context"
	"fmt"
	"io"
	"iter"

	"github.com/charmbracelet/log"

	"github.com/Danoha/lexemite/pkg/graph"
	"github.com/Danoha/lexemite/pkg/hook"
	"github.com/Danoha/lexemite/pkg/host"
)

// Stage is a step of Engine.Run.
type Stage string

const (
	StageInitialize Stage = "initialize"
	StageBuildGraph Stage = "buildGraph"
	StageAnalyze    Stage = "analyzeGraph"
	StageDone       Stage = "done"
)

// Plugin contributes participants to the engine hooks.
type Plugin interface {
	Name() string
	Apply(e *Engine)
}

// ResolveRequest asks participants to map a module ID to a program.
// Participants that fail may append human-readable hints to Details.
type ResolveRequest struct {
	ModuleID string
	Context  *Node
	Details  []string
}

// Hooks are the extension points of an engine.
type Hooks struct {
	Initialize   *hook.Series[*Engine]
	BuildGraph   *hook.Series[*Engine]
	AnalyzeGraph *hook.Series[*Engine]
	Done         *hook.Parallel[*Engine]

	ReadFile           *hook.Bail[*Node, []byte]
	ResolveProgramNode *hook.Bail[*ResolveRequest, *Node]
	FormatNode         *hook.SyncBail[*Node, string]
}

func newHooks() *Hooks {
	return &Hooks{
		Initialize:         hook.NewSeries[*Engine]("initialize"),
		BuildGraph:         hook.NewSeries[*Engine]("buildGraph"),
		AnalyzeGraph:       hook.NewSeries[*Engine]("analyzeGraph"),
		Done:               hook.NewParallel[*Engine]("done"),
		ReadFile:           hook.NewBail[*Node, []byte]("readFile"),
		ResolveProgramNode: hook.NewBail[*ResolveRequest, *Node]("resolveProgramNode"),
		FormatNode:         hook.NewSyncBail[*Node, string]("formatNode"),
	}
}

// Engine owns the node tree, the graph layers and the hooks.
type Engine struct {
	Host  host.Host
	Hooks *Hooks

	store  *graph.Store[*Node]
	root   *Node
	deps   *graph.Directed[graph.Unit]
	issues *graph.Directed[*issueList]
	kinds  map[Kind]KindSpec

	logger  *log.Logger
	onStage func(Stage)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used by the engine and its plugins.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithStageListener registers fn to be called when Run enters a stage.
func WithStageListener(fn func(Stage)) Option {
	return func(e *Engine) {
		e.onStage = fn
	}
}

// New creates an engine over h.
func New(h host.Host, opts ...Option) *Engine {
	store := graph.NewStore[*Node]()
	e := &Engine{
		Host:   h,
		Hooks:  newHooks(),
		store:  store,
		deps:   graph.NewDirected[graph.Unit](store),
		issues: graph.NewDirected[*issueList](store),
		kinds:  defaultKinds(),
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.root = e.newNode(KindRoot, "", nil)
	return e
}

func (e *Engine) newNode(kind Kind, name string, parent *Node) *Node {
	n := &Node{engine: e, kind: kind, name: name, parent: parent}
	n.id = e.store.Add(n)
	return n
}

// Root returns the root of the node tree.
func (e *Engine) Root() *Node {
	return e.root
}

// Logger returns the engine logger.
func (e *Engine) Logger() *log.Logger {
	return e.logger
}

// Len returns the number of nodes created so far.
func (e *Engine) Len() int {
	return e.store.Len()
}

// Node returns the node with the given ID.
func (e *Engine) Node(id graph.ID) (*Node, bool) {
	return e.store.Node(id)
}

// Dir materializes the directory chain of path and returns the innermost dir.
// The host root itself maps to the tree root.
func (e *Engine) Dir(path string) *Node {
	type hop struct{ name, path string }
	var hops []hop

	current, parent := path, e.Host.Dir(path)
	for current != parent {
		hops = append(hops, hop{name: e.Host.Base(current), path: current})
		current, parent = parent, e.Host.Dir(parent)
	}

	node := e.root
	for i := len(hops) - 1; i >= 0; i-- {
		parentNode := node
		node = node.Dir(hops[i].name)
		if node.SetMeta(DirMeta{Path: hops[i].path}) {
			e.AddDependency(node, parentNode)
		}
	}
	return node
}

// File materializes path as a file node.
func (e *Engine) File(path string) *Node {
	dir := e.Dir(e.Host.Dir(path))
	file := dir.File(e.Host.Base(path))
	if file.SetMeta(FileMeta{Path: path}) {
		e.AddDependency(file, dir)
	}
	return file
}

// Files yields every file node under root (the tree root when nil),
// descending only through dirs.
func (e *Engine) Files(root *Node) iter.Seq[*Node] {
	if root == nil {
		root = e.root
	}
	return func(yield func(*Node) bool) {
		w := root.Walk()
		if !w.GoToFirstChild() {
			return
		}
		for {
			n := w.Node()
			switch n.kind {
			case KindFile:
				if !yield(n) {
					return
				}
			case KindDir:
				if w.GoToFirstChild() {
					continue
				}
			}
			for !w.GoToNextSibling() {
				if !w.GoToParent() {
					return
				}
			}
		}
	}
}

// AddDependency records that from requires to.
func (e *Engine) AddDependency(from, to *Node) {
	if !e.deps.HasEdge(from.id, to.id) {
		e.deps.SetEdge(from.id, to.id, graph.Unit{})
	}
}

// AddEntry marks node as directly required.
func (e *Engine) AddEntry(node *Node) {
	e.AddDependency(e.root, node)
}

// HasDependency reports whether from directly requires to.
func (e *Engine) HasDependency(from, to *Node) bool {
	return e.deps.HasEdge(from.id, to.id)
}

// Dependencies returns the nodes node requires, by ascending ID.
func (e *Engine) Dependencies(node *Node) []*Node {
	var out []*Node
	for id := range e.deps.Outgoing(node.id) {
		out = append(out, e.mustNode(id))
	}
	return out
}

// Dependents returns the nodes requiring node, by ascending ID.
func (e *Engine) Dependents(node *Node) []*Node {
	var out []*Node
	for id := range e.deps.Incoming(node.id) {
		out = append(out, e.mustNode(id))
	}
	return out
}

// DependencyLayer exposes the raw dependencies layer for analyzers.
func (e *Engine) DependencyLayer() *graph.Directed[graph.Unit] {
	return e.deps
}

// ReadFile returns the content of a file node from the first ReadFile participant that has it.
func (e *Engine) ReadFile(ctx context.Context, node *Node) ([]byte, bool, error) {
	return e.Hooks.ReadFile.Call(ctx, node)
}

// ResolveProgram maps moduleID, as seen from the node from, to a program
// node. When nothing resolves it a module-not-found warning is anchored at
// from and nil is returned; participant errors are returned as errors.
func (e *Engine) ResolveProgram(ctx context.Context, moduleID string, from *Node, loc *Location) (*Node, error) {
	req := &ResolveRequest{ModuleID: moduleID, Context: from}
	program, ok, err := e.Hooks.ResolveProgramNode.Call(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", moduleID, err)
	}
	if ok && program != nil {
		return program, nil
	}

	e.logger.Debug("unresolved module", "module", moduleID, "from", from.String())
	e.AddIssue(from, Issue{
		Level:       LevelWarning,
		Code:        "module-not-found",
		Description: fmt.Sprintf("Cannot resolve module %q", moduleID),
		Help:        "This indicates a misconfiguration or a missing dependency.",
		Location:    loc,
		Details:     req.Details,
	})
	return nil, nil
}

// FormatNode renders node for humans.
func (e *Engine) FormatNode(node *Node) string {
	if s, ok := e.Hooks.FormatNode.Call(node); ok {
		return s
	}

	// Dirs and files never anchor to another node, which keeps the
	// recursion below finite.
	if node.kind == KindFile || node.kind == KindDir {
		if p, ok := node.Path(); ok {
			return p
		}
		return node.String()
	}

	if file := node.Closest(KindFile); file != nil {
		return e.FormatNode(file) + " > " + node.String()
	}
	if dir := node.Closest(KindDir); dir != nil {
		return e.FormatNode(dir) + " > " + node.String()
	}
	return node.String()
}

// Run executes initialize, buildGraph, analyzeGraph and done in order.
func (e *Engine) Run(ctx context.Context) error {
	stages := []struct {
		stage Stage
		call  func(context.Context, *Engine) error
	}{
		{StageInitialize, e.Hooks.Initialize.Call},
		{StageBuildGraph, e.Hooks.BuildGraph.Call},
		{StageAnalyze, e.Hooks.AnalyzeGraph.Call},
		{StageDone, e.Hooks.Done.Call},
	}

	for _, s := range stages {
		if e.onStage != nil {
			e.onStage(s.stage)
		}
		e.logger.Debug("stage", "name", s.stage, "nodes", e.Len())
		if err := s.call(ctx, e); err != nil {
			return fmt.Errorf("%s: %w", s.stage, err)
		}
	}
	return nil
}
