// Package javascript links package.json manifests into the graph: listed
// dependencies, bin/main/exports targets, lock files and workspace files.
package javascript

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/Danoha/lexemite/pkg/config"
	"github.com/Danoha/lexemite/pkg/engine"
	"github.com/Danoha/lexemite/pkg/hook"
	"github.com/Danoha/lexemite/pkg/parser"
)

// Name is the plugin name used in config and hook registrations.
const Name = "javascript"

// Stage runs once language plugins have created their programs.
const Stage = 30

// Manifest is the file name the plugin reads.
const Manifest = "package.json"

// BuiltinProgram names the program of Node.js builtin modules.
const BuiltinProgram = "node"

var (
	lockFiles      = []string{"package-lock.json", "yarn.lock", "pnpm-lock.yaml"}
	workspaceFiles = []string{"lerna.json", "pnpm-workspace.yaml", "yarn-workspace-versioning.json"}
)

// Plugin is the JavaScript ecosystem plugin.
type Plugin struct {
	opts config.JavaScriptConfig
}

// New creates the plugin.
func New(opts config.JavaScriptConfig) *Plugin {
	return &Plugin{opts: opts}
}

func (p *Plugin) Name() string { return Name }

func (p *Plugin) Apply(e *engine.Engine) {
	e.Hooks.BuildGraph.Tap(Name, p.buildGraph, hook.WithStage(Stage))

	e.Hooks.ResolveProgramNode.Tap(Name, func(_ context.Context, req *engine.ResolveRequest) (*engine.Node, bool, error) {
		if !IsBuiltin(req.ModuleID) {
			return nil, false, nil
		}
		return e.File(req.ModuleID).Program(BuiltinProgram), true, nil
	})
}

func (p *Plugin) buildGraph(ctx context.Context, e *engine.Engine) error {
	var manifests []*engine.Node
	for file := range e.Files(nil) {
		if file.Name() == Manifest {
			manifests = append(manifests, file)
		}
	}

	ps := parser.New()
	defer ps.Close()

	for _, file := range manifests {
		if err := p.manifest(ctx, e, ps, file); err != nil {
			return err
		}
	}
	return nil
}

func (p *Plugin) manifest(ctx context.Context, e *engine.Engine, ps *parser.Parser, file *engine.Node) error {
	src, ok, err := e.ReadFile(ctx, file)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	path, _ := file.Path()
	doc, err := ps.ParseJSON(ctx, src, path)
	if err != nil {
		return err
	}
	defer doc.Close()

	if !json.Valid(src) || doc.HasError() {
		e.AddIssue(file, engine.Issue{
			Level:       engine.LevelError,
			Code:        "invalid-package-json",
			Description: "Cannot parse package.json",
			Help:        "Fix the syntax errors so that its dependencies can be analyzed.",
		})
		return nil
	}

	contextDir := file.Parent()
	nodeModules := contextDir.Dir("node_modules")

	for _, kind := range []struct {
		field   string
		enabled bool
	}{
		{"dependencies", p.opts.Dependencies},
		{"devDependencies", p.opts.DevDependencies},
	} {
		names := doc.Keys(kind.field)
		if !kind.enabled || len(names) == 0 {
			continue
		}

		loc, _ := doc.Find(kind.field)
		group := file.Symbol(kind.field, loc)
		for _, name := range names {
			loc, _ := doc.Find(kind.field, name)
			listed := group.Symbol(name, loc)
			listed.SetReal()
			e.AddDependency(nodeModules.Dir(name), listed)
		}
	}

	// Resolved bin targets run as-is; main and exports targets are used
	// through their exports.
	if p.opts.Bin {
		for _, bin := range doc.Strings("bin") {
			if err := p.link(ctx, e, doc, file, bin, false); err != nil {
				return err
			}
		}
	}
	if p.opts.Main {
		if main, ok := doc.String("main"); ok && main != "" {
			if err := p.link(ctx, e, doc, file, parser.JSONString{Value: main, Path: []string{"main"}}, true); err != nil {
				return err
			}
		}
	}
	if p.opts.Exports {
		for _, target := range doc.Strings("exports") {
			if err := p.link(ctx, e, doc, file, target, true); err != nil {
				return err
			}
		}
	}

	if p.opts.LockFiles {
		for _, name := range lockFiles {
			e.AddDependency(file, contextDir.File(name))
		}
	}
	if p.opts.WorkspaceFiles {
		for _, name := range workspaceFiles {
			e.AddDependency(file, contextDir.File(name))
		}
	}

	e.AddEntry(file)
	return nil
}

func (p *Plugin) link(ctx context.Context, e *engine.Engine, doc *parser.JSONDocument, file *engine.Node, target parser.JSONString, exports bool) error {
	if target.Value == "" {
		return nil
	}
	loc, _ := doc.Find(target.Path...)
	program, err := e.ResolveProgram(ctx, relative(target.Value), file, loc)
	if err != nil || program == nil {
		return err
	}
	if exports {
		e.AddDependency(file, program.AllExports())
	} else {
		e.AddDependency(file, program)
	}
	return nil
}

// relative turns a manifest path such as "lib/index.js" into a module ID
// relative to the manifest. Manifest paths are never package names.
func relative(target string) string {
	if strings.HasPrefix(target, "./") || strings.HasPrefix(target, "../") || strings.HasPrefix(target, "/") {
		return target
	}
	return "./" + target
}

var builtins = map[string]bool{}

func init() {
	for _, name := range []string{
		"assert", "assert/strict", "async_hooks", "buffer", "child_process",
		"cluster", "console", "constants", "crypto", "dgram",
		"diagnostics_channel", "dns", "dns/promises", "domain", "events",
		"fs", "fs/promises", "http", "http2", "https", "inspector",
		"inspector/promises", "module", "net", "os", "path", "path/posix",
		"path/win32", "perf_hooks", "process", "punycode", "querystring",
		"readline", "readline/promises", "repl", "stream",
		"stream/consumers", "stream/promises", "stream/web",
		"string_decoder", "sys", "timers", "timers/promises", "tls",
		"trace_events", "tty", "url", "util", "util/types", "v8", "vm",
		"wasi", "worker_threads", "zlib",
	} {
		builtins[name] = true
	}
}

// nodeOnly are builtins that exist only with the "node:" scheme.
var nodeOnly = map[string]bool{
	"sea":            true,
	"sqlite":         true,
	"test":           true,
	"test/reporters": true,
}

// IsBuiltin reports whether moduleID names a Node.js builtin module.
func IsBuiltin(moduleID string) bool {
	if name, ok := strings.CutPrefix(moduleID, "node:"); ok {
		return builtins[name] || nodeOnly[name]
	}
	return builtins[moduleID]
}
