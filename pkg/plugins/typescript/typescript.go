// Package typescript parses TypeScript (and optionally JavaScript) files
// into programs and links their imports and exports.
package typescript

import (
	"context"
	"io"

	"github.com/Danoha/lexemite/internal/fileproc"
	"github.com/Danoha/lexemite/internal/progress"
	"github.com/Danoha/lexemite/pkg/config"
	"github.com/Danoha/lexemite/pkg/engine"
	"github.com/Danoha/lexemite/pkg/hook"
	"github.com/Danoha/lexemite/pkg/parser"
	"github.com/Danoha/lexemite/pkg/parser/jsts"
)

// Name is the plugin name used in config and hook registrations.
const Name = "typescript"

const (
	// ParseStage creates programs once the files plugin has populated files.
	ParseStage = 10
	// LinkStage resolves imports and exports once every program exists.
	LinkStage = 15
)

// Dialects double as program names.
const (
	DialectTS  = "ts"
	DialectTSX = "tsx"
	DialectJS  = "js"
)

// TSX option values.
const (
	TSXAlways = "always"
	TSXNever  = "never"
)

type parsed struct {
	file    *engine.Node
	imports []engine.ImportRecord
	exports []engine.ExportRecord
}

// Plugin is the TypeScript language plugin.
type Plugin struct {
	opts     config.TypeScriptConfig
	progress io.Writer

	programs map[*engine.Node]*parsed
	order    []*engine.Node
}

// Option is a functional option for configuring Plugin.
type Option func(*Plugin)

// WithProgress renders a parse progress bar to w.
func WithProgress(w io.Writer) Option {
	return func(p *Plugin) {
		p.progress = w
	}
}

// New creates the plugin.
func New(opts config.TypeScriptConfig, options ...Option) *Plugin {
	p := &Plugin{opts: opts, programs: make(map[*engine.Node]*parsed)}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *Plugin) Name() string { return Name }

func (p *Plugin) Apply(e *engine.Engine) {
	e.Hooks.BuildGraph.Tap(Name, p.parse, hook.WithStage(ParseStage))
	e.Hooks.BuildGraph.Tap(Name, p.link, hook.WithStage(LinkStage))
	e.Hooks.FormatNode.Tap(Name, func(node *engine.Node) (string, bool) {
		return p.format(e, node)
	})
}

// Dialect picks the dialect for a file name, or "" when the file is not handled.
func (p *Plugin) Dialect(name string) string {
	switch parser.DetectLanguage(name) {
	case parser.LangTypeScript:
		if p.opts.TSX == TSXAlways {
			return DialectTSX
		}
		return DialectTS
	case parser.LangTSX:
		if p.opts.TSX == TSXNever {
			return DialectTS
		}
		return DialectTSX
	case parser.LangJavaScript:
		if p.opts.JavaScript {
			return DialectJS
		}
	}
	return ""
}

func language(dialect string) parser.Language {
	switch dialect {
	case DialectTSX:
		return parser.LangTSX
	case DialectJS:
		return parser.LangJavaScript
	default:
		return parser.LangTypeScript
	}
}

// parse reads and parses candidate files in parallel, then creates their
// programs in file order.
func (p *Plugin) parse(ctx context.Context, e *engine.Engine) error {
	var (
		paths    []string
		nodes    = make(map[string]*engine.Node)
		dialects = make(map[string]string)
	)
	for file := range e.Files(nil) {
		dialect := p.Dialect(file.Name())
		if dialect == "" {
			continue
		}
		path, ok := file.Path()
		if !ok {
			continue
		}
		paths = append(paths, path)
		nodes[path] = file
		dialects[path] = dialect
	}
	if len(paths) == 0 {
		return nil
	}

	tracker := progress.NewTracker(p.progress, "Parsing", len(paths))
	results, failures := fileproc.Map(ctx, paths, fileproc.Options{OnDone: tracker.Tick}, func(ctx context.Context, ps *parser.Parser, path string) (*parsed, error) {
		src, ok, err := e.ReadFile(ctx, nodes[path])
		if err != nil || !ok {
			return nil, err
		}
		result, err := ps.Parse(ctx, src, language(dialects[path]), path)
		if err != nil {
			return nil, err
		}
		defer result.Close()
		return &parsed{
			file:    nodes[path],
			imports: jsts.FindImports(result),
			exports: jsts.FindExports(result),
		}, nil
	})
	tracker.Finish()

	if failures != nil {
		if failures.Canceled() {
			return ctx.Err()
		}
		// Unreadable or unparsable files stay without a program.
		for _, fe := range failures.Files() {
			e.Logger().Warn("skipping file", "path", fe.Path, "err", fe.Err)
		}
	}

	for i, res := range results {
		if res == nil {
			continue
		}
		program := res.file.Program(dialects[paths[i]])
		if _, seen := p.programs[program]; !seen {
			p.order = append(p.order, program)
		}
		p.programs[program] = res
	}
	e.Logger().Debug("parsed programs", "count", len(p.order))
	return nil
}

func (p *Plugin) link(ctx context.Context, e *engine.Engine) error {
	for _, program := range p.order {
		res := p.programs[program]

		for _, imp := range res.imports {
			target, err := e.ResolveProgram(ctx, imp.ModuleID, program, imp.Location)
			if err != nil {
				return err
			}
			if target != nil {
				program.AddImport(target, imp)
			}
		}

		for _, exp := range res.exports {
			if exp.Source == nil {
				program.AddExport(exp)
				continue
			}
			target, err := e.ResolveProgram(ctx, exp.Source.ModuleID, program, exp.Location)
			if err != nil {
				return err
			}
			if target != nil {
				program.AddReexport(target, exp)
			}
		}
	}
	return nil
}

func (p *Plugin) format(e *engine.Engine, node *engine.Node) (string, bool) {
	program := node.Closest(engine.KindProgram)
	if program == nil {
		return "", false
	}
	res, ok := p.programs[program]
	if !ok {
		return "", false
	}

	file := e.FormatNode(res.file)
	switch node.Kind() {
	case engine.KindSymbol:
		if node.Name() == engine.AllExports {
			return file + " > all exports", true
		}
		return file + " > " + node.Name(), true
	case engine.KindProgram:
		return file + " > " + node.Name() + " program", true
	default:
		return file, true
	}
}
