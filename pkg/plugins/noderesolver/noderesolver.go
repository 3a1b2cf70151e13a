// Package noderesolver resolves module IDs the way Node.js and bundlers do:
// aliases, relative paths, extensions, index files and packages found in
// node_modules directories up the tree.
package noderesolver

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Danoha/lexemite/pkg/config"
	"github.com/Danoha/lexemite/pkg/engine"
	"github.com/Danoha/lexemite/pkg/host"
)

// Name is the plugin name used in config and hook registrations.
const Name = "node_resolver"

// UnknownProgram names the program given to resolved files no language
// plugin parsed.
const UnknownProgram = "unknown"

const descriptionFile = "package.json"

// Resolver maps module IDs to file paths through a host.
type Resolver struct {
	host host.Host
	opts config.NodeResolverConfig
}

// NewResolver creates a resolver.
func NewResolver(h host.Host, opts config.NodeResolverConfig) *Resolver {
	return &Resolver{host: h, opts: opts}
}

// attempts records the candidates a resolution looked at.
type attempts []string

func (a *attempts) add(format string, args ...any) {
	*a = append(*a, fmt.Sprintf(format, args...))
}

// Resolve returns the file moduleID refers to from dir. When it fails, the
// second return value describes every candidate that was tried.
func (r *Resolver) Resolve(ctx context.Context, dir, moduleID string) (string, string, bool) {
	var tried attempts
	request := r.alias(moduleID, &tried)

	var (
		path string
		ok   bool
	)
	switch {
	case filepath.IsAbs(request):
		path, ok = r.fileOrDir(ctx, request, &tried)
	case isRelative(request):
		path, ok = r.fileOrDir(ctx, r.host.Join(dir, request), &tried)
	default:
		path, ok = r.module(ctx, dir, request, &tried)
	}
	if ok {
		return path, "", true
	}

	details := fmt.Sprintf("resolve '%s' in '%s'", moduleID, dir)
	for _, line := range tried {
		details += "\n  " + line
	}
	return "", details, false
}

// alias applies the first matching alias. A "*" in From captures the text
// substituted for the "*" in To; without one, From matches the whole request
// or a prefix followed by "/".
func (r *Resolver) alias(request string, tried *attempts) string {
	for _, a := range r.opts.Alias {
		if prefix, suffix, wildcard := strings.Cut(a.From, "*"); wildcard {
			if len(request) >= len(prefix)+len(suffix) &&
				strings.HasPrefix(request, prefix) && strings.HasSuffix(request, suffix) {
				capture := request[len(prefix) : len(request)-len(suffix)]
				out := strings.Replace(a.To, "*", capture, 1)
				tried.add("aliased with mapping '%s': '%s' to '%s'", a.From, request, out)
				return out
			}
			continue
		}
		if request == a.From {
			tried.add("aliased with mapping '%s': '%s' to '%s'", a.From, request, a.To)
			return a.To
		}
		if rest, ok := strings.CutPrefix(request, a.From+"/"); ok {
			out := a.To + "/" + rest
			tried.add("aliased with mapping '%s': '%s' to '%s'", a.From, request, out)
			return out
		}
	}
	return request
}

func isRelative(request string) bool {
	return request == "." || request == ".." ||
		strings.HasPrefix(request, "./") || strings.HasPrefix(request, "../")
}

// packageName splits "@scope/name/sub/path" into "@scope/name" and "sub/path".
func packageName(request string) (string, string) {
	parts := strings.SplitN(request, "/", 3)
	if strings.HasPrefix(request, "@") && len(parts) >= 2 {
		name := parts[0] + "/" + parts[1]
		if len(parts) == 3 {
			return name, parts[2]
		}
		return name, ""
	}
	name, sub, _ := strings.Cut(request, "/")
	return name, sub
}

func (r *Resolver) module(ctx context.Context, dir, request string, tried *attempts) (string, bool) {
	name, sub := packageName(request)

	for _, modules := range r.opts.Modules {
		if !filepath.IsAbs(modules) {
			continue
		}
		if path, ok := r.inModules(ctx, modules, name, sub, tried); ok {
			return path, true
		}
	}

	for current := dir; ; {
		for _, modules := range r.opts.Modules {
			if filepath.IsAbs(modules) {
				continue
			}
			if path, ok := r.inModules(ctx, r.host.Join(current, modules), name, sub, tried); ok {
				return path, true
			}
		}
		parent := r.host.Dir(current)
		if parent == current {
			return "", false
		}
		current = parent
	}
}

func (r *Resolver) inModules(ctx context.Context, modulesDir, name, sub string, tried *attempts) (string, bool) {
	pkgDir := r.host.Join(modulesDir, name)
	if !r.isDir(ctx, pkgDir) {
		tried.add("%s doesn't exist", pkgDir)
		return "", false
	}
	if sub != "" {
		return r.fileOrDir(ctx, r.host.Join(pkgDir, sub), tried)
	}
	return r.packageRoot(ctx, pkgDir, tried)
}

// packageRoot resolves a bare package import through the string "exports"
// of its description file before falling back to a directory lookup.
func (r *Resolver) packageRoot(ctx context.Context, pkgDir string, tried *attempts) (string, bool) {
	desc := r.description(ctx, pkgDir)
	if exports, ok := desc["exports"].(string); ok && exports != "" {
		target := r.host.Join(pkgDir, exports)
		if r.isFile(ctx, target) {
			return target, true
		}
		tried.add("%s (exports) doesn't exist", target)
	}
	return r.dir(ctx, pkgDir, desc, tried)
}

func (r *Resolver) fileOrDir(ctx context.Context, path string, tried *attempts) (string, bool) {
	if found, ok := r.file(ctx, path, tried); ok {
		return found, true
	}
	if !r.isDir(ctx, path) {
		return "", false
	}
	return r.dir(ctx, path, r.description(ctx, path), tried)
}

func (r *Resolver) file(ctx context.Context, path string, tried *attempts) (string, bool) {
	if r.isFile(ctx, path) {
		return path, true
	}
	tried.add("%s doesn't exist", path)
	for _, ext := range r.opts.Extensions {
		candidate := path + ext
		if r.isFile(ctx, candidate) {
			return candidate, true
		}
		tried.add("%s doesn't exist", candidate)
	}
	return "", false
}

func (r *Resolver) dir(ctx context.Context, dir string, desc map[string]any, tried *attempts) (string, bool) {
	for _, field := range r.opts.MainFields {
		main, ok := desc[field].(string)
		if !ok || main == "" {
			continue
		}
		target := r.host.Join(dir, main)
		if found, ok := r.file(ctx, target, tried); ok {
			return found, true
		}
		if r.isDir(ctx, target) {
			if found, ok := r.index(ctx, target, tried); ok {
				return found, true
			}
		}
	}
	return r.index(ctx, dir, tried)
}

func (r *Resolver) index(ctx context.Context, dir string, tried *attempts) (string, bool) {
	for _, name := range r.opts.MainFiles {
		if found, ok := r.file(ctx, r.host.Join(dir, name), tried); ok {
			return found, true
		}
	}
	return "", false
}

// description reads the package.json of dir. A missing or malformed file
// yields an empty description.
func (r *Resolver) description(ctx context.Context, dir string) map[string]any {
	data, err := r.host.ReadFile(ctx, r.host.Join(dir, descriptionFile))
	if err != nil {
		return nil
	}
	var desc map[string]any
	if err := json.Unmarshal(data, &desc); err != nil {
		return nil
	}
	return desc
}

func (r *Resolver) isFile(ctx context.Context, path string) bool {
	info, err := r.host.Stat(ctx, path)
	return err == nil && !info.IsDir()
}

func (r *Resolver) isDir(ctx context.Context, path string) bool {
	info, err := r.host.Stat(ctx, path)
	return err == nil && info.IsDir()
}

// Plugin answers ResolveProgramNode requests with a Resolver.
type Plugin struct {
	opts config.NodeResolverConfig
}

// New creates the plugin.
func New(opts config.NodeResolverConfig) *Plugin {
	return &Plugin{opts: opts}
}

func (p *Plugin) Name() string { return Name }

func (p *Plugin) Apply(e *engine.Engine) {
	resolver := NewResolver(e.Host, p.opts)

	e.Hooks.ResolveProgramNode.Tap(Name, func(ctx context.Context, req *engine.ResolveRequest) (*engine.Node, bool, error) {
		dirNode := req.Context.Closest(engine.KindDir)
		if dirNode == nil {
			return nil, false, nil
		}
		dir, ok := dirNode.Path()
		if !ok {
			return nil, false, nil
		}

		path, details, ok := resolver.Resolve(ctx, dir, req.ModuleID)
		if !ok {
			req.Details = append(req.Details, details)
			return nil, false, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		return programOf(e.File(path)), true, nil
	})
}

// programOf returns the first program of file, or an unknown one when no
// language plugin created a program for it.
func programOf(file *engine.Node) *engine.Node {
	if programs := file.ChildrenOfKind(engine.KindProgram); len(programs) > 0 {
		return programs[0]
	}
	return file.Program(UnknownProgram)
}
