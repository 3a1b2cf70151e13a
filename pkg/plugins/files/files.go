// Package files populates the engine with the files of the project and
// serves their contents.
package files

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/Danoha/lexemite/internal/progress"
	"github.com/Danoha/lexemite/internal/scanner"
	"github.com/Danoha/lexemite/pkg/config"
	"github.com/Danoha/lexemite/pkg/engine"
	"github.com/Danoha/lexemite/pkg/graph"
)

// Name is the plugin name used in config and hook registrations.
const Name = "files"

// Plugin scans the base directory during buildGraph.
type Plugin struct {
	baseDir  string
	opts     config.FilesConfig
	progress io.Writer

	mu       sync.Mutex
	paths    map[graph.ID]string
	contents map[graph.ID][]byte
	reads    singleflight.Group
}

// Option configures a Plugin.
type Option func(*Plugin)

// WithProgress renders a scan spinner to w.
func WithProgress(w io.Writer) Option {
	return func(p *Plugin) {
		p.progress = w
	}
}

// New creates a files plugin rooted at baseDir.
func New(baseDir string, opts config.FilesConfig, options ...Option) *Plugin {
	p := &Plugin{
		baseDir:  baseDir,
		opts:     opts,
		paths:    make(map[graph.ID]string),
		contents: make(map[graph.ID][]byte),
	}
	for _, o := range options {
		o(p)
	}
	return p
}

func (p *Plugin) Name() string { return Name }

// Apply registers the plugin's participants.
func (p *Plugin) Apply(e *engine.Engine) {
	var (
		sc      *scanner.Scanner
		spinner *progress.Tracker
	)

	e.Hooks.Initialize.Tap(Name, func(_ context.Context, e *engine.Engine) error {
		spinner = progress.NewSpinner(p.progress, "Scanning")
		s, err := scanner.NewScanner(e.Host, scanner.Options{
			Include:   p.opts.Include,
			Exclude:   p.opts.Exclude,
			Gitignore: p.opts.Gitignore,
			Dot:       p.opts.Dot,
			OnMatch:   func(string) { spinner.Tick() },
		})
		if err != nil {
			return fmt.Errorf("files: %w", err)
		}
		sc = s
		return nil
	})

	e.Hooks.BuildGraph.Tap(Name, func(ctx context.Context, e *engine.Engine) error {
		paths, err := sc.ScanDir(ctx, p.baseDir)
		spinner.Finish()
		if err != nil {
			return err
		}
		e.Logger().Debug("scanned files", "count", len(paths), "dir", p.baseDir)

		p.mu.Lock()
		defer p.mu.Unlock()
		for _, path := range paths {
			file := e.File(path)
			file.SetReal()
			p.paths[file.ID()] = path
		}
		return nil
	})

	e.Hooks.ReadFile.Tap(Name, p.read)
	e.Hooks.FormatNode.Tap(Name, p.format)
}

func (p *Plugin) path(node *engine.Node) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	path, ok := p.paths[node.ID()]
	return path, ok
}

// read serves scanned files only. The first successful read is cached and
// concurrent readers of the same file share one host call.
func (p *Plugin) read(ctx context.Context, node *engine.Node) ([]byte, bool, error) {
	path, ok := p.path(node)
	if !ok {
		return nil, false, nil
	}

	p.mu.Lock()
	data, cached := p.contents[node.ID()]
	p.mu.Unlock()
	if cached {
		return data, true, nil
	}

	v, err, _ := p.reads.Do(strconv.FormatUint(uint64(node.ID()), 10), func() (any, error) {
		data, err := node.Engine().Host.ReadFile(ctx, path)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.contents[node.ID()] = data
		p.mu.Unlock()
		return data, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.([]byte), true, nil
}

func (p *Plugin) format(node *engine.Node) (string, bool) {
	path, ok := p.path(node)
	if !ok {
		return "", false
	}
	rel, err := node.Engine().Host.Rel(p.baseDir, path)
	if err != nil {
		return path, true
	}
	return rel, true
}
