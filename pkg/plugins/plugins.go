// Package plugins builds the configured engine plugins.
package plugins

import (
	"fmt"
	"io"

	"github.com/Danoha/lexemite/pkg/analyzer/zombie"
	"github.com/Danoha/lexemite/pkg/config"
	"github.com/Danoha/lexemite/pkg/engine"
	"github.com/Danoha/lexemite/pkg/plugins/entry"
	"github.com/Danoha/lexemite/pkg/plugins/files"
	"github.com/Danoha/lexemite/pkg/plugins/javascript"
	"github.com/Danoha/lexemite/pkg/plugins/noderesolver"
	"github.com/Danoha/lexemite/pkg/plugins/tests"
	"github.com/Danoha/lexemite/pkg/plugins/typescript"
)

// Env is what plugins need from the surrounding process.
type Env struct {
	// BaseDir is the directory scanned for files and paths are shown relative to.
	BaseDir string
	// Progress receives progress bars; nil disables them.
	Progress io.Writer
}

// Factory creates one plugin from the configuration.
type Factory func(cfg *config.Config, env Env) (engine.Plugin, error)

// Registry maps plugin names to factories.
var Registry = map[string]Factory{
	entry.Name: func(cfg *config.Config, _ Env) (engine.Plugin, error) {
		return entry.New(cfg.Entry)
	},
	files.Name: func(cfg *config.Config, env Env) (engine.Plugin, error) {
		return files.New(env.BaseDir, cfg.Files, files.WithProgress(env.Progress)), nil
	},
	javascript.Name: func(cfg *config.Config, _ Env) (engine.Plugin, error) {
		return javascript.New(cfg.JavaScript), nil
	},
	noderesolver.Name: func(cfg *config.Config, _ Env) (engine.Plugin, error) {
		return noderesolver.New(cfg.NodeResolver), nil
	},
	tests.Name: func(cfg *config.Config, env Env) (engine.Plugin, error) {
		return tests.New(env.BaseDir, cfg.Tests)
	},
	typescript.Name: func(cfg *config.Config, env Env) (engine.Plugin, error) {
		return typescript.New(cfg.TypeScript, typescript.WithProgress(env.Progress)), nil
	},
	zombie.Name: func(cfg *config.Config, _ Env) (engine.Plugin, error) {
		return zombie.NewPlugin(zombie.WithReportAll(cfg.Zombie.ReportAll)), nil
	},
}

// Build creates the plugins listed in cfg, in order.
func Build(cfg *config.Config, env Env) ([]engine.Plugin, error) {
	out := make([]engine.Plugin, 0, len(cfg.Plugins))
	for _, name := range cfg.Plugins {
		factory, ok := Registry[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", config.ErrUnknownPlugin, name)
		}
		p, err := factory(cfg, env)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Apply lets every plugin register its participants on e.
func Apply(e *engine.Engine, plugins []engine.Plugin) {
	for _, p := range plugins {
		e.Logger().Debug("apply plugin", "name", p.Name())
		p.Apply(e)
	}
}
