package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/Danoha/lexemite/internal/logging"
	"github.com/Danoha/lexemite/internal/output"
	"github.com/Danoha/lexemite/pkg/config"
	"github.com/Danoha/lexemite/pkg/engine"
	"github.com/Danoha/lexemite/pkg/host"
	"github.com/Danoha/lexemite/pkg/parser"
	"github.com/Danoha/lexemite/pkg/plugins"
	"github.com/Danoha/lexemite/pkg/watch"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "lexemite",
		Usage:   "Find unused files, exports and dependencies in JavaScript and TypeScript projects",
		Version: version,
		Description: `Lexemite builds a dependency graph of a project from its files, sources
and package.json manifests, then reports everything no entry point requires.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"LEXEMITE_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "text",
				Usage:   "Output format: text, json, toon",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output",
			},
			&cli.BoolFlag{
				Name:  "no-progress",
				Usage: "Disable progress bars",
			},
			&cli.BoolFlag{
				Name:    "watch",
				Aliases: []string{"w"},
				Usage:   "Rerun the analysis when project files change",
			},
		},
		Action: runAnalyze,
		Commands: []*cli.Command{
			initCmd(),
		},
	}
}

// stageBanners are printed when the engine enters a stage.
var stageBanners = map[engine.Stage]string{
	engine.StageInitialize: "Initializing...",
	engine.StageBuildGraph: "Building graph...",
	engine.StageAnalyze:    "Analyzing...",
	engine.StageDone:       "Finishing...",
}

func runAnalyze(c *cli.Context) error {
	format, err := output.ParseFormat(c.String("format"))
	if err != nil {
		return err
	}

	colored := !color.NoColor
	status := output.NewWriterFormatter(output.FormatText, c.App.ErrWriter, colored)
	status.Success("Lexemite %s", version)

	formatter, err := output.NewFormatter(format, c.String("output"), colored)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	defer formatter.Close()
	var outputPath string
	if out := c.String("output"); out != "" {
		outputPath, _ = filepath.Abs(out)
	}

	logger := logging.New(os.Stderr, logging.Level(c.Bool("verbose")))

	baseDir, cfg, err := loadConfig(c.String("config"))
	var verr *config.ValidationError
	if errors.As(err, &verr) {
		if err := formatter.Output(configIssues(c.Context, baseDir, verr)); err != nil {
			return err
		}
		return cli.Exit("", 1)
	}
	if err != nil {
		return err
	}
	if cfg.Path != "" {
		status.Info("Using config file: %s", cfg.Path)
	}

	var progress io.Writer
	if !c.Bool("no-progress") && !c.Bool("verbose") {
		progress = os.Stderr
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithLogger(ctx, logger)

	a := &analysis{
		cfg:        cfg,
		baseDir:    baseDir,
		formatter:  formatter,
		status:     status,
		logger:     logger,
		progress:   progress,
		outputPath: outputPath,
	}
	if err := a.run(ctx); err != nil {
		return err
	}
	if !c.Bool("watch") {
		return nil
	}
	return a.watch(ctx)
}

// analysis is one configured project, analyzed from scratch on every run.
type analysis struct {
	cfg       *config.Config
	baseDir   string
	formatter *output.Formatter
	status    *output.Formatter
	logger    *log.Logger
	progress  io.Writer

	// outputPath is the absolute report file, ignored when watching.
	outputPath string
}

func (a *analysis) run(ctx context.Context) error {
	built, err := plugins.Build(a.cfg, plugins.Env{BaseDir: a.baseDir, Progress: a.progress})
	if err != nil {
		return err
	}

	e := engine.New(host.OS(),
		engine.WithLogger(a.logger),
		engine.WithStageListener(func(s engine.Stage) {
			a.status.Info("%s", stageBanners[s])
		}),
	)
	e.Hooks.ReadFile.Intercept(func(_ context.Context, n *engine.Node) {
		path, _ := n.Path()
		a.logger.Debug("read", "path", path)
	})
	if a.cfg.Path != "" {
		e.AddEntry(e.File(a.cfg.Path))
	}
	plugins.Apply(e, built)
	output.NewReporter(a.formatter, output.WithNodeSummary()).Apply(e)

	timer := logging.Start(a.logger)
	if err := e.Run(ctx); err != nil {
		return err
	}
	timer.Done(fmt.Sprintf("Analyzed %d nodes", e.Len()))
	a.status.Success("Done!")
	return nil
}

// watch reruns the analysis whenever project files change, until ctx is done.
func (a *analysis) watch(ctx context.Context) error {
	w, err := watch.NewWatcher(a.baseDir, a.cfg.Files, 0, a.logger)
	if err != nil {
		return err
	}
	defer w.Stop()

	w.OnChange(func(changed []string) {
		changed = slices.DeleteFunc(changed, func(rel string) bool {
			return filepath.Join(a.baseDir, rel) == a.outputPath
		})
		if len(changed) == 0 {
			return
		}
		a.status.Warning("Changed: %s", strings.Join(changed, ", "))
		if err := a.run(ctx); err != nil && ctx.Err() == nil {
			a.status.Error("%v", err)
		}
	})

	a.status.Info("Watching for changes in %s, press Ctrl+C to stop", a.baseDir)
	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// loadConfig loads the config file at path, or the one found in the working
// directory when path is empty, and moves into the directory holding it.
// The returned base dir is the absolute working directory afterwards.
func loadConfig(path string) (string, *config.Config, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", nil, err
		}
		found, ok := config.Find(wd)
		if !ok {
			return wd, config.DefaultConfig(), nil
		}
		path = found
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", nil, err
	}
	baseDir := filepath.Dir(abs)
	if filepath.Base(baseDir) == ".lexemite" {
		baseDir = filepath.Dir(baseDir)
	}
	if err := os.Chdir(baseDir); err != nil {
		return "", nil, fmt.Errorf("enter config directory: %w", err)
	}

	cfg, err := config.Load(abs)
	return baseDir, cfg, err
}

// configIssues turns schema violations into invalid-config issues located in
// the JSON form of the configuration.
func configIssues(ctx context.Context, baseDir string, verr *config.ValidationError) *output.IssueReport {
	node := verr.File
	if rel, err := filepath.Rel(baseDir, verr.File); err == nil {
		node = rel
	}

	p := parser.New()
	defer p.Close()
	doc, err := p.ParseJSON(ctx, verr.Document, verr.File)
	if err == nil {
		defer doc.Close()
	}

	report := &output.IssueReport{}
	for _, issue := range verr.Issues {
		var loc *engine.Location
		if err == nil {
			loc, _ = doc.Find(issue.Path...)
		}
		report.Add(node, engine.Issue{
			Level:       engine.LevelError,
			Code:        "invalid-config",
			Description: issue.Message,
			Help:        "The location refers to the configuration as JSON. Run `lexemite init` for a valid starting point.",
			Location:    loc,
		}, verr.Document)
	}
	report.Sort()
	return report
}
