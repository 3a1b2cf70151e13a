// Package config loads and validates lexemite configuration files.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "lexemite.schema.json"

// ErrUnknownPlugin is returned for plugin names no plugin is registered under.
var ErrUnknownPlugin = errors.New("unknown plugin")

// Config is the full lexemite configuration.
type Config struct {
	// Plugins lists the enabled plugins in application order.
	Plugins []string `koanf:"plugins" toml:"plugins"`

	Files        FilesConfig        `koanf:"files" toml:"files"`
	Tests        TestsConfig        `koanf:"tests" toml:"tests"`
	Entry        EntryConfig        `koanf:"entry" toml:"entry"`
	NodeResolver NodeResolverConfig `koanf:"node_resolver" toml:"node_resolver"`
	TypeScript   TypeScriptConfig   `koanf:"typescript" toml:"typescript"`
	JavaScript   JavaScriptConfig   `koanf:"javascript" toml:"javascript"`
	Zombie       ZombieConfig       `koanf:"zombie" toml:"zombie"`

	// Path is the file the configuration was loaded from, empty for defaults.
	Path string `koanf:"-" toml:"-"`
}

// FilesConfig selects the files of the project.
type FilesConfig struct {
	Include   []string `koanf:"include" toml:"include"`
	Exclude   []string `koanf:"exclude" toml:"exclude"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore"`
	Dot       bool     `koanf:"dot" toml:"dot"`
}

// TestsConfig selects test files, which are entry points.
type TestsConfig struct {
	Include      []string `koanf:"include" toml:"include"`
	Exclude      []string `koanf:"exclude" toml:"exclude"`
	SnapshotsDir string   `koanf:"snapshots_dir" toml:"snapshots_dir"`
	MocksDir     string   `koanf:"mocks_dir" toml:"mocks_dir"`
}

// EntryConfig lists glob patterns for nodes that are always required.
type EntryConfig struct {
	Patterns []string `koanf:"patterns" toml:"patterns"`
}

// AliasConfig rewrites module IDs matching From into To. A "*" in From
// captures text that replaces the "*" in To.
type AliasConfig struct {
	From string `koanf:"from" toml:"from"`
	To   string `koanf:"to" toml:"to"`
}

// NodeResolverConfig configures Node-style module resolution.
type NodeResolverConfig struct {
	Alias      []AliasConfig `koanf:"alias" toml:"alias"`
	Extensions []string      `koanf:"extensions" toml:"extensions"`
	MainFields []string      `koanf:"main_fields" toml:"main_fields"`
	MainFiles  []string      `koanf:"main_files" toml:"main_files"`
	Modules    []string      `koanf:"modules" toml:"modules"`
}

// TypeScriptConfig configures the TypeScript parser.
type TypeScriptConfig struct {
	// TSX is "always", "never" or empty to decide by file extension.
	TSX string `koanf:"tsx" toml:"tsx"`
	// JavaScript also parses .js, .jsx, .mjs and .cjs files.
	JavaScript bool `koanf:"javascript" toml:"javascript"`
}

// JavaScriptConfig configures package.json handling.
type JavaScriptConfig struct {
	Dependencies    bool `koanf:"dependencies" toml:"dependencies"`
	DevDependencies bool `koanf:"dev_dependencies" toml:"dev_dependencies"`
	Bin             bool `koanf:"bin" toml:"bin"`
	Main            bool `koanf:"main" toml:"main"`
	Exports         bool `koanf:"exports" toml:"exports"`
	LockFiles       bool `koanf:"lock_files" toml:"lock_files"`
	WorkspaceFiles  bool `koanf:"workspace_files" toml:"workspace_files"`
}

// ZombieConfig configures the unused code analyzer.
type ZombieConfig struct {
	ReportAll bool `koanf:"report_all" toml:"report_all"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Plugins: []string{"files", "tests", "node_resolver", "entry", "typescript", "javascript", "zombie"},
		Files: FilesConfig{
			Include:   []string{"**/*"},
			Exclude:   []string{"**/node_modules/**"},
			Gitignore: true,
		},
		Tests: TestsConfig{
			Include: []string{
				"**/__tests__/**/*",
				"**/*.{test,spec}.{ts,tsx,mts,cts,js,jsx,mjs,cjs}",
			},
			Exclude:      []string{"**/node_modules/**"},
			SnapshotsDir: "__snapshots__",
			MocksDir:     "__mocks__",
		},
		Entry: EntryConfig{
			Patterns: []string{"**/{LICENSE,LICENSE.md,README.md}"},
		},
		NodeResolver: NodeResolverConfig{
			Extensions: []string{".js", ".json", ".node"},
			MainFields: []string{"main", "module"},
			MainFiles:  []string{"index"},
			Modules:    []string{"node_modules"},
		},
		JavaScript: JavaScriptConfig{
			Dependencies:   true,
			Bin:            true,
			Main:           true,
			Exports:        true,
			LockFiles:      true,
			WorkspaceFiles: true,
		},
	}
}

// Issue is one schema violation.
type Issue struct {
	// Path is the location of the offending value, e.g. ["files", "include", "0"].
	Path    []string
	Message string
}

// ValidationError reports a configuration that does not match the schema.
type ValidationError struct {
	File   string
	Issues []Issue
	// Document is the configuration as indented JSON; issue paths point into it.
	Document []byte
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return fmt.Sprintf("invalid config %s: %s", e.File, e.Issues[0].Message)
	}
	return fmt.Sprintf("invalid config %s: %d issues", e.File, len(e.Issues))
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Determine parser based on extension
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = kjson.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	if err := validate(path, k.Raw()); err != nil {
		return nil, err
	}

	// Defaults go in first; present keys replace them wholesale, including
	// slices, instead of being merged element by element.
	cfg := DefaultConfig()
	err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			TagName:          "koanf",
			WeaklyTypedInput: true,
			ZeroFields:       true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	cfg.Path = path
	return cfg, nil
}

// SearchNames are the config file names looked up by Find, in order.
var SearchNames = []string{
	"lexemite.toml",
	"lexemite.yaml",
	"lexemite.yml",
	"lexemite.json",
}

// Find returns the first config file in dir or its .lexemite subdirectory.
func Find(dir string) (string, bool) {
	for _, sub := range []string{"", ".lexemite"} {
		for _, name := range SearchNames {
			path := filepath.Join(dir, sub, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, true
			}
		}
	}
	return "", false
}

// LoadOrDefault loads the config file found in dir, or returns the defaults
// when there is none. Errors of an existing file are returned.
func LoadOrDefault(dir string) (*Config, error) {
	path, ok := Find(dir)
	if !ok {
		return DefaultConfig(), nil
	}
	return Load(path)
}

func compileSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, err
	}
	return c.Compile(schemaURL)
}

// validate checks the raw document against the embedded schema. The
// document is round-tripped through JSON so that values from every parser
// share the JSON data model the validator expects.
func validate(path string, raw map[string]any) error {
	schema, err := compileSchema()
	if err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	document, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config %s: %w", path, err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(document))
	if err != nil {
		return fmt.Errorf("encode config %s: %w", path, err)
	}

	err = schema.Validate(inst)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return fmt.Errorf("validate config %s: %w", path, err)
	}

	verr := &ValidationError{File: path, Document: document}
	collect(ve.BasicOutput(), verr)
	if len(verr.Issues) == 0 {
		verr.Issues = []Issue{{Message: ve.Error()}}
	}
	sort.SliceStable(verr.Issues, func(i, j int) bool {
		return strings.Join(verr.Issues[i].Path, "/") < strings.Join(verr.Issues[j].Path, "/")
	})
	return verr
}

func collect(unit *jsonschema.OutputUnit, verr *ValidationError) {
	if unit == nil {
		return
	}
	if unit.Error != nil && len(unit.Errors) == 0 {
		verr.Issues = append(verr.Issues, Issue{
			Path:    splitPointer(unit.InstanceLocation),
			Message: unit.Error.String(),
		})
	}
	for i := range unit.Errors {
		collect(&unit.Errors[i], verr)
	}
}

// splitPointer splits a JSON pointer into its unescaped tokens.
func splitPointer(ptr string) []string {
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return nil
	}
	parts := strings.Split(ptr, "/")
	for i, p := range parts {
		parts[i] = strings.NewReplacer("~1", "/", "~0", "~").Replace(p)
	}
	return parts
}
