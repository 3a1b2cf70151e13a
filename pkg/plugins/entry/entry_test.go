package entry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Danoha/lexemite/pkg/config"
	"github.com/Danoha/lexemite/pkg/engine"
	"github.com/Danoha/lexemite/pkg/host"
)

func TestSelectorPath(t *testing.T) {
	h, _ := host.Memory()
	e := engine.New(h)

	file := e.File("/repo/src/index.ts")
	program := file.Program("ts")
	sym := program.Symbol("default", &engine.Location{})

	tests := []struct {
		name string
		node *engine.Node
		want string
	}{
		{"dir", e.Dir("/repo/src"), "repo/src"},
		{"file", file, "index.ts"},
		{"program", program, "index.ts/ts"},
		{"symbol", sym, "index.ts/ts/default"},
		{"all exports", program.AllExports(), "index.ts/ts/*"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectorPath(tt.node))
		})
	}
}

func TestPlugin_AddsEntries(t *testing.T) {
	h, _ := host.Memory()
	e := engine.New(h)

	readme := e.File("/repo/README.md")
	license := e.File("/repo/pkg/LICENSE")
	other := e.File("/repo/main.ts")
	def := e.File("/repo/cli.ts").Program("ts").Symbol("default", &engine.Location{})

	p, err := New(config.EntryConfig{Patterns: []string{
		"**/{LICENSE,README.md}",
		"cli.ts/ts/default",
	}})
	require.NoError(t, err)
	p.Apply(e)
	require.NoError(t, e.Run(context.Background()))

	root := e.Root()
	assert.True(t, e.HasDependency(root, readme))
	assert.True(t, e.HasDependency(root, license))
	assert.True(t, e.HasDependency(root, def))
	assert.False(t, e.HasDependency(root, other))
}

func TestNew_InvalidPattern(t *testing.T) {
	_, err := New(config.EntryConfig{Patterns: []string{"[oops"}})
	assert.Error(t, err)
}

func TestPlugin_MatchUsesFileName(t *testing.T) {
	h, _ := host.Memory()
	e := engine.New(h)
	index := e.File("/repo/src/index.ts")

	byName, err := New(config.EntryConfig{Patterns: []string{"index.ts"}})
	require.NoError(t, err)
	assert.True(t, byName.Match(index))
	assert.True(t, byName.Match(e.File("/repo/lib/index.ts")))

	byDir, err := New(config.EntryConfig{Patterns: []string{"src/index.ts"}})
	require.NoError(t, err)
	assert.False(t, byDir.Match(index))
}
