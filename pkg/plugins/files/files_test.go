package files

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Danoha/lexemite/internal/testutil"
	"github.com/Danoha/lexemite/pkg/config"
	"github.com/Danoha/lexemite/pkg/engine"
	"github.com/Danoha/lexemite/pkg/host"
)

func setup(t *testing.T, files map[string]string, opts config.FilesConfig) (*engine.Engine, afero.Fs) {
	t.Helper()
	h, fsys := testutil.Project(t, "/repo", files)

	e := engine.New(h)
	New("/repo", opts).Apply(e)
	require.NoError(t, e.Run(context.Background()))
	return e, fsys
}

func TestPlugin_ScansFiles(t *testing.T) {
	e, _ := setup(t, map[string]string{
		"src/index.ts":           "export {}",
		"README.md":              "# hi",
		"node_modules/x/main.js": "",
	}, config.DefaultConfig().Files)

	var paths []string
	for file := range e.Files(nil) {
		p, _ := file.Path()
		paths = append(paths, p)
		assert.True(t, file.IsReal(), "%s should be real", p)
	}
	assert.Equal(t, []string{"/repo/README.md", "/repo/src/index.ts"}, paths)

	file := e.File("/repo/src/index.ts")
	assert.True(t, e.HasDependency(file, file.Parent()))
	assert.True(t, file.Parent().IsReal())
}

func TestPlugin_ReadFile(t *testing.T) {
	e, fsys := setup(t, map[string]string{"a.ts": "one"}, config.FilesConfig{Include: []string{"**/*"}})
	ctx := context.Background()

	data, ok, err := e.ReadFile(ctx, e.File("/repo/a.ts"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "one", string(data))

	// Contents are cached after the first read.
	testutil.WriteFile(t, fsys, "/repo/a.ts", "two")
	data, _, err = e.ReadFile(ctx, e.File("/repo/a.ts"))
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))

	// Files that were not scanned are not served.
	testutil.WriteFile(t, fsys, "/repo/late.ts", "late")
	_, ok, err = e.ReadFile(ctx, e.File("/repo/late.ts"))
	require.NoError(t, err)
	assert.False(t, ok)
}

// slowFs counts and delays opens of one path.
type slowFs struct {
	afero.Fs
	path  string
	opens atomic.Int32
}

func (f *slowFs) Open(name string) (afero.File, error) {
	if name == f.path {
		f.opens.Add(1)
		time.Sleep(50 * time.Millisecond)
	}
	return f.Fs.Open(name)
}

func TestPlugin_ReadFileSharesInFlight(t *testing.T) {
	fsys := testutil.MemFS()
	testutil.CreateFileTree(t, fsys, "/repo", map[string]string{"a.ts": "one"})
	slow := &slowFs{Fs: fsys, path: "/repo/a.ts"}

	e := engine.New(host.New(slow))
	New("/repo", config.FilesConfig{Include: []string{"**/*"}}).Apply(e)
	require.NoError(t, e.Run(context.Background()))

	file := e.File("/repo/a.ts")
	start := make(chan struct{})
	results := make([]string, 8)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			data, ok, err := e.ReadFile(context.Background(), file)
			if err == nil && ok {
				results[i] = string(data)
			}
		}()
	}
	close(start)
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, "one", got)
	}
	assert.Equal(t, int32(1), slow.opens.Load())
}

func TestPlugin_ReadFileError(t *testing.T) {
	e, fsys := setup(t, map[string]string{"gone.ts": "x"}, config.FilesConfig{Include: []string{"**/*"}})
	require.NoError(t, fsys.Remove("/repo/gone.ts"))

	_, ok, err := e.ReadFile(context.Background(), e.File("/repo/gone.ts"))
	assert.Error(t, err)
	assert.True(t, host.IsNotExist(err))
	assert.False(t, ok)
}

func TestPlugin_FormatNode(t *testing.T) {
	e, _ := setup(t, map[string]string{"src/a.ts": ""}, config.FilesConfig{Include: []string{"**/*"}})

	assert.Equal(t, "src/a.ts", e.FormatNode(e.File("/repo/src/a.ts")))
	// Dirs are not scanned, so they fall back to their host path.
	assert.Equal(t, "/repo/src", e.FormatNode(e.Dir("/repo/src")))
}

func TestPlugin_InvalidPattern(t *testing.T) {
	h, _ := host.Memory()
	e := engine.New(h)
	New("/repo", config.FilesConfig{Include: []string{"[bad"}}).Apply(e)

	assert.Error(t, e.Run(context.Background()))
}
