package watch

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Danoha/lexemite/pkg/config"
)

func newWatcher(t *testing.T, root string, debounce time.Duration) *Watcher {
	t.Helper()
	w, err := NewWatcher(root, config.DefaultConfig().Files, debounce, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	t.Cleanup(func() { _ = w.Stop() })
	return w
}

func TestNewWatcher(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name     string
		debounce time.Duration
		want     time.Duration
	}{
		{"default debounce", 0, DefaultDebounce},
		{"custom debounce", time.Second, time.Second},
		{"negative debounce defaults", -time.Second, DefaultDebounce},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newWatcher(t, tmpDir, tt.debounce)
			if w.debounce != tt.want {
				t.Errorf("debounce = %v, want %v", w.debounce, tt.want)
			}
			if w.root != tmpDir {
				t.Errorf("root = %v, want %v", w.root, tmpDir)
			}
		})
	}
}

func TestNewWatcher_InvalidPattern(t *testing.T) {
	_, err := NewWatcher(t.TempDir(), config.FilesConfig{Include: []string{"[broken"}}, 0, nil)
	if err == nil {
		t.Error("NewWatcher() should reject invalid patterns")
	}
}

func TestWatcher_handleEvent(t *testing.T) {
	tmpDir := t.TempDir()
	w := newWatcher(t, tmpDir, time.Second)

	tests := []struct {
		name        string
		event       fsnotify.Event
		rel         string
		wantPending bool
	}{
		{"write", fsnotify.Event{Name: filepath.Join(tmpDir, "src", "a.ts"), Op: fsnotify.Write}, "src/a.ts", true},
		{"create", fsnotify.Event{Name: filepath.Join(tmpDir, "b.ts"), Op: fsnotify.Create}, "b.ts", true},
		{"remove", fsnotify.Event{Name: filepath.Join(tmpDir, "c.ts"), Op: fsnotify.Remove}, "c.ts", true},
		{"rename", fsnotify.Event{Name: filepath.Join(tmpDir, "package.json"), Op: fsnotify.Rename}, "package.json", true},
		{"chmod ignored", fsnotify.Event{Name: filepath.Join(tmpDir, "d.ts"), Op: fsnotify.Chmod}, "d.ts", false},
		{"excluded", fsnotify.Event{Name: filepath.Join(tmpDir, "node_modules", "x", "index.js"), Op: fsnotify.Write}, "node_modules/x/index.js", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w.mu.Lock()
			w.pending = make(map[string]time.Time)
			w.mu.Unlock()

			w.handleEvent(tt.event)

			w.mu.Lock()
			_, found := w.pending[tt.rel]
			w.mu.Unlock()

			if found != tt.wantPending {
				t.Errorf("pending[%v] = %v, want %v", tt.rel, found, tt.wantPending)
			}
		})
	}
}

func TestWatcher_processPending(t *testing.T) {
	w := newWatcher(t, t.TempDir(), 50*time.Millisecond)

	var got [][]string
	w.OnChange(func(changed []string) {
		got = append(got, changed)
	})

	old := time.Now().Add(-time.Second)
	w.mu.Lock()
	w.pending["b.ts"] = old
	w.pending["a.ts"] = old
	w.pending["fresh.ts"] = time.Now()
	w.mu.Unlock()

	w.processPending()

	if len(got) != 1 || !slices.Equal(got[0], []string{"a.ts", "b.ts"}) {
		t.Errorf("batches = %v, want [[a.ts b.ts]]", got)
	}
	w.mu.Lock()
	_, stillPending := w.pending["fresh.ts"]
	w.mu.Unlock()
	if !stillPending {
		t.Error("files inside the debounce period should stay pending")
	}

	w.processPending()
	if len(got) != 1 {
		t.Errorf("empty flush should not call back, got %d batches", len(got))
	}
}

func TestWatcher_Start_Context(t *testing.T) {
	w := newWatcher(t, t.TempDir(), 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Start(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != context.Canceled {
			t.Errorf("Start() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Error("Start() did not return after context cancellation")
	}
}

func TestWatcher_Start_FileChange(t *testing.T) {
	tmpDir := t.TempDir()
	w := newWatcher(t, tmpDir, 50*time.Millisecond)

	var mu sync.Mutex
	var changed []string
	w.OnChange(func(paths []string) {
		mu.Lock()
		changed = append(changed, paths...)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(tmpDir, "index.ts"), []byte("export {}\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		done := slices.Contains(changed, "index.ts")
		mu.Unlock()
		if done {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	mu.Lock()
	defer mu.Unlock()
	t.Errorf("index.ts was not reported, got %v", changed)
}

func TestWatcher_Start_SkipsPrunedDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	for _, dir := range []string{"node_modules/left-pad", ".git", "src"} {
		if err := os.MkdirAll(filepath.Join(tmpDir, dir), 0o755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
	}

	w := newWatcher(t, tmpDir, 50*time.Millisecond)
	if err := w.addTree(tmpDir); err != nil {
		t.Fatalf("addTree() error = %v", err)
	}

	watched := w.WatchedDirs()
	if !slices.Contains(watched, filepath.Join(tmpDir, "src")) {
		t.Errorf("src should be watched, got %v", watched)
	}
	for _, path := range watched {
		switch filepath.Base(path) {
		case "node_modules", "left-pad", ".git":
			t.Errorf("%s should not be watched", path)
		}
	}
}
