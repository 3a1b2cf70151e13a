// Package testutil holds helpers for tests that run against an in-memory
// filesystem.
package testutil

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/spf13/afero"

	"github.com/Danoha/lexemite/pkg/host"
)

// MemFS creates an in-memory filesystem for testing.
func MemFS() afero.Fs {
	return afero.NewMemMapFs()
}

// WriteFile writes content to a file in the given filesystem.
func WriteFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll(%s) error: %v", dir, err)
	}
	if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%s) error: %v", path, err)
	}
}

// CreateFileTree creates multiple files from a map of path -> content.
// Files are written in path order so directory listings are reproducible.
func CreateFileTree(t *testing.T, fs afero.Fs, root string, files map[string]string) {
	t.Helper()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		WriteFile(t, fs, filepath.Join(root, name), files[name])
	}
}

// Project creates the files under root in a fresh in-memory filesystem and
// returns a host over it.
func Project(t *testing.T, root string, files map[string]string) (*host.FS, afero.Fs) {
	t.Helper()
	fs := MemFS()
	CreateFileTree(t, fs, root, files)
	return host.New(fs), fs
}
