// Package host is the filesystem surface the engine and its plugins use.
// Nothing else in the module touches the filesystem directly, so an
// in-memory afero filesystem is a complete substitute in tests.
package host

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// ErrNoReadlink is returned by Readlink when the filesystem has no symlinks.
var ErrNoReadlink = errors.New("readlink not supported")

// Host provides path algebra and file access.
type Host interface {
	Base(path string) string
	Dir(path string) string
	Join(parts ...string) string
	Abs(path string) (string, error)
	Rel(base, target string) (string, error)

	ReadFile(ctx context.Context, path string) ([]byte, error)
	ReadDir(ctx context.Context, path string) ([]fs.FileInfo, error)
	Readlink(ctx context.Context, path string) (string, error)
	Stat(ctx context.Context, path string) (fs.FileInfo, error)
}

// FS is a Host backed by an afero filesystem.
type FS struct {
	fs afero.Fs
}

// New wraps an afero filesystem.
func New(fsys afero.Fs) *FS {
	return &FS{fs: fsys}
}

// OS returns a Host for the real filesystem.
func OS() *FS {
	return New(afero.NewOsFs())
}

// Memory returns a Host over an empty in-memory filesystem along with the
// filesystem, so tests can populate it.
func Memory() (*FS, afero.Fs) {
	fsys := afero.NewMemMapFs()
	return New(fsys), fsys
}

func (h *FS) Base(path string) string { return filepath.Base(path) }

func (h *FS) Dir(path string) string { return filepath.Dir(path) }

func (h *FS) Join(parts ...string) string { return filepath.Join(parts...) }

func (h *FS) Rel(base, target string) (string, error) { return filepath.Rel(base, target) }

// Abs resolves path against the process working directory.
func (h *FS) Abs(path string) (string, error) {
	return filepath.Abs(path)
}

// ReadFile reads the whole file.
func (h *FS) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return afero.ReadFile(h.fs, path)
}

// ReadDir lists a directory sorted by name.
func (h *FS) ReadDir(ctx context.Context, path string) ([]fs.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := afero.ReadDir(h.fs, path)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

// Readlink returns the target of a symbolic link.
func (h *FS) Readlink(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	lr, ok := h.fs.(afero.LinkReader)
	if !ok {
		return "", &os.PathError{Op: "readlink", Path: path, Err: ErrNoReadlink}
	}
	return lr.ReadlinkIfPossible(path)
}

// Stat follows symbolic links.
func (h *FS) Stat(ctx context.Context, path string) (fs.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h.fs.Stat(path)
}

// IsNotExist reports whether err means the path does not exist.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
