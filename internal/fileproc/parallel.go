// Package fileproc parses batches of source files concurrently.
package fileproc

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/Danoha/lexemite/pkg/parser"
)

// FileError is the failure of one file.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e FileError) Unwrap() error {
	return e.Err
}

// Failures collects the files a Map call could not process. It is safe for
// concurrent use.
type Failures struct {
	mu    sync.Mutex
	files []FileError
}

func (f *Failures) add(path string, err error) {
	f.mu.Lock()
	f.files = append(f.files, FileError{Path: path, Err: err})
	f.mu.Unlock()
}

// Len returns the number of failed files.
func (f *Failures) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.files)
}

// Files returns the failures ordered by path.
func (f *Failures) Files() []FileError {
	f.mu.Lock()
	files := slices.Clone(f.files)
	f.mu.Unlock()
	slices.SortFunc(files, func(a, b FileError) int { return cmp.Compare(a.Path, b.Path) })
	return files
}

func (f *Failures) Error() string {
	files := f.Files()
	switch len(files) {
	case 0:
		return "no failures"
	case 1:
		return files[0].Error()
	default:
		return fmt.Sprintf("%d files failed, first %v", len(files), files[0])
	}
}

// Unwrap exposes every file error to errors.Is and errors.As.
func (f *Failures) Unwrap() []error {
	files := f.Files()
	out := make([]error, len(files))
	for i, fe := range files {
		out[i] = fe
	}
	return out
}

// Canceled reports whether a file was abandoned because the context ended.
func (f *Failures) Canceled() bool {
	return errors.Is(f, context.Canceled) || errors.Is(f, context.DeadlineExceeded)
}

// Func processes one file with a parser that no other goroutine is using.
type Func[T any] func(ctx context.Context, p *parser.Parser, path string) (T, error)

// Options tune Map.
type Options struct {
	// Workers bounds the goroutines; GOMAXPROCS when not positive.
	Workers int
	// OnDone runs after every file, failed or not.
	OnDone func()
}

// Map runs fn over paths concurrently. Result i belongs to paths[i]; a failed
// file leaves the zero value there and an entry in the returned Failures,
// which is nil when every file succeeded. Files not yet started when ctx ends
// fail with the context error.
func Map[T any](ctx context.Context, paths []string, opts Options, fn Func[T]) ([]T, *Failures) {
	if len(paths) == 0 {
		return nil, nil
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]T, len(paths))
	failures := &Failures{}

	p := pool.New().WithMaxGoroutines(workers)
	for i, path := range paths {
		p.Go(func() {
			if opts.OnDone != nil {
				defer opts.OnDone()
			}
			if err := ctx.Err(); err != nil {
				failures.add(path, err)
				return
			}

			ps := parser.New()
			defer ps.Close()

			res, err := fn(ctx, ps, path)
			if err != nil {
				failures.add(path, err)
				return
			}
			results[i] = res
		})
	}
	p.Wait()

	if failures.Len() == 0 {
		return results, nil
	}
	return results, failures
}
