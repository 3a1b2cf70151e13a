// Package scanner finds the files of a project through a host.
package scanner

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/Danoha/lexemite/pkg/host"
)

// Matcher selects slash-separated relative paths by doublestar globs.
type Matcher struct {
	include []string
	exclude []string
}

// NewMatcher validates the patterns and returns a matcher.
func NewMatcher(include, exclude []string) (*Matcher, error) {
	for _, p := range append(append([]string{}, include...), exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid glob pattern %q", p)
		}
	}
	return &Matcher{include: include, exclude: exclude}, nil
}

// Match reports whether rel matches an include pattern and no exclude pattern.
func (m *Matcher) Match(rel string) bool {
	return matchAny(m.include, rel) && !matchAny(m.exclude, rel)
}

// Prunes reports whether every path below the directory rel is excluded.
func (m *Matcher) Prunes(rel string) bool {
	for _, p := range m.exclude {
		if doublestar.MatchUnvalidated(p, rel) {
			return true
		}
		if prefix, ok := strings.CutSuffix(p, "/**"); ok && doublestar.MatchUnvalidated(prefix, rel) {
			return true
		}
	}
	return false
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if doublestar.MatchUnvalidated(p, rel) {
			return true
		}
	}
	return false
}

// Options configures a Scanner.
type Options struct {
	Include []string
	Exclude []string
	// Gitignore honours .gitignore files found while walking.
	Gitignore bool
	// Dot includes files and directories whose name starts with a dot.
	Dot bool
	// OnMatch is called for every matched file, if set.
	OnMatch func(path string)
}

// Scanner finds files in a directory.
type Scanner struct {
	host    host.Host
	opts    Options
	matcher *Matcher
}

// NewScanner creates a new file scanner.
func NewScanner(h host.Host, opts Options) (*Scanner, error) {
	m, err := NewMatcher(opts.Include, opts.Exclude)
	if err != nil {
		return nil, err
	}
	return &Scanner{host: h, opts: opts, matcher: m}, nil
}

// ScanDir recursively scans root and returns the matching file paths in walk
// order. Directory symlinks are not followed.
func (s *Scanner) ScanDir(ctx context.Context, root string) ([]string, error) {
	files := make([]string, 0, 1024)
	err := s.walk(ctx, root, nil, nil, &files)
	return files, err
}

func (s *Scanner) walk(ctx context.Context, dir string, rel []string, patterns []gitignore.Pattern, files *[]string) error {
	if s.opts.Gitignore {
		extra, err := s.readGitignore(ctx, dir, rel)
		if err != nil {
			return err
		}
		if len(extra) > 0 {
			patterns = append(append([]gitignore.Pattern{}, patterns...), extra...)
		}
	}
	var ignore gitignore.Matcher
	if len(patterns) > 0 {
		ignore = gitignore.NewMatcher(patterns)
	}

	entries, err := s.host.ReadDir(ctx, dir)
	if err != nil {
		return fmt.Errorf("scan %s: %w", dir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if !s.opts.Dot && strings.HasPrefix(name, ".") {
			continue
		}

		full := s.host.Join(dir, name)
		parts := append(append([]string{}, rel...), name)
		relPath := path.Join(parts...)

		isDir := entry.IsDir()
		if entry.Mode()&fs.ModeSymlink != 0 {
			target, err := s.host.Stat(ctx, full)
			if err != nil || target.IsDir() {
				// Skip unresolvable and directory symlinks
				continue
			}
			isDir = false
		}

		if ignore != nil && ignore.Match(parts, isDir) {
			continue
		}

		if isDir {
			if s.matcher.Prunes(relPath) {
				continue
			}
			if err := s.walk(ctx, full, parts, patterns, files); err != nil {
				return err
			}
			continue
		}

		if s.matcher.Match(relPath) {
			*files = append(*files, full)
			if s.opts.OnMatch != nil {
				s.opts.OnMatch(full)
			}
		}
	}
	return nil
}

func (s *Scanner) readGitignore(ctx context.Context, dir string, domain []string) ([]gitignore.Pattern, error) {
	data, err := s.host.ReadFile(ctx, s.host.Join(dir, ".gitignore"))
	if err != nil {
		if host.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var patterns []gitignore.Pattern
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, domain))
	}
	return patterns, sc.Err()
}
