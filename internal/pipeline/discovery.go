package pipeline

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/mvp-joe/docsift/internal/fault"
)

// Candidate is a file found under the input root. Err is set when the
// file could not be visited (permission denied, broken symlink); such
// candidates are recorded as IO failures instead of aborting the walk.
type Candidate struct {
	Path    string
	RelPath string
	Err     error
}

// DiscoveryOptions controls which files are visited.
type DiscoveryOptions struct {
	// IncludeHidden visits dot-files and dot-directories.
	IncludeHidden bool

	// Ignore holds glob patterns matched against slash-separated paths
	// relative to the input root. "node_modules" also matches "node_modules/**".
	Ignore []string

	// SkipDirs are absolute directories never descended into, typically the
	// output and log roots when they live inside the input root.
	SkipDirs []string
}

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// Discovery enumerates the regular files under a root in lexicographic order.
type Discovery struct {
	rootDir        string
	includeHidden  bool
	ignorePatterns []compiledPattern
	skipDirs       map[string]bool
}

// NewDiscovery compiles the ignore patterns for rootDir.
func NewDiscovery(rootDir string, opts DiscoveryOptions) (*Discovery, error) {
	root, err := resolveDir(rootDir)
	if err != nil {
		return nil, err
	}
	d := &Discovery{
		rootDir:       root,
		includeHidden: opts.IncludeHidden,
		skipDirs:      map[string]bool{},
	}

	for _, pattern := range opts.Ignore {
		g, err := CompileGlob(pattern)
		if err != nil {
			return nil, err
		}
		d.ignorePatterns = append(d.ignorePatterns, compiledPattern{pattern: pattern, glob: g})
	}

	for _, dir := range opts.SkipDirs {
		if dir == "" {
			continue
		}
		abs, err := resolveDir(dir)
		if err != nil {
			return nil, err
		}
		if abs != root {
			d.skipDirs[abs] = true
		}
	}
	return d, nil
}

// CompileGlob compiles an ignore pattern with '/' as the separator.
func CompileGlob(pattern string) (glob.Glob, error) {
	return glob.Compile(pattern, '/')
}

// Discover walks the tree. Only a failure to read the root itself is
// returned as an error.
func (d *Discovery) Discover() ([]Candidate, error) {
	var out []Candidate

	err := filepath.WalkDir(d.rootDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == d.rootDir {
				return err
			}
			out = append(out, d.candidate(path, fault.IO("read", path, err)))
			return nil
		}
		if path == d.rootDir {
			return nil
		}

		name := entry.Name()
		relPath := d.rel(path)

		if entry.IsDir() {
			if d.skipDirs[path] || (!d.includeHidden && isHidden(name)) || d.shouldIgnore(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.includeHidden && isHidden(name) {
			return nil
		}
		if d.shouldIgnore(relPath) {
			return nil
		}

		if entry.Type()&fs.ModeSymlink != 0 {
			info, err := os.Stat(path)
			if err != nil {
				out = append(out, d.candidate(path, fault.IO("follow symlink", path, err)))
				return nil
			}
			// Symlinked directories are not followed.
			if !info.Mode().IsRegular() {
				return nil
			}
			out = append(out, d.candidate(path, nil))
			return nil
		}

		if !entry.Type().IsRegular() {
			return nil
		}
		out = append(out, d.candidate(path, nil))
		return nil
	})
	if err != nil {
		return nil, fault.IO("walk", d.rootDir, err)
	}
	return out, nil
}

func (d *Discovery) candidate(path string, err error) Candidate {
	return Candidate{Path: path, RelPath: d.rel(path), Err: err}
}

func (d *Discovery) rel(path string) string {
	rel, err := filepath.Rel(d.rootDir, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// shouldIgnore checks if a path matches any ignore pattern.
func (d *Discovery) shouldIgnore(relPath string) bool {
	if d.matchesAnyPattern(relPath) {
		return true
	}

	// Also check if this is a directory that would match with /** suffix
	// For example, "node_modules" should match pattern "node_modules/**"
	return d.matchesAnyPattern(relPath + "/**")
}

// matchesAnyPattern checks if a path matches any ignore pattern. Patterns
// starting with **/ also match at the root, so "**/*.bak" matches "a.bak".
func (d *Discovery) matchesAnyPattern(path string) bool {
	for _, cp := range d.ignorePatterns {
		if cp.glob.Match(path) {
			return true
		}
	}

	if !strings.Contains(strings.TrimSuffix(path, "/**"), "/") {
		for _, cp := range d.ignorePatterns {
			if !strings.HasPrefix(cp.pattern, "**/") {
				continue
			}
			if g, err := CompileGlob(strings.TrimPrefix(cp.pattern, "**/")); err == nil && g.Match(path) {
				return true
			}
		}
	}
	return false
}

// resolveDir returns the absolute, symlink-free form of dir. Directories
// that do not exist yet keep their absolute form.
func resolveDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}
