// Package filesystem discovers quill spec files in a project tree while
// skipping virtualenvs, caches and VCS metadata.
package filesystem

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultIgnoreDirs are common directories to skip during traversal
var DefaultIgnoreDirs = []string{
	".git", ".hg", ".svn",
	".venv", "venv", "env", "__pycache__",
	".mypy_cache", ".pytest_cache", ".ruff_cache", ".tox",
	"node_modules", "dist", "build", ".aws-sam", "cdk.out",
}

// SpecPatterns are the file name patterns recognised as spec files.
var SpecPatterns = []string{"*.quill.yml", "*.quill.yaml", "*.quill.json"}

// WalkOptions configures directory traversal behavior
type WalkOptions struct {
	IgnoreDirs     []string // Directories to skip (default: DefaultIgnoreDirs)
	IgnorePatterns []string // File patterns to skip (e.g., "*.bak.quill.yml")
	IncludeHidden  bool     // Include hidden files/dirs (default: false)
}

// Walk traverses a directory tree, calling visitor for every file and
// directory that is not ignored. Return filepath.SkipDir from visitor to
// skip a directory.
func Walk(root string, opts WalkOptions, visitor func(path string, d fs.DirEntry) error) error {
	ignoreDirs := opts.IgnoreDirs
	if ignoreDirs == nil {
		ignoreDirs = DefaultIgnoreDirs
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return visitor(path, d)
		}

		name := d.Name()
		if !opts.IncludeHidden && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			for _, ignore := range ignoreDirs {
				if name == ignore {
					return filepath.SkipDir
				}
			}
			return visitor(path, d)
		}

		if matchAny(opts.IgnorePatterns, name) {
			return nil
		}
		return visitor(path, d)
	})
}

// FindSpecFiles returns every spec file under root in lexical order.
// If root is itself a file it is returned as is.
func FindSpecFiles(root string, opts WalkOptions) ([]string, error) {
	var files []string
	err := Walk(root, opts, func(path string, d fs.DirEntry) error {
		if d.IsDir() {
			return nil
		}
		if path == root || matchAny(SpecPatterns, d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to discover spec files: %w", err)
	}

	sort.Strings(files)
	return files, nil
}

func matchAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}
