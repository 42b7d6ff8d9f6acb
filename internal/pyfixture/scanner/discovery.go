package scanner

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// defaultDenylist prunes directories that never hold workspace fixture
// sources, mirroring the hidden-directory skip in
// internal/starlark/query/index/discovery.go's discoverRecursive, extended
// with Python-specific build/cache directories.
var defaultDenylist = map[string]bool{
	".venv":        true,
	"venv":         true,
	"env":          true,
	"__pycache__":  true,
	".git":         true,
	"node_modules": true,
	".tox":         true,
	".eggs":        true,
	"build":        true,
	"dist":         true,
}

// IsFixtureSourceFile reports whether name names a file the workspace scan
// should analyze: conftest.py, or a pytest-style test module
// (test_*.py / *_test.py). Grounded on
// original_source/src/fixtures.rs's workspace-walk filename check.
func IsFixtureSourceFile(name string) bool {
	if name == "conftest.py" {
		return true
	}
	if !strings.HasSuffix(name, ".py") {
		return false
	}
	return strings.HasPrefix(name, "test_") || strings.HasSuffix(name, "_test.py")
}

// DiscoverWorkspaceFiles walks root recursively, returning every
// conftest.py / test_*.py / *_test.py file path found, pruning
// defaultDenylist directories, hidden directories, and any directory or
// file matching one of excludePatterns (doublestar glob syntax, matched
// against the path relative to root).
//
// Grounded on query/index/discovery.go's discoverRecursive
// (filepath.WalkDir, hidden-directory skip), adapted from Starlark
// extension/filename matching to IsFixtureSourceFile.
func DiscoverWorkspaceFiles(root string, excludePatterns []string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entry: skip, don't abort the whole scan
		}
		if path == root {
			return nil
		}
		name := d.Name()
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = name
		}

		if d.IsDir() {
			if defaultDenylist[name] || (strings.HasPrefix(name, ".") && name != ".") {
				return filepath.SkipDir
			}
			if matchesAny(excludePatterns, rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if matchesAny(excludePatterns, rel) {
			return nil
		}
		if IsFixtureSourceFile(name) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func matchesAny(patterns []string, rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, rel); err == nil && ok {
			return true
		}
	}
	return false
}
