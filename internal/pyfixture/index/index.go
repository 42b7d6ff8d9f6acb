package index

import (
	"path/filepath"
	"sync"
)

// Index is the concurrent fixture knowledge base for one workspace. All
// lookups are served from sharded maps (see shard.go); the only
// whole-store operation is Reset, used when the workspace root changes.
//
// Grounded on internal/starlark/query/index/index.go's Index type, with
// the single global mutex replaced by per-shard locking (spec.md §4.3:
// "a single mutex is explicitly insufficient").
type Index struct {
	files       *shardedMap[fileRecord]
	definitions *shardedMap[[]FixtureDefinition]
	usages      *shardedMap[[]FixtureUsage]
	undeclared  *shardedMap[[]UndeclaredCandidate]

	canonMu sync.RWMutex
	canon   map[string]string
}

// New returns an empty Index.
func New() *Index {
	return &Index{
		files:       newShardedMap[fileRecord](),
		definitions: newShardedMap[[]FixtureDefinition](),
		usages:      newShardedMap[[]FixtureUsage](),
		undeclared:  newShardedMap[[]UndeclaredCandidate](),
		canon:       make(map[string]string),
	}
}

// Canonicalize resolves path to an absolute, symlink-evaluated form and
// caches the mapping for the life of the process. Canonicalization failure
// (e.g. the file was deleted between discovery and analysis) is non-fatal:
// if symlink evaluation fails the cleaned absolute path is cached and
// returned, and if even the absolute path cannot be formed the raw path is.
func (ix *Index) Canonicalize(path string) string {
	ix.canonMu.RLock()
	if c, ok := ix.canon[path]; ok {
		ix.canonMu.RUnlock()
		return c
	}
	ix.canonMu.RUnlock()

	canon := path
	if abs, err := filepath.Abs(path); err == nil {
		if real, err := filepath.EvalSymlinks(abs); err == nil {
			canon = real
		} else {
			canon = abs
		}
	}

	ix.canonMu.Lock()
	ix.canon[path] = canon
	ix.canonMu.Unlock()
	return canon
}

// AnalyzedFile is the per-file extraction result an Analyzer hands to
// ReplaceFile. Content is retained so downstream consumers (hover,
// completion prefix scanning) can re-slice without a second disk read.
type AnalyzedFile struct {
	Path        string
	Content     string
	Definitions []FixtureDefinition
	Usages      []FixtureUsage
	Undeclared  []UndeclaredCandidate
	Imports     map[string]bool
	ModuleNames map[string]bool
}

// ReplaceFile atomically substitutes path's entire contribution to the
// index: every definition, usage, and undeclared-candidate record
// previously attributed to path is dropped and the new set inserted in
// its place. No query ever observes a mix of the old file's records and
// a half-written new set for a *single* name-keyed bucket, but because
// updates span multiple sharded buckets (one per definition name, one per
// usage name) a concurrent reader can transiently see the old version of
// one bucket and the new version of another; this matches spec.md §4.3's
// documented per-bucket (not whole-file) atomicity.
func (ix *Index) ReplaceFile(file AnalyzedFile) {
	path := ix.Canonicalize(file.Path)

	old, hadOld := ix.files.get(path)

	if hadOld {
		removeDefinitionsByFile(ix.definitions, old.Definitions, path)
		removeUsagesByFile(ix.usages, old.Usages, path)
		ix.undeclared.delete(path)
	}

	rec := fileRecord{
		Path:        path,
		Content:     file.Content,
		Definitions: file.Definitions,
		Usages:      file.Usages,
		Undeclared:  file.Undeclared,
		Imports:     file.Imports,
		ModuleNames: file.ModuleNames,
	}
	ix.files.set(path, rec)

	for _, d := range file.Definitions {
		d.FilePath = path
		appendDefinition(ix.definitions, d)
	}
	for _, u := range file.Usages {
		u.FilePath = path
		appendUsage(ix.usages, u)
	}
	if len(file.Undeclared) > 0 {
		list := make([]UndeclaredCandidate, len(file.Undeclared))
		copy(list, file.Undeclared)
		for i := range list {
			list[i].FilePath = path
		}
		ix.undeclared.set(path, list)
	}
}

// RemoveFile drops every record attributed to path, e.g. on file deletion.
func (ix *Index) RemoveFile(path string) {
	path = ix.Canonicalize(path)
	old, ok := ix.files.get(path)
	if !ok {
		return
	}
	removeDefinitionsByFile(ix.definitions, old.Definitions, path)
	removeUsagesByFile(ix.usages, old.Usages, path)
	ix.undeclared.delete(path)
	ix.files.delete(path)
}

// Definitions returns every known definition of name across the workspace,
// in no particular order; callers needing the priority ladder use the
// resolver package instead.
func (ix *Index) Definitions(name string) []FixtureDefinition {
	defs, _ := ix.definitions.get(name)
	out := make([]FixtureDefinition, len(defs))
	copy(out, defs)
	return out
}

// AllDefinitions returns every definition in the workspace, across all
// names, for Q4-style "visible fixtures" scans that must inspect each
// candidate's scope and location.
func (ix *Index) AllDefinitions() []FixtureDefinition {
	var out []FixtureDefinition
	ix.definitions.forEach(func(_ string, defs []FixtureDefinition) {
		out = append(out, defs...)
	})
	return out
}

// UsagesOf returns every recorded usage of name across the workspace.
func (ix *Index) UsagesOf(name string) []FixtureUsage {
	usages, _ := ix.usages.get(name)
	out := make([]FixtureUsage, len(usages))
	copy(out, usages)
	return out
}

// File returns the cached content and per-file facts for path, if known.
func (ix *Index) File(path string) (AnalyzedFile, bool) {
	path = ix.Canonicalize(path)
	rec, ok := ix.files.get(path)
	if !ok {
		return AnalyzedFile{}, false
	}
	return AnalyzedFile{
		Path:        rec.Path,
		Content:     rec.Content,
		Definitions: rec.Definitions,
		Usages:      rec.Usages,
		Undeclared:  rec.Undeclared,
		Imports:     rec.Imports,
		ModuleNames: rec.ModuleNames,
	}, true
}

// Files returns every canonical path currently tracked.
func (ix *Index) Files() []string {
	var out []string
	ix.files.forEach(func(path string, _ fileRecord) {
		out = append(out, path)
	})
	return out
}

// Reset clears every record, used when the workspace root is reconfigured.
func (ix *Index) Reset() {
	ix.files.reset()
	ix.definitions.reset()
	ix.usages.reset()
	ix.undeclared.reset()
	ix.canonMu.Lock()
	ix.canon = make(map[string]string)
	ix.canonMu.Unlock()
}

func appendDefinition(m *shardedMap[[]FixtureDefinition], d FixtureDefinition) {
	m.update(d.Name, func(cur []FixtureDefinition) []FixtureDefinition {
		return append(cur, d)
	})
}

func appendUsage(m *shardedMap[[]FixtureUsage], u FixtureUsage) {
	m.update(u.Name, func(cur []FixtureUsage) []FixtureUsage {
		return append(cur, u)
	})
}

func removeDefinitionsByFile(m *shardedMap[[]FixtureDefinition], old []FixtureDefinition, path string) {
	seen := make(map[string]bool)
	for _, d := range old {
		seen[d.Name] = true
	}
	for name := range seen {
		m.update(name, func(cur []FixtureDefinition) []FixtureDefinition {
			out := make([]FixtureDefinition, 0, len(cur))
			for _, d := range cur {
				if d.FilePath != path {
					out = append(out, d)
				}
			}
			return out
		})
	}
}

func removeUsagesByFile(m *shardedMap[[]FixtureUsage], old []FixtureUsage, path string) {
	seen := make(map[string]bool)
	for _, u := range old {
		seen[u.Name] = true
	}
	for name := range seen {
		m.update(name, func(cur []FixtureUsage) []FixtureUsage {
			out := make([]FixtureUsage, 0, len(cur))
			for _, u := range cur {
				if u.FilePath != path {
					out = append(out, u)
				}
			}
			return out
		})
	}
}
