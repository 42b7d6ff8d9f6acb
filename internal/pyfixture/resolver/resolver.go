// Package resolver answers the five queries the editor-protocol facade
// needs: the fixture name at a cursor, its definition, its references, the
// fixtures visible at a file, and the completion context at a cursor.
//
// Grounded on _examples/original_source/src/fixtures.rs's
// find_fixture_at_position / find_closest_definition / extract_word_at_position
// (the priority-ladder shape and column-scanning idiom), adapted to the
// functional-adapter style of internal/starlark/resolver/resolver.go (a
// small struct wrapping a lookup dependency, sentinel errors instead of
// panics) and to this spec's exact Q1-Q5 semantics (spec.md §4.5).
package resolver

import (
	"sort"
	"strings"

	"github.com/pytestls/pytestls/internal/pyfixture/index"
)

// Resolver answers fixture queries against an Index.
type Resolver struct {
	idx *index.Index
}

// New returns a Resolver backed by idx.
func New(idx *index.Index) *Resolver {
	return &Resolver{idx: idx}
}

// FixtureNameAt implements Q1: the fixture name at (path, line, col), both
// 1-based line and 0-based column (internal convention; the facade
// converts from the editor-protocol's all-zero-based coordinates). The
// second return value reports whether the match came from a usage
// occurrence (a dependency/parameter reference) as opposed to a
// definition's own name — this distinguishes the two cursor positions in
// spec.md §8 scenario 3 (parameter vs. function name of a
// self-referencing fixture).
func (r *Resolver) FixtureNameAt(path string, line, col int) (name string, isUsage bool, ok bool) {
	path = r.idx.Canonicalize(path)
	file, found := r.idx.File(path)
	if !found {
		return "", false, false
	}
	lineText, found := lineAt(file.Content, line)
	if !found {
		return "", false, false
	}
	word, found := identifierAt(lineText, col)
	if !found {
		return "", false, false
	}

	for _, u := range r.idx.UsagesOf(word) {
		if u.FilePath == path && u.Line == line && withinRange(u.NameRange, col) {
			return word, true, true
		}
	}
	for _, d := range r.idx.Definitions(word) {
		if d.FilePath == path && d.Line == line && withinRange(d.NameRange, col) {
			return word, false, true
		}
	}
	return "", false, false
}

// ResolveDefinition implements Q2.
func (r *Resolver) ResolveDefinition(path string, line, col int) (index.FixtureDefinition, bool) {
	name, isUsage, ok := r.FixtureNameAt(path, line, col)
	if !ok {
		return index.FixtureDefinition{}, false
	}
	excludeLine := -1
	if isUsage {
		excludeLine = line
	}
	return r.resolveByLadder(path, name, excludeLine)
}

// resolveByLadder is the priority ladder shared by Q2 (resolve a cursor's
// fixture name) and the diagnostics engine (resolve a dependency anchored
// at a definition's own file). excludeLine, when >= 0, removes from every
// step of the ladder any definition at that exact (path, excludeLine, name)
// — the enclosing fixture of a usage can never be its own dependency's
// resolution, which is how self-referencing fixture overrides (spec.md
// §8 scenario 3) skip past themselves to the ancestor conftest.
func (r *Resolver) resolveByLadder(path, name string, excludeLine int) (index.FixtureDefinition, bool) {
	path = r.idx.Canonicalize(path)
	all := r.idx.Definitions(name)
	if len(all) == 0 {
		return index.FixtureDefinition{}, false
	}

	// A usage can never resolve to the very definition that contains it
	// (self-referencing fixture overrides skip past themselves to the
	// next ancestor, spec.md §8 scenario 3); this exclusion holds across
	// every step of the ladder, not just the same-file step, since the
	// excluded definition's own directory is revisited in step 2.
	var candidates []index.FixtureDefinition
	for _, d := range all {
		if excludeLine >= 0 && d.FilePath == path && d.Line == excludeLine {
			continue
		}
		candidates = append(candidates, d)
	}
	if len(candidates) == 0 {
		return index.FixtureDefinition{}, false
	}

	// 1. Same file, greatest line.
	var sameFile []index.FixtureDefinition
	for _, d := range candidates {
		if d.FilePath != path {
			continue
		}
		sameFile = append(sameFile, d)
	}
	if len(sameFile) > 0 {
		best := sameFile[0]
		for _, d := range sameFile[1:] {
			if d.Line > best.Line {
				best = d
			}
		}
		return best, true
	}

	// 2. Ancestor conftest.py, walking upward from path's directory.
	for dir := dirname(path); dir != ""; dir = dirname(dir) {
		conftest := joinPath(dir, "conftest.py")
		for _, d := range candidates {
			if r.idx.Canonicalize(d.FilePath) == r.idx.Canonicalize(conftest) {
				return d, true
			}
		}
		if dirname(dir) == dir {
			break
		}
	}

	// 3. Plugin or third-party, deterministic tiebreak.
	var thirdParty []index.FixtureDefinition
	for _, d := range candidates {
		if d.IsThirdParty || d.IsPlugin {
			thirdParty = append(thirdParty, d)
		}
	}
	if len(thirdParty) > 0 {
		sort.Slice(thirdParty, func(i, j int) bool {
			a, b := thirdParty[i], thirdParty[j]
			if a.IsThirdParty != b.IsThirdParty {
				return a.IsThirdParty
			}
			if a.IsPlugin != b.IsPlugin {
				return a.IsPlugin
			}
			if a.FilePath != b.FilePath {
				return a.FilePath < b.FilePath
			}
			return a.Line < b.Line
		})
		return thirdParty[0], true
	}

	// 4. Lexicographically smallest (file_path, line) among the rest.
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		return a.Line < b.Line
	})
	return candidates[0], true
}

// References implements Q3: every usage of D.Name whose own resolution
// (re-run through the same priority ladder) lands back on D.
func (r *Resolver) References(def index.FixtureDefinition) []index.FixtureUsage {
	var out []index.FixtureUsage
	for _, u := range r.idx.UsagesOf(def.Name) {
		resolved, ok := r.resolveByLadder(u.FilePath, u.Name, u.Line)
		if !ok {
			continue
		}
		if resolved.FilePath == def.FilePath && resolved.Line == def.Line && resolved.Name == def.Name {
			out = append(out, u)
		}
	}
	return out
}

// VisibleFixtures implements Q4: every name resolvable from file, each
// resolved to its priority-ladder winner, deduplicated by name, in a
// stable order (sorted by name, matching the deterministic tiebreak the
// ladder itself already requires).
func (r *Resolver) VisibleFixtures(path string) []index.FixtureDefinition {
	seen := make(map[string]bool)
	var names []string
	for _, d := range r.idx.AllDefinitions() {
		if !seen[d.Name] {
			seen[d.Name] = true
			names = append(names, d.Name)
		}
	}
	sort.Strings(names)

	var out []index.FixtureDefinition
	for _, name := range names {
		if def, ok := r.resolveByLadder(path, name, -1); ok {
			out = append(out, def)
		}
	}
	return out
}

// ResolveDependency resolves a fixture definition D's dependency d_i,
// anchored at D's own file and definition line (used by the diagnostics
// engine's scope-mismatch and cycle checks; spec.md §4.6).
func (r *Resolver) ResolveDependency(def index.FixtureDefinition, depName string) (index.FixtureDefinition, bool) {
	return r.resolveByLadder(def.FilePath, depName, def.Line)
}

// FilterByScope removes candidates whose scope is strictly narrower than
// the enclosing fixture's scope, the scope filter spec.md §4.5 requires
// completion consumers to apply on top of Q4/VisibleFixtures.
func FilterByScope(candidates []index.FixtureDefinition, enclosing index.Scope) []index.FixtureDefinition {
	var out []index.FixtureDefinition
	for _, c := range candidates {
		if c.Scope >= enclosing {
			out = append(out, c)
		}
	}
	return out
}

func lineAt(content string, line int) (string, bool) {
	if line < 1 {
		return "", false
	}
	lines := strings.Split(content, "\n")
	if line > len(lines) {
		return "", false
	}
	return lines[line-1], true
}

// identifierAt extracts the maximal run of identifier characters
// containing col, requiring the cursor to be ON an identifier character
// (not merely adjacent to one). Grounded on fixtures.rs's
// extract_word_at_position.
func identifierAt(line string, col int) (string, bool) {
	runes := []rune(line)
	if col < 0 || col >= len(runes) {
		return "", false
	}
	if !isIdentChar(runes[col]) {
		return "", false
	}
	start, end := col, col
	for start > 0 && isIdentChar(runes[start-1]) {
		start--
	}
	for end < len(runes)-1 && isIdentChar(runes[end+1]) {
		end++
	}
	return string(runes[start : end+1]), true
}

func isIdentChar(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func withinRange(rng index.Range, col int) bool {
	return col >= rng.StartChar && col < rng.EndChar
}

func dirname(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return ""
	}
	if idx == 0 {
		return "/"
	}
	return path[:idx]
}

func joinPath(dir, name string) string {
	if strings.HasSuffix(dir, "/") {
		return dir + name
	}
	return dir + "/" + name
}
