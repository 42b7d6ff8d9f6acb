// Package index is the concurrent knowledge base of fixture facts extracted
// from a workspace: definitions, usages, imports, and module-level names,
// keyed by canonical file path. It mirrors the record/map shape of the
// teacher's starlark query index, generalized to a sharded store (see
// shard.go) as required for safe concurrent scans.
package index

// Range is a half-open character range on a single source line.
type Range struct {
	StartChar int
	EndChar   int
}

// FixtureDefinition is an immutable record of one `@fixture`-decorated
// function, or fixture-by-assignment binding.
type FixtureDefinition struct {
	Name string

	// FilePath is the canonicalized absolute path of the defining file.
	FilePath string

	// Line is the 1-based source line of the function name (or the
	// assignment target for fixture-by-assignment definitions).
	Line int

	// EndLine is the 1-based last line of the function body.
	EndLine int

	// NameRange is the character range of the name on Line.
	NameRange Range

	// Docstring is the normalized docstring, or "" if absent.
	Docstring string

	// ReturnType is the declared return type annotation, with
	// generator/iterator wrapper types unwrapped to their argument.
	ReturnType string

	// Params lists the names this fixture depends on (parameter names,
	// excluding self/cls/request).
	Params []string

	Scope Scope

	// YieldLine is the 1-based line of a `yield` statement in the body, or
	// 0 if the fixture has no teardown phase.
	YieldLine int

	Autouse bool

	// IsPlugin is true when FilePath's package name matches the
	// framework's plugin-naming convention.
	IsPlugin bool

	// IsThirdParty is true when FilePath is inside the configured
	// virtual-environment's package directory.
	IsThirdParty bool
}

// FixtureUsage is an immutable record of a fixture name referenced as a
// test or fixture parameter, or via usefixtures/parametrize(indirect=...).
type FixtureUsage struct {
	Name string

	FilePath string

	// Line is the 1-based line of the *enclosing function's definition*,
	// not the reference's own line (the usage anchor, spec invariant).
	Line int

	NameRange Range
}

// UndeclaredCandidate is a free-name reference inside a function body that
// is not locally shadowed and is not a declared parameter, import, or
// module-level name.
type UndeclaredCandidate struct {
	Name string

	FilePath string

	// FunctionLine is the 1-based line of the enclosing function's
	// definition (the owning function, for diagnostic grouping).
	FunctionLine int

	// ReferenceLine is the 1-based line of the actual free-name reference.
	ReferenceLine int

	NameRange Range
}

// CycleRecord is an ordered list of fixture definitions forming a
// dependency cycle.
type CycleRecord struct {
	Definitions []FixtureDefinition
}

// ScopeMismatch pairs a consumer definition with a dependency whose scope
// is strictly narrower than the consumer's.
type ScopeMismatch struct {
	Consumer   FixtureDefinition
	Dependency FixtureDefinition
}

// fileRecord is the per-file contribution tracked so it can be replaced
// on re-analysis (remove-then-insert; see ReplaceFile for what a
// concurrent reader can observe mid-replacement).
type fileRecord struct {
	Path        string
	Content     string
	Definitions []FixtureDefinition
	Usages      []FixtureUsage
	Undeclared  []UndeclaredCandidate
	Imports     map[string]bool
	ModuleNames map[string]bool
}
