package diagnostics

import (
	"github.com/pytestls/pytestls/internal/pyfixture/index"
	"github.com/pytestls/pytestls/internal/pyfixture/resolver"
)

// Pass is the context a Check runs against: the file being diagnosed, plus
// the shared index and resolver for looking beyond that file (ancestor
// conftest.py fixtures, cross-file dependency cycles).
type Pass struct {
	FilePath string
	Idx      *index.Index
	Resolver *resolver.Resolver
}

// Engine computes diagnostics for one file at a time against a shared
// index, using whatever checks its Registry currently has enabled.
type Engine struct {
	idx      *index.Index
	resolver *resolver.Resolver
	registry *Registry
}

// New returns an Engine with every built-in check registered and enabled.
func New(idx *index.Index) *Engine {
	e := &Engine{
		idx:      idx,
		resolver: resolver.New(idx),
		registry: NewRegistry(),
	}
	e.registry.Register(
		undeclaredFixtureCheck,
		scopeMismatchCheck,
		dependencyCycleCheck,
	)
	return e
}

// Registry exposes the engine's check registry so callers can enable or
// disable checks (spec.md §6's enable_diagnostics config option toggles
// the whole engine; per-check toggles are an editor-side convenience this
// registry already supports).
func (e *Engine) Registry() *Registry { return e.registry }

// Diagnostics computes every enabled check's findings for path.
func (e *Engine) Diagnostics(path string) []Diagnostic {
	pass := &Pass{FilePath: path, Idx: e.idx, Resolver: e.resolver}
	var out []Diagnostic
	for _, check := range e.registry.Enabled() {
		out = append(out, check.Run(pass)...)
	}
	return out
}
