// Package diagnostics computes the three non-fatal diagnostic kinds
// spec.md §4.6 defines over the fixture index: undeclared fixture usage,
// scope mismatch, and dependency cycles. All three are computed lazily,
// per file, on demand — there is no persisted diagnostic store.
//
// Grounded on internal/starlark/linter's Registry/Rule (enable/disable by
// name, category, or glob) and internal/starlark/validator's
// Runner/Diagnostic shape, adapted into a single package since this
// domain has no file-kind axis to split across two packages, and no
// horizontal rule-to-rule Requires dependency (the three checks are
// independent).
package diagnostics

// Severity mirrors the editor-protocol's DiagnosticSeverity ordering.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	case SeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}

// Diagnostic is one finding anchored at a file/line/column.
type Diagnostic struct {
	Severity  Severity
	Message   string
	FilePath  string
	Line      int
	Column    int
	EndLine   int
	EndColumn int

	// Code identifies which check produced this diagnostic:
	// "undeclared-fixture", "scope-mismatch", or "dependency-cycle".
	Code string
}
