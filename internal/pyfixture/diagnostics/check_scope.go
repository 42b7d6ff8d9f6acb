package diagnostics

import "github.com/pytestls/pytestls/internal/pyfixture/index"

// scopeMismatchCheck flags a fixture depending on another fixture whose
// scope is strictly narrower than its own (a session-scoped fixture
// cannot depend on a function-scoped one: the dependency would be torn
// down and rebuilt far more often than its consumer, violating the
// consumer's own lifetime guarantee). Each dependency is resolved via the
// same priority ladder Q2 uses, anchored at the consumer's own file and
// definition line, per spec.md §4.6.
var scopeMismatchCheck = &Check{
	Name:     "scope-mismatch",
	Category: "correctness",
	Run: func(p *Pass) []Diagnostic {
		var out []Diagnostic
		for _, def := range p.Idx.AllDefinitions() {
			if def.FilePath != p.FilePath {
				continue
			}
			for _, depName := range def.Params {
				dep, ok := p.Resolver.ResolveDependency(def, depName)
				if !ok {
					continue
				}
				if dep.Scope < def.Scope {
					out = append(out, scopeMismatchDiagnostic(def, dep))
				}
			}
		}
		return out
	},
}

func scopeMismatchDiagnostic(consumer, dependency index.FixtureDefinition) Diagnostic {
	return Diagnostic{
		Severity: SeverityWarning,
		Message: "fixture \"" + consumer.Name + "\" (scope=" + consumer.Scope.String() +
			") depends on \"" + dependency.Name + "\" (scope=" + dependency.Scope.String() + "), a narrower scope",
		FilePath:  consumer.FilePath,
		Line:      consumer.Line,
		Column:    consumer.NameRange.StartChar,
		EndLine:   consumer.Line,
		EndColumn: consumer.NameRange.EndChar,
		Code:      "scope-mismatch",
	}
}
