package diagnostics

// undeclaredFixtureCheck flags a bare name reference that is neither a
// declared parameter, an import, nor a module-level binding (the
// analyzer's raw candidate list), narrowed to names that actually name a
// fixture visible from this file — spec.md §4.6's "intersection of the
// per-file undeclared list and the Q4 visibility set". A name unrelated
// to any fixture (a genuine typo of a plain variable) is not this check's
// concern.
//
// The same (function, name) pair is reported at most once, at its
// earliest reference line: spec.md §8 scenario 5 requires a free-name
// read before a later local assignment in the same function to still
// produce exactly one diagnostic, not one per occurrence.
var undeclaredFixtureCheck = &Check{
	Name:     "undeclared-fixture",
	Category: "correctness",
	Run: func(p *Pass) []Diagnostic {
		file, ok := p.Idx.File(p.FilePath)
		if !ok || len(file.Undeclared) == 0 {
			return nil
		}

		visible := make(map[string]bool)
		for _, d := range p.Resolver.VisibleFixtures(p.FilePath) {
			visible[d.Name] = true
		}

		type key struct {
			functionLine int
			name         string
		}
		first := make(map[key]int)
		for _, u := range file.Undeclared {
			if !visible[u.Name] {
				continue
			}
			k := key{u.FunctionLine, u.Name}
			if existing, seen := first[k]; !seen || u.ReferenceLine < existing {
				first[k] = u.ReferenceLine
			}
		}

		var out []Diagnostic
		for _, u := range file.Undeclared {
			if !visible[u.Name] {
				continue
			}
			k := key{u.FunctionLine, u.Name}
			if first[k] != u.ReferenceLine {
				continue
			}
			delete(first, k) // emit once even if multiple refs share the earliest line
			out = append(out, Diagnostic{
				Severity:  SeverityWarning,
				Message:   "fixture \"" + u.Name + "\" is used but not declared as a parameter",
				FilePath:  p.FilePath,
				Line:      u.ReferenceLine,
				Column:    u.NameRange.StartChar,
				EndLine:   u.ReferenceLine,
				EndColumn: u.NameRange.EndChar,
				Code:      "undeclared-fixture",
			})
		}
		return out
	},
}
