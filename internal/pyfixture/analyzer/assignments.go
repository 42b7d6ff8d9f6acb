package analyzer

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/pytestls/pytestls/internal/pyfixture/index"
	"github.com/pytestls/pytestls/internal/pyfixture/parser"
)

// processExpressionStatement handles module-level `expression_statement`
// nodes, the only shape that wraps a top-level assignment in the Python
// grammar. It records the fixture-by-assignment pattern
// `name = fixture(...)(func)` as a definition, and otherwise records every
// assignment target as a module-level name.
func (w *walker) processExpressionStatement(n *sitter.Node) {
	if n.ChildCount() == 0 {
		return
	}
	assign := n.Child(0)
	if assign.Type() != "assignment" {
		return
	}

	left := assign.ChildByFieldName("left")
	if left == nil {
		left = assign.Child(0)
	}
	right := assign.ChildByFieldName("right")
	if right == nil && int(assign.ChildCount()) >= 3 {
		right = assign.Child(int(assign.ChildCount()) - 1)
	}

	if right != nil && right.Type() == "call" {
		if def, ok := fixtureByAssignment(left, right, w.filePath, w.source); ok {
			if w.analyzer.classify != nil {
				def.IsThirdParty, def.IsPlugin = w.analyzer.classify(w.filePath)
			}
			w.result.Definitions = append(w.result.Definitions, def)
			return
		}
	}

	for _, name := range assignmentTargetNames(left, w.source) {
		w.result.ModuleNames[name] = true
	}
}

// fixtureByAssignment decodes `name = fixture(...)(some_func)` or
// `name = pytest.fixture(...)(some_func)`: the outer call's callee must
// itself be a call to the fixture decorator. Grounded on
// _examples/original_source/src/fixtures.rs's visit_assignment_fixture.
func fixtureByAssignment(target, outerCall *sitter.Node, filePath string, source []byte) (index.FixtureDefinition, bool) {
	inner := outerCall.Child(0)
	if inner == nil || inner.Type() != "call" {
		return index.FixtureDefinition{}, false
	}
	callee := inner.Child(0)
	if callee == nil || !isFixtureCallee(callee, source) {
		return index.FixtureDefinition{}, false
	}
	if target == nil || target.Type() != "identifier" {
		return index.FixtureDefinition{}, false
	}

	marker := fixtureMarker{scope: index.ScopeFunction}
	args := parser.ChildByType(inner, "argument_list")
	for _, kw := range keywordArgs(args, source) {
		switch kw.name {
		case "scope":
			marker.scope = index.ParseScope(stringArgValue(kw.value, source))
		case "autouse":
			marker.autouse = boolArgValue(kw.value, source)
		}
	}

	return index.FixtureDefinition{
		Name:      parser.NodeText(target, source),
		FilePath:  filePath,
		Line:      parser.StartLine(target),
		EndLine:   parser.EndLine(target),
		NameRange: index.Range{StartChar: parser.StartColumn(target), EndChar: parser.EndColumn(target)},
		Scope:     marker.scope,
		Autouse:   marker.autouse,
	}, true
}

// assignmentTargetNames returns every bound name on the left-hand side of
// an assignment, unpacking tuple/list patterns one level deep.
func assignmentTargetNames(target *sitter.Node, source []byte) []string {
	if target == nil {
		return nil
	}
	switch target.Type() {
	case "identifier":
		return []string{parser.NodeText(target, source)}
	case "pattern_list", "tuple_pattern", "list_pattern":
		var out []string
		for i := 0; i < int(target.ChildCount()); i++ {
			out = append(out, assignmentTargetNames(target.Child(i), source)...)
		}
		return out
	}
	return nil
}
