package analyzer

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/pytestls/pytestls/internal/pyfixture/index"
	"github.com/pytestls/pytestls/internal/pyfixture/parser"
)

// pythonBuiltins holds the handful of builtins referenced often enough in
// test/fixture bodies that flagging them would drown real findings in
// noise. This is intentionally small: the diagnostics engine's job is to
// flag names that are neither a parameter, an import, nor a module-level
// binding, not to re-implement Python's full builtin namespace.
var pythonBuiltins = map[string]bool{
	"True": true, "False": true, "None": true,
	"self": true, "cls": true,
	"print": true, "len": true, "range": true, "isinstance": true,
	"str": true, "int": true, "float": true, "bool": true, "list": true,
	"dict": true, "set": true, "tuple": true, "super": true,
}

// scanUndeclared walks fn's body for bare-name references that are neither
// a declared parameter, an import, nor a module-level binding, and whose
// first local binding in the body (if any) does not precede the reference.
// spec.md §4.2 requires a per-scope line-indexed table mapping each bound
// name to the first source line at which it becomes local: a reference is
// flagged undeclared unless it resolves to a parameter, an import, a
// module-level binding, or a local whose first binding line is less than or
// equal to the reference line. A name assigned only *after* the reference
// (e.g. read on line 3, assigned on line 5) still gets flagged, even though
// the same name is bound later in the same function.
func (w *walker) scanUndeclared(fn, body *sitter.Node, params []string) {
	if body == nil {
		return
	}
	locals := collectLocalBindings(body, w.source)
	for _, p := range params {
		locals[p] = 0
	}

	fnLine := parser.StartLine(fn)
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "function_definition", "lambda", "class_definition":
			return
		case "identifier":
			name := w.text(n)
			refLine := parser.StartLine(n)
			if bindLine, ok := locals[name]; ok && bindLine <= refLine {
				return
			}
			if w.result.Imports[name] || w.result.Imports["*"] ||
				w.result.ModuleNames[name] || pythonBuiltins[name] || excludedParamNames[name] {
				return
			}
			w.result.Undeclared = append(w.result.Undeclared, index.UndeclaredCandidate{
				Name:          name,
				FilePath:      w.filePath,
				FunctionLine:  fnLine,
				ReferenceLine: refLine,
				NameRange:     index.Range{StartChar: parser.StartColumn(n), EndChar: parser.EndColumn(n)},
			})
		default:
			for i := 0; i < int(n.ChildCount()); i++ {
				walk(n.Child(i))
			}
		}
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		walk(body.Child(i))
	}
}

// collectLocalBindings finds every identifier assigned anywhere in body
// (assignment targets, for-loop targets, with-statement targets, except
// clause names) and records the first source line at which each becomes
// local, without descending into nested function/class scopes. A name's
// first-binding line governs only references at or after that line;
// earlier references are unaffected by a binding that has not happened yet.
func collectLocalBindings(body *sitter.Node, source []byte) map[string]int {
	locals := make(map[string]int)
	bind := func(names []string, line int) {
		for _, name := range names {
			if existing, ok := locals[name]; !ok || line < existing {
				locals[name] = line
			}
		}
	}
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "function_definition", "lambda", "class_definition":
			return
		case "assignment", "augmented_assignment":
			left := n.ChildByFieldName("left")
			if left == nil {
				left = n.Child(0)
			}
			bind(assignmentTargetNames(left, source), parser.StartLine(n))
		case "for_statement":
			lhs := n.ChildByFieldName("left")
			bind(assignmentTargetNames(lhs, source), parser.StartLine(n))
		case "with_item":
			if alias := n.ChildByFieldName("alias"); alias != nil {
				bind(assignmentTargetNames(alias, source), parser.StartLine(n))
			}
		case "except_clause":
			if id := parser.ChildByType(n, "identifier"); id != nil && int(n.ChildCount()) > 1 {
				bind([]string{parser.NodeText(id, source)}, parser.StartLine(n))
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(body)
	return locals
}
