package analyzer

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/pytestls/pytestls/internal/pyfixture/index"
	"github.com/pytestls/pytestls/internal/pyfixture/parser"
)

// processFunction handles both `def` and `async def` function_definition
// nodes, whether top-level, nested in a class body, or unwrapped from a
// decorated_definition by the caller. decorators is nil for undecorated
// functions.
func (w *walker) processFunction(n *sitter.Node, decorators []*sitter.Node) {
	name := identifierChildName(n, w.source)
	if name == "" {
		return
	}
	fixtureMarker, isFixture := findFixtureDecorator(decorators, w.source)
	if !isFixture {
		w.result.ModuleNames[name] = true
	}
	line := parser.StartLine(n)

	params := extractParams(n, w.source)
	depParams := filterDependencyParams(params)
	body := parser.ChildByType(n, "block")

	if isFixture {
		def := index.FixtureDefinition{
			Name:       name,
			FilePath:   w.filePath,
			Line:       line,
			EndLine:    parser.EndLine(n),
			NameRange:  identifierRange(n, w.source),
			Docstring:  extractDocstring(body, w.source),
			ReturnType: unwrapGeneratorType(returnTypeAnnotation(n, w.source)),
			Params:     paramNames(depParams),
			Scope:      fixtureMarker.scope,
			YieldLine:  findYieldLine(body),
			Autouse:    fixtureMarker.autouse,
		}
		if w.analyzer.classify != nil {
			def.IsThirdParty, def.IsPlugin = w.analyzer.classify(w.filePath)
		}
		w.result.Definitions = append(w.result.Definitions, def)

		for _, p := range depParams {
			w.result.Usages = append(w.result.Usages, index.FixtureUsage{
				Name:      p.Name,
				FilePath:  w.filePath,
				Line:      line,
				NameRange: p.Range,
			})
		}
	}

	if strings.HasPrefix(name, "test_") {
		for _, p := range filterTestDependencyParams(params) {
			w.result.Usages = append(w.result.Usages, index.FixtureUsage{
				Name:      p.Name,
				FilePath:  w.filePath,
				Line:      line,
				NameRange: p.Range,
			})
		}
	}

	w.result.Usages = append(w.result.Usages, markerUsages(decorators, w.source, line)...)

	w.scanUndeclared(n, body, paramNames(params))

	// Nested function definitions (local helpers, not fixtures themselves)
	// still contribute their own names and markers.
	if body != nil {
		for i := 0; i < int(body.ChildCount()); i++ {
			c := body.Child(i)
			switch c.Type() {
			case "function_definition":
				w.processFunction(c, nil)
			case "decorated_definition":
				w.processDecorated(c)
			}
		}
	}
}

// paramInfo is a declared parameter's name and the character range of its
// identifier token, so usages derived from it can be matched back to an
// exact cursor column (Q1's self-referencing-fixture disambiguation,
// spec.md §8 scenario 3).
type paramInfo struct {
	Name  string
	Range index.Range
}

// extractParams returns every parameter declared on a function_definition's
// `parameters` node, in declaration order, including self/cls/request so
// callers can apply their own filter.
func extractParams(fn *sitter.Node, source []byte) []paramInfo {
	params := parser.ChildByType(fn, "parameters")
	if params == nil {
		return nil
	}
	var out []paramInfo
	add := func(id *sitter.Node) {
		if id == nil {
			return
		}
		out = append(out, paramInfo{
			Name:  parser.NodeText(id, source),
			Range: index.Range{StartChar: parser.StartColumn(id), EndChar: parser.EndColumn(id)},
		})
	}
	for i := 0; i < int(params.ChildCount()); i++ {
		c := params.Child(i)
		switch c.Type() {
		case "identifier":
			add(c)
		case "typed_parameter", "default_parameter", "typed_default_parameter":
			add(parser.ChildByType(c, "identifier"))
		case "list_splat_pattern", "dictionary_splat_pattern":
			add(parser.ChildByType(c, "identifier"))
		}
	}
	return out
}

// filterDependencyParams drops self/cls/request, the framework's injected
// parameters that never name a fixture.
func filterDependencyParams(params []paramInfo) []paramInfo {
	var out []paramInfo
	for _, p := range params {
		if !excludedParamNames[p.Name] {
			out = append(out, p)
		}
	}
	return out
}

// filterTestDependencyParams drops self/cls only: a test function's request
// parameter still names pytest's builtin request fixture, unlike a fixture's
// own dependency list.
func filterTestDependencyParams(params []paramInfo) []paramInfo {
	var out []paramInfo
	for _, p := range params {
		if !testExcludedParamNames[p.Name] {
			out = append(out, p)
		}
	}
	return out
}

func paramNames(params []paramInfo) []string {
	var out []string
	for _, p := range params {
		out = append(out, p.Name)
	}
	return out
}

func returnTypeAnnotation(fn *sitter.Node, source []byte) string {
	t := parser.ChildByType(fn, "type")
	return parser.NodeText(t, source)
}

// unwrapGeneratorType strips a Generator/Iterator/AsyncGenerator/
// AsyncIterator wrapper to its yielded-value argument, so a fixture
// annotated `-> Generator[Connection, None, None]` reports `Connection`
// as its effective return type (spec.md §4.2).
func unwrapGeneratorType(annotation string) string {
	wrappers := []string{"Generator", "Iterator", "AsyncGenerator", "AsyncIterator"}
	for _, w := range wrappers {
		prefix := w + "["
		if strings.HasPrefix(annotation, prefix) && strings.HasSuffix(annotation, "]") {
			inner := annotation[len(prefix) : len(annotation)-1]
			if idx := strings.Index(inner, ","); idx >= 0 {
				return strings.TrimSpace(inner[:idx])
			}
			return strings.TrimSpace(inner)
		}
	}
	return annotation
}

// extractDocstring returns the normalized first statement of body if it is
// a bare string expression, matching fixtures.rs's extract_docstring +
// format_docstring (a cleandoc-style dedent).
func extractDocstring(body *sitter.Node, source []byte) string {
	if body == nil || body.ChildCount() == 0 {
		return ""
	}
	first := body.Child(0)
	if first.Type() != "expression_statement" || first.ChildCount() == 0 {
		return ""
	}
	str := first.Child(0)
	if str.Type() != "string" {
		return ""
	}
	return formatDocstring(stringLiteralContent(str, source))
}

// stringLiteralContent strips the outer quotes (including triple-quote
// variants) from a `string` node's text.
func stringLiteralContent(n *sitter.Node, source []byte) string {
	text := parser.NodeText(n, source)
	for _, q := range []string{`"""`, `'''`} {
		if strings.HasPrefix(text, q) && strings.HasSuffix(text, q) && len(text) >= 2*len(q) {
			return text[len(q) : len(text)-len(q)]
		}
	}
	for _, q := range []string{`"`, `'`} {
		if strings.HasPrefix(text, q) && strings.HasSuffix(text, q) && len(text) >= 2*len(q) {
			return text[len(q) : len(text)-len(q)]
		}
	}
	return text
}

// formatDocstring mirrors Python's inspect.cleandoc: strip blank edges and
// remove the minimum common indentation from every line but the first.
func formatDocstring(doc string) string {
	lines := strings.Split(doc, "\n")
	start, end := 0, len(lines)
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	if start >= end {
		return ""
	}
	lines = lines[start:end]

	minIndent := -1
	for i, line := range lines {
		if i == 0 && strings.TrimSpace(line) != "" {
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if minIndent == -1 || indent < minIndent {
			minIndent = indent
		}
	}
	if minIndent == -1 {
		minIndent = 0
	}

	out := make([]string, len(lines))
	for i, line := range lines {
		switch {
		case i == 0:
			out[i] = strings.TrimSpace(line)
		case strings.TrimSpace(line) == "":
			out[i] = ""
		case len(line) > minIndent:
			out[i] = line[minIndent:]
		default:
			out[i] = strings.TrimLeft(line, " \t")
		}
	}
	return strings.Join(out, "\n")
}

// findYieldLine returns the 1-based line of the first top-level `yield`
// expression inside body, or 0 if none is found. Only a direct yield
// signals a fixture's teardown phase; a yield nested inside a further-
// nested function belongs to that function instead.
func findYieldLine(body *sitter.Node) int {
	if body == nil {
		return 0
	}
	var found int
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil || found != 0 {
			return
		}
		switch n.Type() {
		case "function_definition", "lambda":
			return
		case "yield":
			found = parser.StartLine(n)
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
			if found != 0 {
				return
			}
		}
	}
	walk(body)
	return found
}

func identifierRange(fn *sitter.Node, source []byte) index.Range {
	id := parser.ChildByType(fn, "identifier")
	if id == nil {
		return index.Range{}
	}
	return index.Range{StartChar: parser.StartColumn(id), EndChar: parser.EndColumn(id)}
}
