package analyzer

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/pytestls/pytestls/internal/pyfixture/index"
	"github.com/pytestls/pytestls/internal/pyfixture/parser"
)

// fixtureMarker is the decoded `@fixture`/`@pytest.fixture(...)` call,
// covering the bare-name, attribute, and call forms described in
// spec.md §4.2 and demonstrated by
// _examples/original_source/src/fixtures.rs's is_fixture_decorator.
type fixtureMarker struct {
	scope   index.Scope
	autouse bool
}

// extractDecoratorNodes returns every `decorator` child of a
// decorated_definition node, in source order.
func extractDecoratorNodes(decorated *sitter.Node) []*sitter.Node {
	return parser.ChildrenByType(decorated, "decorator")
}

// findFixtureDecorator scans decorators for a fixture marker and decodes
// its scope=/autouse= keyword arguments, if any. The second return value
// reports whether a fixture marker was present at all.
func findFixtureDecorator(decorators []*sitter.Node, source []byte) (fixtureMarker, bool) {
	for _, dec := range decorators {
		target := decoratorTarget(dec)
		if target == nil {
			continue
		}
		if !isFixtureCallee(target, source) {
			continue
		}
		marker := fixtureMarker{scope: index.ScopeFunction}
		if call := asCall(target); call != nil {
			args := parser.ChildByType(call, "argument_list")
			for _, kw := range keywordArgs(args, source) {
				switch kw.name {
				case "scope":
					marker.scope = index.ParseScope(stringArgValue(kw.value, source))
				case "autouse":
					marker.autouse = boolArgValue(kw.value, source)
				}
			}
		}
		return marker, true
	}
	return fixtureMarker{}, false
}

// decoratorTarget returns the expression a `decorator` node wraps: the
// bare identifier/attribute, or the call expression for `@foo(...)` forms.
func decoratorTarget(dec *sitter.Node) *sitter.Node {
	for i := 0; i < int(dec.ChildCount()); i++ {
		c := dec.Child(i)
		switch c.Type() {
		case "identifier", "attribute", "call":
			return c
		}
	}
	return nil
}

func asCall(n *sitter.Node) *sitter.Node {
	if n.Type() == "call" {
		return n
	}
	return nil
}

// isFixtureCallee reports whether n (an identifier, attribute, or call
// node) ultimately names `fixture` or `pytest.fixture`, unwrapping call
// wrappers as fixtures.rs's is_fixture_decorator does recursively.
func isFixtureCallee(n *sitter.Node, source []byte) bool {
	switch n.Type() {
	case "identifier":
		return parser.NodeText(n, source) == "fixture"
	case "attribute":
		obj := n.Child(0)
		attr := attributeName(n, source)
		return obj != nil && obj.Type() == "identifier" &&
			parser.NodeText(obj, source) == "pytest" && attr == "fixture"
	case "call":
		fn := parser.ChildByType(n, "identifier")
		if fn == nil {
			fn = parser.ChildByType(n, "attribute")
		}
		if fn == nil {
			return false
		}
		return isFixtureCallee(fn, source)
	}
	return false
}

func attributeName(attr *sitter.Node, source []byte) string {
	id := parser.ChildByType(attr, "identifier")
	if id == nil {
		return ""
	}
	// The attribute node's last identifier child is the member name; the
	// first is the object (pytest). With two identifier children we want
	// the second.
	ids := parser.ChildrenByType(attr, "identifier")
	if len(ids) == 0 {
		return ""
	}
	return parser.NodeText(ids[len(ids)-1], source)
}

type keywordArg struct {
	name  string
	value *sitter.Node
}

func keywordArgs(argList *sitter.Node, source []byte) []keywordArg {
	if argList == nil {
		return nil
	}
	var out []keywordArg
	for i := 0; i < int(argList.ChildCount()); i++ {
		c := argList.Child(i)
		if c.Type() != "keyword_argument" {
			continue
		}
		name := parser.ChildByType(c, "identifier")
		if name == nil || int(c.ChildCount()) < 2 {
			continue
		}
		out = append(out, keywordArg{
			name:  parser.NodeText(name, source),
			value: c.Child(int(c.ChildCount()) - 1),
		})
	}
	return out
}

func stringArgValue(n *sitter.Node, source []byte) string {
	if n == nil || n.Type() != "string" {
		return ""
	}
	return stringLiteralContent(n, source)
}

func boolArgValue(n *sitter.Node, source []byte) bool {
	if n == nil {
		return false
	}
	return parser.NodeText(n, source) == "True"
}

// markerUsages decodes `@pytest.mark.usefixtures(...)` decorators into
// usage records anchored at the decorated function's definition line, and
// `@pytest.mark.parametrize(..., indirect=[...])` into usages for the
// indirect parameter names (spec.md §4.2).
func markerUsages(decorators []*sitter.Node, source []byte, anchorLine int) []index.FixtureUsage {
	var out []index.FixtureUsage
	for _, dec := range decorators {
		target := decoratorTarget(dec)
		call := asCall(target)
		if call == nil {
			continue
		}
		name := decoratorDottedName(call, source)
		args := parser.ChildByType(call, "argument_list")

		switch {
		case strings.HasSuffix(name, "usefixtures"):
			for _, s := range positionalStringArgs(args, source) {
				out = append(out, index.FixtureUsage{Name: s, Line: anchorLine})
			}
		case strings.HasSuffix(name, "parametrize"):
			for _, kw := range keywordArgs(args, source) {
				if kw.name != "indirect" {
					continue
				}
				for _, s := range stringListValues(kw.value, source) {
					out = append(out, index.FixtureUsage{Name: s, Line: anchorLine})
				}
			}
		}
	}
	return out
}

func decoratorDottedName(call *sitter.Node, source []byte) string {
	fn := parser.ChildByType(call, "attribute")
	if fn == nil {
		fn = parser.ChildByType(call, "identifier")
	}
	return parser.NodeText(fn, source)
}

func positionalStringArgs(argList *sitter.Node, source []byte) []string {
	if argList == nil {
		return nil
	}
	var out []string
	for i := 0; i < int(argList.ChildCount()); i++ {
		c := argList.Child(i)
		if c.Type() == "string" {
			out = append(out, stringLiteralContent(c, source))
		}
	}
	return out
}

func stringListValues(n *sitter.Node, source []byte) []string {
	if n == nil {
		return nil
	}
	var out []string
	switch n.Type() {
	case "string":
		out = append(out, stringLiteralContent(n, source))
	case "list", "tuple":
		for i := 0; i < int(n.ChildCount()); i++ {
			c := n.Child(i)
			if c.Type() == "string" {
				out = append(out, stringLiteralContent(c, source))
			}
		}
	}
	return out
}
