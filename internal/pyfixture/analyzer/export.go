package analyzer

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/pytestls/pytestls/internal/pyfixture/index"
	"github.com/pytestls/pytestls/internal/pyfixture/parser"
)

// FixtureMarker is the exported form of fixtureMarker, for callers outside
// this package (the resolver's completion-context classification, Q5)
// that need the same decorator decoding this package uses internally
// without re-parsing it themselves.
type FixtureMarker struct {
	Scope   index.Scope
	Autouse bool
}

// DecoratorNodes returns every `decorator` child of a decorated_definition
// node, in source order.
func DecoratorNodes(decorated *sitter.Node) []*sitter.Node {
	return extractDecoratorNodes(decorated)
}

// FindFixtureDecorator scans decorators for a fixture marker, decoding its
// scope=/autouse= keyword arguments if present.
func FindFixtureDecorator(decorators []*sitter.Node, source []byte) (FixtureMarker, bool) {
	m, ok := findFixtureDecorator(decorators, source)
	return FixtureMarker{Scope: m.scope, Autouse: m.autouse}, ok
}

// FunctionName returns a function_definition node's declared name.
func FunctionName(fn *sitter.Node, source []byte) string {
	return identifierChildName(fn, source)
}

// DeclaredParamNames returns every parameter name declared on a
// function_definition's parameter list, in declaration order, including
// self/cls/request.
func DeclaredParamNames(fn *sitter.Node, source []byte) []string {
	return paramNames(extractParams(fn, source))
}

// DecoratorCall returns a `decorator` node's dotted callee name (e.g.
// "pytest.mark.usefixtures") and its argument list, when the decorator is
// a call expression. ok is false for bare-name/attribute decorators with
// no call.
func DecoratorCall(dec *sitter.Node, source []byte) (dottedName string, argList *sitter.Node, ok bool) {
	target := decoratorTarget(dec)
	call := asCall(target)
	if call == nil {
		return "", nil, false
	}
	return decoratorDottedName(call, source), parser.ChildByType(call, "argument_list"), true
}

// PositionalStringArgs returns the string-literal contents of every
// positional argument in argList, in order.
func PositionalStringArgs(argList *sitter.Node, source []byte) []string {
	return positionalStringArgs(argList, source)
}

// KeywordArgValue returns the value node of argList's keyword argument
// named key, or nil if absent.
func KeywordArgValue(argList *sitter.Node, source []byte, key string) *sitter.Node {
	for _, kw := range keywordArgs(argList, source) {
		if kw.name == key {
			return kw.value
		}
	}
	return nil
}

// StringListValues returns the string-literal contents of a list/tuple
// literal's elements (used to decode indirect=[...] arguments).
func StringListValues(n *sitter.Node, source []byte) []string {
	return stringListValues(n, source)
}
