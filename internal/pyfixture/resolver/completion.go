package resolver

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/pytestls/pytestls/internal/pyfixture/analyzer"
	"github.com/pytestls/pytestls/internal/pyfixture/index"
	"github.com/pytestls/pytestls/internal/pyfixture/parser"
)

// CompletionKind classifies a cursor position for Q5, spec.md §4.5.
type CompletionKind int

const (
	ContextNone CompletionKind = iota
	ContextFunctionSignature
	ContextFunctionBody
	ContextUsefixturesDecorator
	ContextParametrizeIndirect
)

// CompletionContext is Q5's result: the classification of a cursor
// position, carrying enough of the enclosing function's shape for a
// completion consumer to apply the scope filter without a second parse.
type CompletionContext struct {
	Kind           CompletionKind
	FunctionName   string
	FunctionLine   int // defining line of the enclosing function; 0 outside FunctionBody
	IsFixture      bool
	DeclaredParams []string
	FixtureScope   *index.Scope // nil for a non-fixture enclosing function
}

// CompletionContext classifies the cursor at (line, col) in path, 1-based
// line and 0-based column like the rest of this package's Q-numbered
// methods. Returns ok=false if path is unknown to the index, content
// fails to parse, or the cursor isn't inside any of the four recognized
// contexts.
//
// Grounded on spec.md §4.5's four-way classification, reusing the
// analyzer package's decorator/parameter extraction (exported via
// analyzer/export.go) instead of re-deriving the fixture-marker decoding
// this package would otherwise duplicate.
func (r *Resolver) CompletionContext(ctx context.Context, path string, line, col int) (CompletionContext, bool) {
	file, ok := r.idx.File(path)
	if !ok {
		return CompletionContext{}, false
	}

	tree, err := parser.New().Parse(ctx, []byte(file.Content))
	if err != nil {
		return CompletionContext{}, false
	}
	defer tree.Close()

	row, column := uint32(line-1), uint32(col)
	target := deepestNodeAt(tree.Root(), row, column)
	if target == nil {
		return CompletionContext{}, false
	}

	source := []byte(file.Content)

	if dec := ancestorOfType(target, "decorator"); dec != nil {
		if cc, ok := decoratorCompletionContext(dec, row, column, source); ok {
			return cc, true
		}
	}

	fn := ancestorOfType(target, "function_definition")
	if fn == nil {
		return CompletionContext{}, false
	}

	name := analyzer.FunctionName(fn, source)
	declared := analyzer.DeclaredParamNames(fn, source)
	marker, isFixture := analyzer.FindFixtureDecorator(enclosingDecorators(fn), source)

	var scopePtr *index.Scope
	if isFixture {
		s := marker.Scope
		scopePtr = &s
	}

	params := parser.ChildByType(fn, "parameters")
	if params != nil && containsPoint(params, row, column) {
		return CompletionContext{
			Kind:           ContextFunctionSignature,
			FunctionName:   name,
			IsFixture:      isFixture,
			DeclaredParams: declared,
			FixtureScope:   scopePtr,
		}, true
	}

	body := parser.ChildByType(fn, "block")
	if body != nil && containsPoint(body, row, column) {
		return CompletionContext{
			Kind:           ContextFunctionBody,
			FunctionName:   name,
			FunctionLine:   parser.StartLine(fn),
			IsFixture:      isFixture,
			DeclaredParams: declared,
			FixtureScope:   scopePtr,
		}, true
	}

	return CompletionContext{}, false
}

// decoratorCompletionContext recognizes `@pytest.mark.usefixtures(...)`
// and `@pytest.mark.parametrize(..., indirect=[...])`, returning ok=false
// for any other decorator (including the fixture marker itself, which
// has no dedicated completion context of its own).
func decoratorCompletionContext(dec *sitter.Node, row, column uint32, source []byte) (CompletionContext, bool) {
	dottedName, argList, ok := analyzer.DecoratorCall(dec, source)
	if !ok || argList == nil || !containsPoint(argList, row, column) {
		return CompletionContext{}, false
	}

	fn := siblingFunctionDefinition(dec)
	var name string
	var line int
	if fn != nil {
		name = analyzer.FunctionName(fn, source)
		line = parser.StartLine(fn)
	}

	switch {
	case strings.HasSuffix(dottedName, "usefixtures"):
		return CompletionContext{Kind: ContextUsefixturesDecorator, FunctionName: name, FunctionLine: line}, true
	case strings.HasSuffix(dottedName, "parametrize"):
		indirect := analyzer.KeywordArgValue(argList, source, "indirect")
		if indirect == nil || !containsPoint(indirect, row, column) {
			return CompletionContext{}, false
		}
		return CompletionContext{Kind: ContextParametrizeIndirect, FunctionName: name, FunctionLine: line}, true
	}
	return CompletionContext{}, false
}

// enclosingDecorators returns fn's decorator siblings, if fn is the
// defining function of a decorated_definition node.
func enclosingDecorators(fn *sitter.Node) []*sitter.Node {
	parent := fn.Parent()
	if parent == nil || parent.Type() != "decorated_definition" {
		return nil
	}
	return analyzer.DecoratorNodes(parent)
}

// siblingFunctionDefinition returns the function_definition a decorator
// node precedes within its decorated_definition parent.
func siblingFunctionDefinition(dec *sitter.Node) *sitter.Node {
	parent := dec.Parent()
	if parent == nil {
		return nil
	}
	for i := 0; i < int(parent.ChildCount()); i++ {
		c := parent.Child(i)
		if c != nil && c.Type() == "function_definition" {
			return c
		}
	}
	return nil
}

// ancestorOfType walks n's Parent() chain, returning the nearest ancestor
// (inclusive of n) whose grammar type is typ, or nil.
func ancestorOfType(n *sitter.Node, typ string) *sitter.Node {
	for cur := n; cur != nil; cur = cur.Parent() {
		if cur.Type() == typ {
			return cur
		}
	}
	return nil
}

// containsPoint reports whether (row, column) lies within n's source
// range, inclusive of both endpoints.
func containsPoint(n *sitter.Node, row, column uint32) bool {
	if n == nil {
		return false
	}
	start, end := n.StartPoint(), n.EndPoint()
	if row < start.Row || row > end.Row {
		return false
	}
	if row == start.Row && column < start.Column {
		return false
	}
	if row == end.Row && column > end.Column {
		return false
	}
	return true
}

// deepestNodeAt returns the most specific descendant of n containing
// (row, column), or nil if n itself does not.
func deepestNodeAt(n *sitter.Node, row, column uint32) *sitter.Node {
	if !containsPoint(n, row, column) {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c != nil && containsPoint(c, row, column) {
			if d := deepestNodeAt(c, row, column); d != nil {
				return d
			}
		}
	}
	return n
}
