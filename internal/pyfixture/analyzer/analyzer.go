// Package analyzer walks a parsed Python file's concrete syntax tree and
// extracts the facts the index package stores: fixture definitions,
// fixture usages, imports, module-level names, and undeclared-name
// candidates for the diagnostics engine.
//
// Grounded on _examples/original_source/src/fixtures.rs's visit_stmt /
// visit_assignment_fixture / is_fixture_decorator / extract_docstring,
// translated from rustpython_parser's typed AST onto the tree-sitter node
// shapes demonstrated in
// _examples/other_examples/.../parser.go.go (extractFunctions,
// processFunction, extractDecorators, extractImports).
package analyzer

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/pytestls/pytestls/internal/pyfixture/index"
	"github.com/pytestls/pytestls/internal/pyfixture/parser"
)

// excludedParamNames are never recorded as a fixture's own dependencies or
// as the usages derived from them (test functions use the narrower
// testExcludedParamNames below), mirroring _examples/original_source/src/providers/completion.rs's
// EXCLUDED_PARAM_NAMES and fixtures.rs's self/request exclusions.
var excludedParamNames = map[string]bool{
	"self":    true,
	"cls":     true,
	"request": true,
}

// testExcludedParamNames are never recorded as fixture usages on a test
// function, per spec.md's narrower exclusion there: unlike a fixture's own
// dependency list, a test function's `request` parameter still names the
// builtin `request` fixture and must be recorded as a usage.
var testExcludedParamNames = map[string]bool{
	"self": true,
	"cls":  true,
}

// Result is one file's complete extraction, ready for index.ReplaceFile.
type Result struct {
	Definitions []index.FixtureDefinition
	Usages      []index.FixtureUsage
	Undeclared  []index.UndeclaredCandidate
	Imports     map[string]bool
	ModuleNames map[string]bool
}

// Analyzer extracts fixture facts from Python source. It is stateless
// beyond its parser and IsPlugin/IsThirdParty classifier, so one Analyzer
// is shared across the scanner's worker pool.
type Analyzer struct {
	parser *parser.Parser

	// classify reports (isThirdParty, isPlugin) for a file path, driven by
	// the scanner's venv/plugin discovery (spec.md §4.4). Nil means
	// "never third-party, never plugin", used by tests and single-file
	// analysis where no workspace scan has run.
	classify func(filePath string) (isThirdParty, isPlugin bool)
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithClassifier installs the scanner's third-party/plugin classification
// function.
func WithClassifier(fn func(filePath string) (isThirdParty, isPlugin bool)) Option {
	return func(a *Analyzer) {
		a.classify = fn
	}
}

// New returns an Analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{parser: parser.New()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze parses content and extracts fixture facts for filePath. A syntax
// error in content does not abort extraction: the tree-sitter tree is
// error-tolerant, so whatever statements parsed cleanly are still walked.
// The returned bool reports whether the tree contained syntax errors; no
// diagnostic is produced for them.
func (a *Analyzer) Analyze(ctx context.Context, filePath string, content []byte) (Result, bool, error) {
	tree, err := a.parser.Parse(ctx, content)
	if err != nil {
		return Result{}, false, err
	}
	defer tree.Close()

	w := &walker{
		analyzer: a,
		filePath: filePath,
		source:   content,
		result: Result{
			Imports:     make(map[string]bool),
			ModuleNames: make(map[string]bool),
		},
	}
	w.walkModule(tree.Root())

	return w.result, tree.HasErrors, nil
}

type walker struct {
	analyzer *Analyzer
	filePath string
	source   []byte
	result   Result
}

func (w *walker) text(n *sitter.Node) string {
	return parser.NodeText(n, w.source)
}

func (w *walker) walkModule(root *sitter.Node) {
	if root == nil {
		return
	}
	for i := 0; i < int(root.ChildCount()); i++ {
		w.walkTopLevel(root.Child(i))
	}
}

func (w *walker) walkTopLevel(n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "import_statement", "import_from_statement":
		w.processImport(n)
	case "function_definition":
		w.processFunction(n, nil)
	case "decorated_definition":
		w.processDecorated(n)
	case "class_definition":
		w.processClass(n)
	case "expression_statement":
		w.processExpressionStatement(n)
	}
}

func (w *walker) processDecorated(n *sitter.Node) {
	decorators := extractDecoratorNodes(n)

	var def *sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.Type() == "function_definition" || c.Type() == "class_definition" {
			def = c
			break
		}
	}
	if def == nil {
		return
	}
	if def.Type() == "class_definition" {
		w.processClass(def)
		return
	}
	w.processFunction(def, decorators)
}

func (w *walker) processClass(n *sitter.Node) {
	w.result.ModuleNames[identifierChildName(n, w.source)] = true

	body := parser.ChildByType(n, "block")
	if body == nil {
		return
	}
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

func identifierChildName(n *sitter.Node, source []byte) string {
	id := parser.ChildByType(n, "identifier")
	return parser.NodeText(id, source)
}
