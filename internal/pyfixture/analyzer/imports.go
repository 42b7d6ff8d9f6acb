package analyzer

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// processImport records every name a top-level import statement binds
// into scope, so the undeclared-name scan never flags an imported symbol.
// Grounded on
// _examples/other_examples/.../parser.go.go's processImportStatement /
// processImportFromStatement node-walking shape, simplified to name
// collection only (no Import-struct bookkeeping; this spec has no
// module-graph consumer for import paths beyond the binding itself).
func (w *walker) processImport(n *sitter.Node) {
	switch n.Type() {
	case "import_statement":
		for i := 0; i < int(n.ChildCount()); i++ {
			c := n.Child(i)
			switch c.Type() {
			case "dotted_name":
				w.bindImportedName(c)
			case "aliased_import":
				w.bindAliasedImport(c)
			}
		}
	case "import_from_statement":
		sawImport := false
		for i := 0; i < int(n.ChildCount()); i++ {
			c := n.Child(i)
			switch c.Type() {
			case "import":
				sawImport = true
			case "wildcard_import":
				// `from x import *`: every name becomes ambiguously bound;
				// treated as importing everything, so the undeclared scan
				// is disabled for this file's module scope by recording a
				// sentinel marker.
				w.result.Imports["*"] = true
			case "dotted_name":
				if sawImport {
					w.bindImportedName(c)
				}
			case "identifier":
				if sawImport {
					w.result.Imports[w.text(c)] = true
					w.result.ModuleNames[w.text(c)] = true
				}
			case "aliased_import":
				w.bindAliasedImport(c)
			}
		}
	}
}

func (w *walker) bindImportedName(dottedName *sitter.Node) {
	full := w.text(dottedName)
	name := full
	if idx := lastDot(full); idx >= 0 {
		name = full[:firstDot(full)]
	}
	w.result.Imports[name] = true
	w.result.ModuleNames[name] = true
}

func (w *walker) bindAliasedImport(aliased *sitter.Node) {
	var alias, dotted string
	for i := 0; i < int(aliased.ChildCount()); i++ {
		c := aliased.Child(i)
		switch c.Type() {
		case "dotted_name":
			dotted = w.text(c)
		case "identifier":
			alias = w.text(c)
		}
	}
	name := alias
	if name == "" {
		name = dotted
	}
	if name != "" {
		w.result.Imports[name] = true
		w.result.ModuleNames[name] = true
	}
}

func firstDot(s string) int {
	for i, r := range s {
		if r == '.' {
			return i
		}
	}
	return len(s)
}

func lastDot(s string) int {
	idx := -1
	for i, r := range s {
		if r == '.' {
			idx = i
		}
	}
	return idx
}
