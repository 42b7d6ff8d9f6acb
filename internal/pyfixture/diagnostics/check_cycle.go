package diagnostics

import (
	"strconv"

	"github.com/pytestls/pytestls/internal/pyfixture/index"
)

// dependencyCycleCheck detects mutually-dependent fixtures. The graph's
// edges are definition -> resolve(dependency name), not definition ->
// dependency name (spec.md §9): a name only contributes a cycle edge once
// it is actually resolved through the same priority ladder Q2 uses, so an
// unresolvable dependency name never fabricates a phantom edge.
//
// Detection is a three-color DFS over the whole index (cycles can span
// files), grounded on internal/starlark/query/index/graph.go's
// DetectCycles, generalized from load-graph nodes to fixture-definition
// nodes. One diagnostic is emitted per elementary cycle, at each
// participating definition that belongs to the file being diagnosed.
var dependencyCycleCheck = &Check{
	Name:     "dependency-cycle",
	Category: "correctness",
	Run: func(p *Pass) []Diagnostic {
		nodes := make(map[string]index.FixtureDefinition)
		edges := make(map[string][]string)

		all := p.Idx.AllDefinitions()
		for _, def := range all {
			key := defKey(def)
			nodes[key] = def
			for _, depName := range def.Params {
				dep, ok := p.Resolver.ResolveDependency(def, depName)
				if !ok {
					continue
				}
				edges[key] = append(edges[key], defKey(dep))
			}
		}

		cycles := detectCycles(nodes, edges)

		var out []Diagnostic
		for _, cycle := range cycles {
			// cycle is closed (first and last entries equal); drop the
			// duplicate closing entry so each participant is reported once.
			for _, key := range cycle[:len(cycle)-1] {
				def := nodes[key]
				if def.FilePath != p.FilePath {
					continue
				}
				out = append(out, Diagnostic{
					Severity:  SeverityError,
					Message:   "fixture \"" + def.Name + "\" is part of a dependency cycle",
					FilePath:  def.FilePath,
					Line:      def.Line,
					Column:    def.NameRange.StartChar,
					EndLine:   def.Line,
					EndColumn: def.NameRange.EndChar,
					Code:      "dependency-cycle",
				})
			}
		}
		return out
	},
}

func defKey(d index.FixtureDefinition) string {
	return d.FilePath + ":" + strconv.Itoa(d.Line)
}

// detectCycles runs a three-color DFS over nodes/edges, returning every
// elementary cycle found (closed: the first and last entries are equal).
func detectCycles(nodes map[string]index.FixtureDefinition, edges map[string][]string) [][]string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(nodes))
	var path []string
	var cycles [][]string

	var dfs func(key string)
	dfs = func(key string) {
		if color[key] == black {
			return
		}
		if color[key] == gray {
			start := -1
			for i, k := range path {
				if k == key {
					start = i
					break
				}
			}
			if start >= 0 {
				cycle := append([]string{}, path[start:]...)
				cycle = append(cycle, key)
				cycles = append(cycles, cycle)
			}
			return
		}

		color[key] = gray
		path = append(path, key)
		for _, next := range edges[key] {
			dfs(next)
		}
		path = path[:len(path)-1]
		color[key] = black
	}

	for key := range nodes {
		if color[key] == white {
			dfs(key)
		}
	}
	return cycles
}
