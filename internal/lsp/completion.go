package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"go.lsp.dev/protocol"

	"github.com/pytestls/pytestls/internal/pyfixture/index"
	"github.com/pytestls/pytestls/internal/pyfixture/resolver"
)

// handleCompletion implements textDocument/completion by combining Q5
// (what kind of context the cursor is in) with Q4 (what fixtures are
// visible from here), applying the scope filter spec.md §4.5 requires
// whenever the enclosing function is itself a fixture.
func (s *Server) handleCompletion(ctx context.Context, params json.RawMessage) (any, error) {
	var p protocol.CompletionParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("parsing completion params: %w", err)
	}

	path := uriToPath(p.TextDocument.URI)
	cc, ok := s.CompletionContext(ctx, path, int(p.Position.Line), int(p.Position.Character))
	if !ok {
		return &protocol.CompletionList{Items: []protocol.CompletionItem{}}, nil
	}

	candidates := s.VisibleFixtures(path)
	if cc.IsFixture && cc.FixtureScope != nil {
		candidates = resolver.FilterByScope(candidates, *cc.FixtureScope)
	}

	declared := make(map[string]bool, len(cc.DeclaredParams))
	for _, name := range cc.DeclaredParams {
		declared[name] = true
	}

	items := make([]protocol.CompletionItem, 0, len(candidates))
	for _, def := range candidates {
		if cc.Kind == resolver.ContextFunctionSignature && declared[def.Name] {
			continue
		}
		items = append(items, fixtureCompletionItem(def))
	}

	log.Printf("completion: %s @ %d:%d (kind=%d) -> %d item(s)", path, p.Position.Line, p.Position.Character, cc.Kind, len(items))

	return &protocol.CompletionList{IsIncomplete: false, Items: items}, nil
}

func fixtureCompletionItem(def index.FixtureDefinition) protocol.CompletionItem {
	detail := fmt.Sprintf("fixture (%s)", def.Scope)
	if def.ReturnType != "" {
		detail = fmt.Sprintf("fixture (%s) -> %s", def.Scope, def.ReturnType)
	}
	item := protocol.CompletionItem{
		Label:  def.Name,
		Kind:   protocol.CompletionItemKindVariable,
		Detail: detail,
	}
	if def.Docstring != "" {
		item.Documentation = protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: def.Docstring,
		}
	}
	return item
}
