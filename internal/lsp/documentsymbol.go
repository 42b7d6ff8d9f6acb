package lsp

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"go.lsp.dev/protocol"
)

// handleDocumentSymbol implements textDocument/documentSymbol, listing the
// fixtures defined directly in this file. Grounded on the teacher's
// handleDocumentSymbol (one protocol.DocumentSymbol per definition, using
// the same location for Range and SelectionRange).
func (s *Server) handleDocumentSymbol(ctx context.Context, params json.RawMessage) (any, error) {
	var p protocol.DocumentSymbolParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}

	path := uriToPath(p.TextDocument.URI)
	file, ok := s.idx.File(path)
	if !ok {
		return []protocol.DocumentSymbol{}, nil
	}

	symbols := make([]protocol.DocumentSymbol, 0, len(file.Definitions))
	for _, def := range file.Definitions {
		rng := nameRangeToLSP(def.Line, def.NameRange.StartChar, def.NameRange.EndChar)
		detail := "fixture(scope=" + def.Scope.String() + ")"
		if len(def.Params) > 0 {
			detail += " depends on " + strings.Join(def.Params, ", ")
		}
		symbols = append(symbols, protocol.DocumentSymbol{
			Name:           def.Name,
			Detail:         detail,
			Kind:           protocol.SymbolKindFunction,
			Range:          rng,
			SelectionRange: rng,
		})
	}

	log.Printf("documentSymbol: %s -> %d fixture(s)", path, len(symbols))
	return symbols, nil
}

// handleWorkspaceSymbol implements workspace/symbol atop Q4's
// VisibleFixtures, using the workspace root as the vantage point for the
// priority ladder, and filtering client-side by the query substring.
func (s *Server) handleWorkspaceSymbol(ctx context.Context, params json.RawMessage) (any, error) {
	var p protocol.WorkspaceSymbolParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}

	s.mu.RLock()
	root := s.rootPath
	s.mu.RUnlock()

	var symbols []protocol.SymbolInformation
	for _, def := range s.VisibleFixtures(root) {
		if p.Query != "" && !strings.Contains(def.Name, p.Query) {
			continue
		}
		symbols = append(symbols, protocol.SymbolInformation{
			Name: def.Name,
			Kind: protocol.SymbolKindFunction,
			Location: protocol.Location{
				URI:   pathToURI(def.FilePath),
				Range: nameRangeToLSP(def.Line, def.NameRange.StartChar, def.NameRange.EndChar),
			},
		})
	}

	log.Printf("workspace/symbol: query=%q -> %d result(s)", p.Query, len(symbols))
	return symbols, nil
}
