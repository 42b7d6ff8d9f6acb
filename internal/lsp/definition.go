package lsp

import (
	"context"
	"encoding/json"
	"log"

	"go.lsp.dev/protocol"
)

// handleDefinition implements textDocument/definition via Q2
// (ResolveDefinition), grounded on the teacher's handleDefinition shape:
// unmarshal params, resolve at the cursor, translate the hit to a
// protocol.Location.
func (s *Server) handleDefinition(ctx context.Context, params json.RawMessage) (any, error) {
	var p protocol.DefinitionParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}

	path := uriToPath(p.TextDocument.URI)
	def, ok := s.ResolveDefinition(path, int(p.Position.Line), int(p.Position.Character))
	if !ok {
		return nil, nil
	}

	log.Printf("definition: %s @ %d:%d -> %s:%d", path, p.Position.Line, p.Position.Character, def.FilePath, def.Line)

	return []protocol.Location{
		{
			URI:   pathToURI(def.FilePath),
			Range: nameRangeToLSP(def.Line, def.NameRange.StartChar, def.NameRange.EndChar),
		},
	}, nil
}
