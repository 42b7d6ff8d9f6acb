package lsp

import (
	"context"
	"encoding/json"
	"log"

	"go.lsp.dev/protocol"
)

// handleReferences implements textDocument/references. Unlike the
// teacher's Starlark build.Walk AST traversal this replaces, finding every
// fixture usage requires no AST walk of the requesting file at all: the
// index already holds every usage in the workspace, and Q3 filters it down
// to the ones that resolve back to the cursor's definition, so this
// handler is a thin translation from resolver.FixtureUsage to
// protocol.Location.
func (s *Server) handleReferences(ctx context.Context, params json.RawMessage) (any, error) {
	var p protocol.ReferenceParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}

	path := uriToPath(p.TextDocument.URI)
	def, ok := s.ResolveDefinition(path, int(p.Position.Line), int(p.Position.Character))
	if !ok {
		return nil, nil
	}

	usages := s.resolve.References(def)
	log.Printf("references: %s @ %d:%d -> %d usage(s) of %q", path, p.Position.Line, p.Position.Character, len(usages), def.Name)

	var locations []protocol.Location
	if p.Context.IncludeDeclaration {
		locations = append(locations, protocol.Location{
			URI:   pathToURI(def.FilePath),
			Range: nameRangeToLSP(def.Line, def.NameRange.StartChar, def.NameRange.EndChar),
		})
	}
	for _, u := range usages {
		locations = append(locations, protocol.Location{
			URI:   pathToURI(u.FilePath),
			Range: nameRangeToLSP(u.Line, u.NameRange.StartChar, u.NameRange.EndChar),
		})
	}

	return locations, nil
}
