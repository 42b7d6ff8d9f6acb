package lsp

import (
	"context"
	"encoding/json"
	"log"

	"go.lsp.dev/protocol"
)

// --- Text document sync ---
//
// Grounded on the teacher's workspace.go: a mutex-guarded Document cache
// keyed by URI, refreshed on open/change and re-fed through Analyze so the
// index never serves a stale file after an edit.

func (s *Server) handleDidOpen(ctx context.Context, params json.RawMessage) (any, error) {
	var p protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.documents[p.TextDocument.URI] = &Document{
		URI:     p.TextDocument.URI,
		Version: p.TextDocument.Version,
		Content: p.TextDocument.Text,
	}
	s.mu.Unlock()

	path := uriToPath(p.TextDocument.URI)
	log.Printf("didOpen: %s", path)

	if err := s.Analyze(ctx, path, p.TextDocument.Text); err != nil {
		log.Printf("didOpen: analyze error: %v", err)
	}
	s.publishDiagnostics(ctx, p.TextDocument.URI)

	return nil, nil
}

func (s *Server) handleDidChange(ctx context.Context, params json.RawMessage) (any, error) {
	var p protocol.DidChangeTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}

	s.mu.Lock()
	doc, ok := s.documents[p.TextDocument.URI]
	if ok {
		doc.Version = p.TextDocument.Version
		if len(p.ContentChanges) > 0 {
			// Full sync: take the last change as the entire new text.
			doc.Content = p.ContentChanges[len(p.ContentChanges)-1].Text
		}
	}
	s.mu.Unlock()

	if !ok {
		return nil, nil
	}

	path := uriToPath(p.TextDocument.URI)
	if err := s.Analyze(ctx, path, doc.Content); err != nil {
		log.Printf("didChange: analyze error: %v", err)
	}
	s.publishDiagnostics(ctx, p.TextDocument.URI)

	return nil, nil
}

func (s *Server) handleDidClose(ctx context.Context, params json.RawMessage) (any, error) {
	var p protocol.DidCloseTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}

	s.mu.Lock()
	delete(s.documents, p.TextDocument.URI)
	s.mu.Unlock()

	log.Printf("didClose: %s", uriToPath(p.TextDocument.URI))

	if s.conn != nil {
		if err := s.conn.Notify(ctx, "textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
			URI:         p.TextDocument.URI,
			Diagnostics: []protocol.Diagnostic{},
		}); err != nil {
			log.Printf("failed to clear diagnostics: %v", err)
		}
	}

	return nil, nil
}

func (s *Server) handleDidSave(ctx context.Context, params json.RawMessage) (any, error) {
	var p protocol.DidSaveTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}

	path := uriToPath(p.TextDocument.URI)
	log.Printf("didSave: %s", path)

	content := p.Text
	if content == "" {
		s.mu.RLock()
		if doc, ok := s.documents[p.TextDocument.URI]; ok {
			content = doc.Content
		}
		s.mu.RUnlock()
	}

	if content != "" {
		if err := s.Analyze(ctx, path, content); err != nil {
			log.Printf("didSave: analyze error: %v", err)
		}
	}
	s.publishDiagnostics(ctx, p.TextDocument.URI)

	return nil, nil
}

// documentContent returns the cached in-memory text for uri, if any.
func (s *Server) documentContent(uri protocol.DocumentURI) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[uri]
	if !ok {
		return "", false
	}
	return doc.Content, true
}
