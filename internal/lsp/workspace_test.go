package lsp

import (
	"context"
	"encoding/json"
	"testing"

	"go.lsp.dev/protocol"
)

func TestHandleDidOpen_PopulatesIndexAndCache(t *testing.T) {
	server := NewServer(nil)
	server.initialized = true

	uri := pathToURI("/ws/test_a.py")
	params, _ := json.Marshal(protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:     uri,
			Version: 1,
			Text:    "def test_a(db_conn):\n    assert db_conn\n",
		},
	})

	if _, err := server.handleDidOpen(context.Background(), params); err != nil {
		t.Fatalf("handleDidOpen() error: %v", err)
	}

	content, ok := server.documentContent(uri)
	if !ok || content == "" {
		t.Fatal("document not cached after didOpen")
	}

	if _, ok := server.idx.File("/ws/test_a.py"); !ok {
		t.Error("file not indexed after didOpen")
	}
}

func TestHandleDidChange_ReanalyzesFullSync(t *testing.T) {
	server := NewServer(nil)
	server.initialized = true
	uri := pathToURI("/ws/test_a.py")

	openParams, _ := json.Marshal(protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, Version: 1, Text: "x = 1\n"},
	})
	if _, err := server.handleDidOpen(context.Background(), openParams); err != nil {
		t.Fatalf("handleDidOpen() error: %v", err)
	}

	changeParams, _ := json.Marshal(protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                2,
		},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{
			{Text: "import pytest\n\n@pytest.fixture\ndef db_conn():\n    return object()\n"},
		},
	})
	if _, err := server.handleDidChange(context.Background(), changeParams); err != nil {
		t.Fatalf("handleDidChange() error: %v", err)
	}

	file, ok := server.idx.File("/ws/test_a.py")
	if !ok || len(file.Definitions) != 1 {
		t.Fatalf("file = %+v, ok=%v, want one fixture definition after didChange", file, ok)
	}
}

func TestHandleDidClose_RemovesFromCache(t *testing.T) {
	server := NewServer(nil)
	server.initialized = true
	uri := pathToURI("/ws/test_a.py")

	openParams, _ := json.Marshal(protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, Version: 1, Text: "x = 1\n"},
	})
	if _, err := server.handleDidOpen(context.Background(), openParams); err != nil {
		t.Fatalf("handleDidOpen() error: %v", err)
	}

	closeParams, _ := json.Marshal(protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
	if _, err := server.handleDidClose(context.Background(), closeParams); err != nil {
		t.Fatalf("handleDidClose() error: %v", err)
	}

	if _, ok := server.documentContent(uri); ok {
		t.Error("document still cached after didClose")
	}
}
