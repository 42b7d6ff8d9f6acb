package lsp

import (
	"context"
	"encoding/json"
	"testing"

	"go.lsp.dev/protocol"
)

func TestHandleReferences_FindsUsagesAcrossFiles(t *testing.T) {
	server := NewServer(nil)
	server.initialized = true

	conftest := "import pytest\n\n@pytest.fixture\ndef db_conn():\n    return object()\n"
	test := "def test_a(db_conn):\n    assert db_conn\n"

	if err := server.Analyze(context.Background(), "/ws/conftest.py", conftest); err != nil {
		t.Fatalf("Analyze(conftest) error: %v", err)
	}
	if err := server.Analyze(context.Background(), "/ws/test_a.py", test); err != nil {
		t.Fatalf("Analyze(test_a) error: %v", err)
	}

	paramsJSON, err := json.Marshal(protocol.ReferenceParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: pathToURI("/ws/conftest.py")},
			Position:     protocol.Position{Line: 3, Character: 4}, // "db_conn" in "def db_conn():"
		},
		Context: protocol.ReferenceContext{IncludeDeclaration: true},
	})
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}

	result, err := server.handleReferences(context.Background(), paramsJSON)
	if err != nil {
		t.Fatalf("handleReferences() error: %v", err)
	}

	locations, ok := result.([]protocol.Location)
	if !ok {
		t.Fatalf("result type = %T, want []protocol.Location", result)
	}
	if len(locations) != 2 {
		t.Fatalf("len(locations) = %d, want 2 (declaration + one usage)", len(locations))
	}
}

func TestHandleReferences_NoFixtureAtCursor(t *testing.T) {
	server := NewServer(nil)
	server.initialized = true

	if err := server.Analyze(context.Background(), "/ws/conftest.py", "x = 1\n"); err != nil {
		t.Fatalf("Analyze error: %v", err)
	}

	paramsJSON, _ := json.Marshal(protocol.ReferenceParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: pathToURI("/ws/conftest.py")},
			Position:     protocol.Position{Line: 0, Character: 0},
		},
	})

	result, err := server.handleReferences(context.Background(), paramsJSON)
	if err != nil {
		t.Fatalf("handleReferences() error: %v", err)
	}
	if result != nil {
		t.Errorf("result = %v, want nil", result)
	}
}
