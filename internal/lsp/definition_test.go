package lsp

import (
	"context"
	"encoding/json"
	"testing"

	"go.lsp.dev/protocol"
)

func TestHandleDefinition_ResolvesAcrossFiles(t *testing.T) {
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

	params, _ := json.Marshal(protocol.DefinitionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: pathToURI("/ws/test_a.py")},
			Position:     protocol.Position{Line: 0, Character: 12}, // inside "db_conn" parameter
		},
	})

	result, err := server.handleDefinition(context.Background(), params)
	if err != nil {
		t.Fatalf("handleDefinition() error: %v", err)
	}

	locations, ok := result.([]protocol.Location)
	if !ok || len(locations) != 1 {
		t.Fatalf("result = %+v, ok=%v, want one location", result, ok)
	}
	if locations[0].URI != pathToURI("/ws/conftest.py") {
		t.Errorf("URI = %s, want conftest.py", locations[0].URI)
	}
}

func TestHandleDefinition_NoFixtureAtCursor(t *testing.T) {
	server := NewServer(nil)
	server.initialized = true

	if err := server.Analyze(context.Background(), "/ws/conftest.py", "x = 1\n"); err != nil {
		t.Fatalf("Analyze error: %v", err)
	}

	params, _ := json.Marshal(protocol.DefinitionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: pathToURI("/ws/conftest.py")},
			Position:     protocol.Position{Line: 0, Character: 0},
		},
	})

	result, err := server.handleDefinition(context.Background(), params)
	if err != nil {
		t.Fatalf("handleDefinition() error: %v", err)
	}
	if result != nil {
		t.Errorf("result = %v, want nil", result)
	}
}
