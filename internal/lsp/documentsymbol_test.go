package lsp

import (
	"context"
	"encoding/json"
	"testing"

	"go.lsp.dev/protocol"
)

func TestHandleDocumentSymbol_ListsFileDefinitions(t *testing.T) {
	server := NewServer(nil)
	server.initialized = true

	src := "import pytest\n\n@pytest.fixture(scope=\"session\")\ndef db_conn():\n    return object()\n"
	if err := server.Analyze(context.Background(), "/ws/conftest.py", src); err != nil {
		t.Fatalf("Analyze error: %v", err)
	}

	params, _ := json.Marshal(protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: pathToURI("/ws/conftest.py")},
	})
	result, err := server.handleDocumentSymbol(context.Background(), params)
	if err != nil {
		t.Fatalf("handleDocumentSymbol() error: %v", err)
	}

	symbols, ok := result.([]protocol.DocumentSymbol)
	if !ok || len(symbols) != 1 || symbols[0].Name != "db_conn" {
		t.Fatalf("symbols = %+v, ok=%v, want one db_conn symbol", result, ok)
	}
}

func TestHandleWorkspaceSymbol_FiltersByQuery(t *testing.T) {
	server := NewServer(nil)
	server.initialized = true
	server.rootPath = "/ws"

	src := "import pytest\n\n@pytest.fixture\ndef db_conn():\n    return object()\n\n\n@pytest.fixture\ndef http_client():\n    return object()\n"
	if err := server.Analyze(context.Background(), "/ws/conftest.py", src); err != nil {
		t.Fatalf("Analyze error: %v", err)
	}

	params, _ := json.Marshal(protocol.WorkspaceSymbolParams{Query: "db"})
	result, err := server.handleWorkspaceSymbol(context.Background(), params)
	if err != nil {
		t.Fatalf("handleWorkspaceSymbol() error: %v", err)
	}

	symbols, ok := result.([]protocol.SymbolInformation)
	if !ok || len(symbols) != 1 || symbols[0].Name != "db_conn" {
		t.Fatalf("symbols = %+v, ok=%v, want one db_conn symbol", result, ok)
	}
}
