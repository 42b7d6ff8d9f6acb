package lsp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"go.lsp.dev/protocol"
)

func rawID(id int) *json.RawMessage {
	raw := json.RawMessage(itoa(id))
	return &raw
}

func itoa(id int) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func TestHandle_InitializeReturnsCapabilities(t *testing.T) {
	server := NewServer(nil)

	params, _ := json.Marshal(protocol.InitializeParams{
		ProcessID: 1234,
		RootURI:   "file:///ws",
	})

	result, err := server.Handle(context.Background(), &Request{
		JSONRPC: "2.0",
		ID:      rawID(1),
		Method:  "initialize",
		Params:  params,
	})
	if err != nil {
		t.Fatalf("initialize failed: %v", err)
	}

	init, ok := result.(*protocol.InitializeResult)
	if !ok {
		t.Fatalf("result type = %T, want *protocol.InitializeResult", result)
	}
	if init.ServerInfo.Name != "pytestls" {
		t.Errorf("ServerInfo.Name = %q, want pytestls", init.ServerInfo.Name)
	}
	if init.Capabilities.HoverProvider != true {
		t.Error("HoverProvider should be true")
	}
}

func TestHandle_RejectsRequestsBeforeInitialize(t *testing.T) {
	server := NewServer(nil)

	_, err := server.Handle(context.Background(), &Request{
		JSONRPC: "2.0",
		ID:      rawID(1),
		Method:  "textDocument/hover",
	})
	if err == nil {
		t.Fatal("expected error for request before initialize")
	}
}

func TestHandle_LifecycleShutdownThenExit(t *testing.T) {
	exited := false
	server := NewServer(func() { exited = true })
	server.initialized = true

	if _, err := server.Handle(context.Background(), &Request{Method: "shutdown"}); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
	if !server.shutdown {
		t.Error("server.shutdown = false after shutdown request")
	}

	if _, err := server.Handle(context.Background(), &Request{Method: "textDocument/hover"}); err == nil {
		t.Error("expected request after shutdown to be rejected")
	}

	if _, err := server.Handle(context.Background(), &Request{Method: "exit"}); err != nil {
		t.Fatalf("exit failed: %v", err)
	}
	if !exited {
		t.Error("onExit callback was not invoked")
	}
}

func TestServerFacade_AnalyzeThenResolveDefinition(t *testing.T) {
	server := NewServer(nil)

	src := "import pytest\n\n@pytest.fixture\ndef db_conn():\n    return object()\n\n\ndef test_a(db_conn):\n    assert db_conn\n"
	if err := server.Analyze(context.Background(), "/ws/test_a.py", src); err != nil {
		t.Fatalf("Analyze error: %v", err)
	}

	// Zero-based line 7 is "def test_a(db_conn):", column 12 is inside "db_conn".
	def, ok := server.ResolveDefinition("/ws/test_a.py", 7, 12)
	if !ok {
		t.Fatal("ResolveDefinition() ok = false")
	}
	if def.Name != "db_conn" || def.Line != 4 {
		t.Errorf("def = %+v, want db_conn at line 4", def)
	}
}

func TestServerFacade_VisibleFixturesAndDiagnostics(t *testing.T) {
	server := NewServer(nil)

	src := "import pytest\n\n@pytest.fixture\ndef db_conn():\n    return object()\n\n\ndef test_a():\n    assert db_conn\n"
	if err := server.Analyze(context.Background(), "/ws/test_a.py", src); err != nil {
		t.Fatalf("Analyze error: %v", err)
	}

	visible := server.VisibleFixtures("/ws/test_a.py")
	var found bool
	for _, d := range visible {
		if d.Name == "db_conn" {
			found = true
		}
	}
	if !found {
		t.Errorf("VisibleFixtures = %+v, want db_conn present", visible)
	}

	diags := server.Diagnostics("/ws/test_a.py")
	var sawUndeclared bool
	for _, d := range diags {
		if d.Code == "undeclared-fixture" {
			sawUndeclared = true
		}
	}
	if !sawUndeclared {
		t.Errorf("Diagnostics = %+v, want an undeclared-fixture finding", diags)
	}
}

func TestHandleInitialize_LoadsWorkspaceConfigAndGatesDiagnostics(t *testing.T) {
	root := t.TempDir()
	configBody := "enable_diagnostics = false\nmax_scan_depth = 1\n"
	if err := os.WriteFile(filepath.Join(root, "pytestls.toml"), []byte(configBody), 0o644); err != nil {
		t.Fatalf("writing pytestls.toml: %v", err)
	}

	server := NewServer(nil)
	params, _ := json.Marshal(protocol.InitializeParams{RootURI: pathToURI(root)})
	if _, err := server.Handle(context.Background(), &Request{
		JSONRPC: "2.0",
		ID:      rawID(1),
		Method:  "initialize",
		Params:  params,
	}); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}

	if server.scanCfg.MaxScanDepth != 1 {
		t.Errorf("MaxScanDepth = %d, want 1", server.scanCfg.MaxScanDepth)
	}

	src := "import pytest\n\n@pytest.fixture\ndef db_conn():\n    return object()\n\n\ndef test_a(unknown_fixture):\n    pass\n"
	testPath := filepath.Join(root, "test_a.py")
	if err := server.Analyze(context.Background(), testPath, src); err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if diags := server.Diagnostics(testPath); diags != nil {
		t.Errorf("Diagnostics = %+v, want nil (enable_diagnostics = false)", diags)
	}
}
