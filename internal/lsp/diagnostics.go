package lsp

import (
	"context"
	"log"

	"go.lsp.dev/protocol"

	"github.com/pytestls/pytestls/internal/pyfixture/diagnostics"
)

// publishDiagnostics runs the three diagnostic checks (spec.md §4.6) over
// the index's current contribution for uri's file and publishes the
// result, grounded on the teacher's publishDiagnostics (guard against a
// nil connection, one Notify per call).
func (s *Server) publishDiagnostics(ctx context.Context, uri protocol.DocumentURI) {
	if s.conn == nil {
		return
	}

	path := uriToPath(uri)
	found := s.Diagnostics(path)

	out := make([]protocol.Diagnostic, 0, len(found))
	for _, d := range found {
		out = append(out, diagnosticToLSP(d))
	}

	if err := s.conn.Notify(ctx, "textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: out,
	}); err != nil {
		log.Printf("failed to publish diagnostics: %v", err)
	}

	log.Printf("published %d diagnostics for %s", len(out), path)
}

func diagnosticToLSP(d diagnostics.Diagnostic) protocol.Diagnostic {
	return protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: lspLine(d.Line), Character: uint32(d.Column)},
			End:   protocol.Position{Line: lspLine(d.EndLine), Character: uint32(d.EndColumn)},
		},
		Severity: severityToLSP(d.Severity),
		Code:     d.Code,
		Source:   "pytestls",
		Message:  d.Message,
	}
}

func severityToLSP(s diagnostics.Severity) protocol.DiagnosticSeverity {
	switch s {
	case diagnostics.SeverityError:
		return protocol.DiagnosticSeverityError
	case diagnostics.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case diagnostics.SeverityInfo:
		return protocol.DiagnosticSeverityInformation
	case diagnostics.SeverityHint:
		return protocol.DiagnosticSeverityHint
	default:
		return protocol.DiagnosticSeverityWarning
	}
}

func lspLine(line int) uint32 {
	if line <= 0 {
		return 0
	}
	return uint32(line - 1)
}
