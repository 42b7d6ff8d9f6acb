package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.lsp.dev/protocol"

	"github.com/pytestls/pytestls/internal/pyfixture/index"
)

// handleHover implements textDocument/hover by resolving the fixture at
// the cursor (Q2) and rendering its signature/scope/docstring as Markdown,
// grounded on the teacher's handleHover (word-at-cursor, then render a
// Markdown summary of whatever definition is found).
func (s *Server) handleHover(ctx context.Context, params json.RawMessage) (any, error) {
	var p protocol.HoverParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}

	path := uriToPath(p.TextDocument.URI)
	def, ok := s.ResolveDefinition(path, int(p.Position.Line), int(p.Position.Character))
	if !ok {
		return nil, nil
	}

	hoverRange := nameRangeToLSP(def.Line, def.NameRange.StartChar, def.NameRange.EndChar)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: formatFixtureHover(def),
		},
		Range: &hoverRange,
	}, nil
}

func formatFixtureHover(def index.FixtureDefinition) string {
	var b strings.Builder
	signature := def.Name + "()"
	if len(def.Params) > 0 {
		signature = fmt.Sprintf("%s(%s)", def.Name, strings.Join(def.Params, ", "))
	}
	if def.ReturnType != "" {
		signature += " -> " + def.ReturnType
	}
	fmt.Fprintf(&b, "```python\n@pytest.fixture(scope=%q)\ndef %s\n```\n", def.Scope.String(), signature)
	if def.Autouse {
		b.WriteString("\nautouse\n")
	}
	if def.IsThirdParty {
		b.WriteString("\nthird-party\n")
	} else if def.IsPlugin {
		b.WriteString("\nplugin\n")
	}
	if def.Docstring != "" {
		b.WriteString("\n---\n")
		b.WriteString(def.Docstring)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\n_defined at %s:%d_\n", def.FilePath, def.Line)
	return b.String()
}
