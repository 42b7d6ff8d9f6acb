package lsp

import "go.lsp.dev/protocol"

// uriToPath converts a document URI to a file path. Grounded on the
// teacher's server.go helper of the same name.
func uriToPath(uri protocol.DocumentURI) string {
	s := string(uri)
	if len(s) >= 7 && s[:7] == "file://" {
		return s[7:]
	}
	return s
}

func pathToURI(path string) protocol.DocumentURI {
	return protocol.DocumentURI("file://" + path)
}

// nameRangeToLSP converts a one-based definition/usage line and a
// character range on that line (both internal, index.Range convention)
// into a zero-based protocol.Range.
func nameRangeToLSP(line int, startChar, endChar int) protocol.Range {
	l := uint32(0)
	if line > 0 {
		l = uint32(line - 1)
	}
	return protocol.Range{
		Start: protocol.Position{Line: l, Character: uint32(startChar)},
		End:   protocol.Position{Line: l, Character: uint32(endChar)},
	}
}

// lineToRange approximates a one-based line number as a full-line
// zero-based protocol.Range, for callers with no column information.
func lineToRange(line int) protocol.Range {
	l := uint32(0)
	if line > 0 {
		l = uint32(line - 1)
	}
	return protocol.Range{
		Start: protocol.Position{Line: l, Character: 0},
		End:   protocol.Position{Line: l, Character: 1000},
	}
}
