// Package difftest renders unified diffs for multi-line test-failure
// output, grounded on internal/starlark/tester/snapshot.go's
// SnapshotManager, which uses the same library to show why a recorded
// snapshot and a fresh render disagree.
package difftest

import "github.com/pmezard/go-difflib/difflib"

// Unified returns a unified diff between want and got. Empty when the two
// are identical.
func Unified(want, got string) string {
	if want == got {
		return ""
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  2,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return got
	}
	return text
}
