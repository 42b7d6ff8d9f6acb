package index

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func defAt(name, path string, line int) FixtureDefinition {
	return FixtureDefinition{Name: name, FilePath: path, Line: line, Scope: ScopeFunction}
}

func TestIndex_ReplaceFile_AddsDefinitionsAndUsages(t *testing.T) {
	ix := New()
	ix.ReplaceFile(AnalyzedFile{
		Path: "/ws/conftest.py",
		Definitions: []FixtureDefinition{
			defAt("db_conn", "/ws/conftest.py", 10),
		},
		Usages: []FixtureUsage{
			{Name: "db_conn", FilePath: "/ws/conftest.py", Line: 20},
		},
	})

	got := ix.Definitions("db_conn")
	if len(got) != 1 || got[0].Line != 10 {
		t.Fatalf("Definitions(db_conn) = %+v, want one def at line 10", got)
	}

	usages := ix.UsagesOf("db_conn")
	if len(usages) != 1 || usages[0].Line != 20 {
		t.Fatalf("UsagesOf(db_conn) = %+v, want one usage at line 20", usages)
	}
}

// TestIndex_ReplaceFile_AtomicSwap verifies the remove-then-insert
// invariant: re-analyzing a file with a shrunk definition set drops the
// stale definition entirely rather than leaving it behind.
func TestIndex_ReplaceFile_AtomicSwap(t *testing.T) {
	ix := New()
	path := "/ws/conftest.py"

	ix.ReplaceFile(AnalyzedFile{
		Path: path,
		Definitions: []FixtureDefinition{
			defAt("old_fixture", path, 5),
			defAt("shared_fixture", path, 12),
		},
	})
	if len(ix.Definitions("old_fixture")) != 1 {
		t.Fatalf("expected old_fixture to be indexed before replace")
	}

	ix.ReplaceFile(AnalyzedFile{
		Path: path,
		Definitions: []FixtureDefinition{
			defAt("shared_fixture", path, 14),
		},
	})

	if got := ix.Definitions("old_fixture"); len(got) != 0 {
		t.Fatalf("Definitions(old_fixture) after replace = %+v, want none", got)
	}
	got := ix.Definitions("shared_fixture")
	if len(got) != 1 || got[0].Line != 14 {
		t.Fatalf("Definitions(shared_fixture) = %+v, want one def at line 14", got)
	}
}

// TestIndex_ReplaceFile_DoesNotAffectOtherFiles confirms replacement scope
// is limited to the path being replaced.
func TestIndex_ReplaceFile_DoesNotAffectOtherFiles(t *testing.T) {
	ix := New()
	ix.ReplaceFile(AnalyzedFile{
		Path:        "/ws/a/conftest.py",
		Definitions: []FixtureDefinition{defAt("shared", "/ws/a/conftest.py", 3)},
	})
	ix.ReplaceFile(AnalyzedFile{
		Path:        "/ws/b/conftest.py",
		Definitions: []FixtureDefinition{defAt("shared", "/ws/b/conftest.py", 7)},
	})

	ix.ReplaceFile(AnalyzedFile{Path: "/ws/a/conftest.py"})

	got := ix.Definitions("shared")
	if len(got) != 1 || got[0].FilePath != "/ws/b/conftest.py" {
		t.Fatalf("Definitions(shared) = %+v, want only /ws/b/conftest.py's definition", got)
	}
}

func TestIndex_RemoveFile(t *testing.T) {
	ix := New()
	path := "/ws/test_mod.py"
	ix.ReplaceFile(AnalyzedFile{
		Path:        path,
		Definitions: []FixtureDefinition{defAt("local_fixture", path, 2)},
	})

	ix.RemoveFile(path)

	if got := ix.Definitions("local_fixture"); len(got) != 0 {
		t.Fatalf("Definitions(local_fixture) after RemoveFile = %+v, want none", got)
	}
	if _, ok := ix.File(path); ok {
		t.Fatalf("File(%q) found after RemoveFile, want absent", path)
	}
}

func TestIndex_File_RoundTripsContent(t *testing.T) {
	ix := New()
	ix.ReplaceFile(AnalyzedFile{
		Path:    "/ws/conftest.py",
		Content: "import pytest\n",
	})

	f, ok := ix.File("/ws/conftest.py")
	if !ok {
		t.Fatal("File() not found after ReplaceFile")
	}
	if f.Content != "import pytest\n" {
		t.Fatalf("File().Content = %q, want %q", f.Content, "import pytest\n")
	}
}

func TestIndex_AllDefinitions(t *testing.T) {
	ix := New()
	ix.ReplaceFile(AnalyzedFile{
		Path: "/ws/conftest.py",
		Definitions: []FixtureDefinition{
			defAt("a", "/ws/conftest.py", 1),
			defAt("b", "/ws/conftest.py", 5),
		},
	})

	got := ix.AllDefinitions()
	sort.Slice(got, func(i, j int) bool { return got[i].Name < got[j].Name })

	want := []FixtureDefinition{
		defAt("a", "/ws/conftest.py", 1),
		defAt("b", "/ws/conftest.py", 5),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("AllDefinitions() mismatch (-want +got):\n%s", diff)
	}
}

func TestIndex_Files(t *testing.T) {
	ix := New()
	ix.ReplaceFile(AnalyzedFile{Path: "/ws/a.py"})
	ix.ReplaceFile(AnalyzedFile{Path: "/ws/b.py"})

	got := ix.Files()
	sort.Strings(got)
	want := []string{"/ws/a.py", "/ws/b.py"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Files() mismatch (-want +got):\n%s", diff)
	}
}

func TestIndex_Reset(t *testing.T) {
	ix := New()
	ix.ReplaceFile(AnalyzedFile{
		Path:        "/ws/conftest.py",
		Definitions: []FixtureDefinition{defAt("a", "/ws/conftest.py", 1)},
	})

	ix.Reset()

	if got := ix.Files(); len(got) != 0 {
		t.Fatalf("Files() after Reset() = %v, want none", got)
	}
	if got := ix.Definitions("a"); len(got) != 0 {
		t.Fatalf("Definitions(a) after Reset() = %v, want none", got)
	}
}

func TestIndex_Canonicalize_NonexistentPathIsStable(t *testing.T) {
	ix := New()
	first := ix.Canonicalize("/does/not/exist.py")
	second := ix.Canonicalize("/does/not/exist.py")
	if first != second {
		t.Fatalf("Canonicalize() not stable across calls: %q != %q", first, second)
	}
}
