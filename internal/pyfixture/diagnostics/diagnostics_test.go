package diagnostics

import (
	"testing"

	"github.com/pytestls/pytestls/internal/pyfixture/index"
)

// TestDependencyCycle_MutualFixtures covers spec.md §8 scenario 6: two
// mutually-dependent fixtures a(b)/b(a) produce two cycle diagnostics
// (one per participant) and detection terminates without recursing
// forever.
func TestDependencyCycle_MutualFixtures(t *testing.T) {
	ix := index.New()
	path := "/ws/conftest.py"
	ix.ReplaceFile(index.AnalyzedFile{
		Path: path,
		Definitions: []index.FixtureDefinition{
			{Name: "a", FilePath: path, Line: 2, Scope: index.ScopeFunction, Params: []string{"b"}},
			{Name: "b", FilePath: path, Line: 6, Scope: index.ScopeFunction, Params: []string{"a"}},
		},
	})

	e := New(ix)
	diags := e.Diagnostics(path)

	var cycleDiags []Diagnostic
	for _, d := range diags {
		if d.Code == "dependency-cycle" {
			cycleDiags = append(cycleDiags, d)
		}
	}
	if len(cycleDiags) != 2 {
		t.Fatalf("cycle diagnostics = %+v, want 2 (one per participant)", cycleDiags)
	}
}

func TestDependencyCycle_NoCycleNoDiagnostic(t *testing.T) {
	ix := index.New()
	path := "/ws/conftest.py"
	ix.ReplaceFile(index.AnalyzedFile{
		Path: path,
		Definitions: []index.FixtureDefinition{
			{Name: "a", FilePath: path, Line: 2, Scope: index.ScopeFunction, Params: []string{"b"}},
			{Name: "b", FilePath: path, Line: 6, Scope: index.ScopeFunction},
		},
	})

	e := New(ix)
	for _, d := range e.Diagnostics(path) {
		if d.Code == "dependency-cycle" {
			t.Errorf("unexpected cycle diagnostic %+v", d)
		}
	}
}

func TestScopeMismatch_NarrowerDependencyFlagged(t *testing.T) {
	ix := index.New()
	path := "/ws/conftest.py"
	ix.ReplaceFile(index.AnalyzedFile{
		Path: path,
		Definitions: []index.FixtureDefinition{
			{Name: "db_conn", FilePath: path, Line: 2, Scope: index.ScopeFunction},
			{Name: "app", FilePath: path, Line: 6, Scope: index.ScopeSession, Params: []string{"db_conn"}},
		},
	})

	e := New(ix)
	found := false
	for _, d := range e.Diagnostics(path) {
		if d.Code == "scope-mismatch" {
			found = true
		}
	}
	if !found {
		t.Error("expected a scope-mismatch diagnostic for a session fixture depending on a function-scoped one")
	}
}

func TestScopeMismatch_SameOrWiderDependencyNotFlagged(t *testing.T) {
	ix := index.New()
	path := "/ws/conftest.py"
	ix.ReplaceFile(index.AnalyzedFile{
		Path: path,
		Definitions: []index.FixtureDefinition{
			{Name: "db_conn", FilePath: path, Line: 2, Scope: index.ScopeSession},
			{Name: "app", FilePath: path, Line: 6, Scope: index.ScopeSession, Params: []string{"db_conn"}},
		},
	})

	e := New(ix)
	for _, d := range e.Diagnostics(path) {
		if d.Code == "scope-mismatch" {
			t.Errorf("unexpected scope-mismatch diagnostic %+v", d)
		}
	}
}

func TestUndeclaredFixture_FlaggedOnceAtEarliestLine(t *testing.T) {
	ix := index.New()
	conftest := "/ws/conftest.py"
	testFile := "/ws/test_thing.py"
	ix.ReplaceFile(index.AnalyzedFile{
		Path:        conftest,
		Definitions: []index.FixtureDefinition{{Name: "db_conn", FilePath: conftest, Line: 2, Scope: index.ScopeFunction}},
	})
	ix.ReplaceFile(index.AnalyzedFile{
		Path: testFile,
		Undeclared: []index.UndeclaredCandidate{
			{Name: "db_conn", FilePath: testFile, FunctionLine: 1, ReferenceLine: 3},
			{Name: "db_conn", FilePath: testFile, FunctionLine: 1, ReferenceLine: 5},
			{Name: "totally_unrelated", FilePath: testFile, FunctionLine: 1, ReferenceLine: 4},
		},
	})

	e := New(ix)
	var found []Diagnostic
	for _, d := range e.Diagnostics(testFile) {
		if d.Code == "undeclared-fixture" {
			found = append(found, d)
		}
	}
	if len(found) != 1 {
		t.Fatalf("undeclared-fixture diagnostics = %+v, want exactly 1", found)
	}
	if found[0].Line != 3 {
		t.Errorf("Line = %d, want 3 (earliest reference line)", found[0].Line)
	}
}

func TestUndeclaredFixture_UnrelatedNameNotFlagged(t *testing.T) {
	ix := index.New()
	testFile := "/ws/test_thing.py"
	ix.ReplaceFile(index.AnalyzedFile{
		Path: testFile,
		Undeclared: []index.UndeclaredCandidate{
			{Name: "not_a_fixture", FilePath: testFile, FunctionLine: 1, ReferenceLine: 3},
		},
	})

	e := New(ix)
	for _, d := range e.Diagnostics(testFile) {
		if d.Code == "undeclared-fixture" {
			t.Errorf("unexpected diagnostic for a name that names no visible fixture: %+v", d)
		}
	}
}

func TestRegistry_DisableByName(t *testing.T) {
	ix := index.New()
	path := "/ws/conftest.py"
	ix.ReplaceFile(index.AnalyzedFile{
		Path: path,
		Definitions: []index.FixtureDefinition{
			{Name: "a", FilePath: path, Line: 2, Scope: index.ScopeFunction, Params: []string{"b"}},
			{Name: "b", FilePath: path, Line: 6, Scope: index.ScopeFunction, Params: []string{"a"}},
		},
	})

	e := New(ix)
	e.Registry().Disable("dependency-cycle")

	for _, d := range e.Diagnostics(path) {
		if d.Code == "dependency-cycle" {
			t.Errorf("dependency-cycle check should be disabled, got %+v", d)
		}
	}
}
