// # internal/app/app_test.go
package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"deadvar/internal/analysis"
	"deadvar/internal/config"
	dverrors "deadvar/internal/core/errors"
)

func testConfig(paths ...string) *config.Config {
	return &config.Config{
		Paths: paths,
		Exclude: config.Exclude{
			Dirs: []string{"node_modules", "__pycache__"},
		},
		Watch: config.Watch{
			Debounce:            50 * time.Millisecond,
			MaxRescansPerSecond: 100,
		},
	}
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestInitialScan(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "mod.py", "def f():\n    dead = 1\n    live = 2\n    return live\n")
	writeSource(t, dir, "script.js", "function f() {\n  const dead = 1;\n  return 2;\n}\n")
	writeSource(t, dir, "notes.txt", "not source")

	excluded := filepath.Join(dir, "node_modules")
	if err := os.MkdirAll(excluded, 0o755); err != nil {
		t.Fatal(err)
	}
	writeSource(t, excluded, "vendored.js", "function f() { const x = 1; }\n")

	a, err := New(testConfig(dir))
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	if err := a.InitialScan(context.Background()); err != nil {
		t.Fatalf("initial scan: %v", err)
	}

	update := a.CurrentUpdate()
	if update.FileCount != 2 {
		t.Fatalf("expected 2 analyzed files, got %d", update.FileCount)
	}
	if update.Findings != 2 {
		t.Errorf("expected 2 findings, got %d", update.Findings)
	}
	if update.Errors != 0 {
		t.Errorf("expected no failures, got %d", update.Errors)
	}

	reports := a.Reports()
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	// Reports are ordered by path.
	if filepath.Base(reports[0].Path) != "mod.py" || filepath.Base(reports[1].Path) != "script.js" {
		t.Errorf("unexpected report order: %s, %s", reports[0].Path, reports[1].Path)
	}
}

func TestHandleChangesReanalyzesAndRemoves(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "mod.py", "def f():\n    dead = 1\n")

	a, err := New(testConfig(dir))
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	if err := a.InitialScan(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := a.CurrentUpdate().Findings; got != 1 {
		t.Fatalf("expected 1 finding after scan, got %d", got)
	}

	// Fixing the file clears the finding.
	writeSource(t, dir, "mod.py", "def f():\n    live = 1\n    return live\n")
	a.HandleChanges([]string{path})
	if got := a.CurrentUpdate().Findings; got != 0 {
		t.Errorf("expected 0 findings after fix, got %d", got)
	}

	// Deleting the file drops its report.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	a.HandleChanges([]string{path})
	if got := a.CurrentUpdate().FileCount; got != 0 {
		t.Errorf("expected 0 files after delete, got %d", got)
	}
}

func TestProcessFileRecordsFailures(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "mod.py", "def f():\n    nonlocal ghost\n")

	a, err := New(testConfig(dir))
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	err = a.ProcessFile(path)
	if err == nil {
		t.Fatal("expected a binding error for module-level nonlocal")
	}
	if !dverrors.IsCode(err, dverrors.CodeScopeError) {
		t.Errorf("expected SCOPE_ERROR code, got %v", err)
	}
	if got := a.CurrentUpdate().Errors; got != 1 {
		t.Fatalf("expected 1 failed file, got %d", got)
	}

	// A clean rewrite clears the failure.
	writeSource(t, dir, "mod.py", "x = 1\n")
	if err := a.ProcessFile(path); err != nil {
		t.Fatalf("reprocess: %v", err)
	}
	if got := a.CurrentUpdate().Errors; got != 0 {
		t.Errorf("expected failure cleared, got %d", got)
	}
}

func TestWrapAnalysisError(t *testing.T) {
	scopeErr := &analysis.ScopeError{
		Name:    "ghost",
		Span:    analysis.Span{StartLine: 2, StartCol: 4},
		Reason:  "nonlocal declaration without enclosing function scope",
		Dialect: "python3",
	}
	wrapped := wrapAnalysisError(scopeErr, "mod.py")
	if !dverrors.IsCode(wrapped, dverrors.CodeScopeError) {
		t.Errorf("expected SCOPE_ERROR, got %v", wrapped)
	}
	if !strings.Contains(wrapped.Error(), "ghost") {
		t.Errorf("expected binding name in context, got %v", wrapped)
	}

	plain := wrapAnalysisError(errors.New("parse failed"), "mod.py")
	if !dverrors.IsCode(plain, dverrors.CodeParseError) {
		t.Errorf("expected PARSE_ERROR, got %v", plain)
	}
}

func TestUniqueScanRoots(t *testing.T) {
	roots := uniqueScanRoots([]string{
		"/work/project",
		"/work/project/src",
		"/work/project",
		"/work/projector",
	})
	if len(roots) != 2 {
		t.Fatalf("expected 2 roots, got %v", roots)
	}
	if roots[0] != "/work/project" || roots[1] != "/work/projector" {
		t.Errorf("unexpected roots: %v", roots)
	}
}

func TestGenerateOutputsWritesSARIF(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "mod.py", "def f():\n    dead = 1\n")

	cfg := testConfig(dir)
	cfg.Output.SARIF = filepath.Join(dir, "out", "findings.sarif")

	a, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	if err := a.InitialScan(context.Background()); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(cfg.Output.SARIF)
	if err != nil {
		t.Fatalf("expected SARIF file: %v", err)
	}
	if len(data) == 0 {
		t.Error("SARIF output is empty")
	}
}

func TestHistoryRunPersisted(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "mod.py", "def f():\n    dead = 1\n")

	cfg := testConfig(dir)
	cfg.History.Path = filepath.Join(dir, "runs.db")

	a, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	if err := a.InitialScan(context.Background()); err != nil {
		t.Fatal(err)
	}

	points, err := a.RunTrend(time.Time{})
	if err != nil {
		t.Fatalf("load trend: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("expected 1 persisted run, got %d", len(points))
	}
	if points[0].FindingCount != 1 {
		t.Errorf("expected finding count 1, got %d", points[0].FindingCount)
	}
}
