// # internal/parser/javascript_test.go
package parser

import (
	"testing"

	"deadvar/internal/analysis"
)

func analyzeJS(t *testing.T, path, code string) *FileReport {
	t.Helper()
	p := NewParser(NewGrammarLoader())
	binder := &ECMAScriptBinder{Dialect: analysis.ECMAScript()}
	p.RegisterAnalyzer("javascript", binder)
	p.RegisterAnalyzer("typescript", binder)
	report, err := p.AnalyzeFile(path, []byte(code))
	if err != nil {
		t.Fatal(err)
	}
	return report
}

func TestJSUnusedDeclarations(t *testing.T) {
	report := analyzeJS(t, "test.js", `function f() {
  var unread = 1;
  let alsoUnread = 2;
  const used = 3;
  return used;
}
`)
	assertLines(t, report, 2, 3)
}

func TestJSModuleScopeNeverReported(t *testing.T) {
	report := analyzeJS(t, "test.js", `var topLevel = 1;
`)
	assertLines(t, report)
}

func TestJSParametersAndDestructuringAreLenient(t *testing.T) {
	report := analyzeJS(t, "test.js", `function f(unusedParam, { a, b }) {
  const [x, y] = pair();
  return x;
}
`)
	assertLines(t, report)
}

func TestJSClosureCapture(t *testing.T) {
	report := analyzeJS(t, "test.js", `function outer() {
  const captured = 1;
  return () => captured + 1;
}
`)
	assertLines(t, report)
}

func TestJSForOfTarget(t *testing.T) {
	report := analyzeJS(t, "test.js", `function f(items) {
  for (const item of items) {
    work();
  }
  for (const used of items) {
    work(used);
  }
}
`)
	assertLines(t, report, 2)
	if report.Findings[0].Name != "item" {
		t.Errorf("expected item, got %q", report.Findings[0].Name)
	}
}

func TestJSTemplateSubstitutionIsARead(t *testing.T) {
	report := analyzeJS(t, "test.js", "function f() {\n  const name = \"x\";\n  const silent = \"y\";\n  return `hello ${name}`;\n}\n")
	assertLines(t, report, 3)
}

func TestJSEvalSuppressesScope(t *testing.T) {
	report := analyzeJS(t, "test.js", `function f(expr) {
  const hidden = 1;
  return eval(expr);
}
`)
	assertLines(t, report)
	if report.Suppressed == 0 {
		t.Error("expected eval to suppress the scope")
	}
}

func TestJSClassHeritageIsARead(t *testing.T) {
	report := analyzeJS(t, "test.js", `function f() {
  const Base = mkBase();
  class Derived extends Base {}
  return new Derived();
}
`)
	assertLines(t, report)
}

func TestJSImportsAndFunctionNamesNotReported(t *testing.T) {
	report := analyzeJS(t, "test.js", `import fs from "fs";
import { join as j } from "path";

function helper() {
  return 1;
}
`)
	assertLines(t, report)
}

func TestJSShorthandPropertyIsARead(t *testing.T) {
	report := analyzeJS(t, "test.js", `function f() {
  const value = 1;
  return { value };
}
`)
	assertLines(t, report)
}

func TestTypeScriptParameters(t *testing.T) {
	report := analyzeJS(t, "test.ts", `function f(n: number): number {
  const unused: number = 1;
  const doubled: number = n * 2;
  return doubled;
}
`)
	assertLines(t, report, 2)
}
