// # internal/parser/javascript.go
package parser

import (
	"deadvar/internal/analysis"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ECMAScriptBinder drives the analysis core over tree-sitter-javascript and
// tree-sitter-typescript trees. Scoping is approximated at function
// granularity: block-level let/const shadowing is not modeled, which can
// only lose findings, never invent them.
type ECMAScriptBinder struct {
	Dialect analysis.Dialect
}

func (e *ECMAScriptBinder) Analyze(root *sitter.Node, source []byte, filePath string) (*FileReport, error) {
	w := &jsWalker{
		src:     source,
		b:       analysis.NewBuilder(e.Dialect),
		dialect: e.Dialect,
	}
	w.walk(root)

	tree := w.b.Finish()
	return newFileReport(filePath, "ecmascript", e.Dialect.Name, tree), nil
}

type jsWalker struct {
	src     []byte
	b       *analysis.Builder
	dialect analysis.Dialect
}

func (w *jsWalker) text(node *sitter.Node) string {
	return string(w.src[node.StartByte():node.EndByte()])
}

func (w *jsWalker) children(node *sitter.Node) {
	for i := uint(0); i < node.ChildCount(); i++ {
		w.walk(node.Child(i))
	}
}

func (w *jsWalker) walk(node *sitter.Node) {
	if node == nil {
		return
	}

	switch node.Kind() {
	case "function_declaration", "generator_function_declaration":
		if name := node.ChildByFieldName("name"); name != nil {
			w.b.Bind(w.text(name), analysis.BindFunctionDef, nodeSpan(name))
		}
		w.function(node)
	case "function_expression", "generator_function", "method_definition", "arrow_function":
		w.function(node)
	case "class_declaration", "class":
		name := node.ChildByFieldName("name")
		if name != nil {
			w.b.Bind(w.text(name), analysis.BindClassDef, nodeSpan(name))
		}
		// The heritage clause reads its base (extends Base), so walk every
		// child except the class name itself.
		for i := uint(0); i < node.NamedChildCount(); i++ {
			child := node.NamedChild(i)
			if name != nil && child.StartByte() == name.StartByte() {
				continue
			}
			w.walk(child)
		}
	case "variable_declaration", "lexical_declaration":
		for i := uint(0); i < node.NamedChildCount(); i++ {
			w.declarator(node.NamedChild(i))
		}
	case "for_in_statement":
		// Covers both for...in and for...of.
		w.bindTargets(node.ChildByFieldName("left"), analysis.BindLoopTarget, false)
		w.walk(node.ChildByFieldName("right"))
		w.walk(node.ChildByFieldName("body"))
	case "catch_clause":
		if param := node.ChildByFieldName("parameter"); param != nil {
			w.bindTargets(param, analysis.BindParameter, false)
		}
		w.walk(node.ChildByFieldName("body"))
	case "assignment_expression":
		// Plain reassignment neither declares nor reads; only the
		// declaration is judged by this rule.
		if left := node.ChildByFieldName("left"); left != nil && left.Kind() != "identifier" {
			w.walk(left)
		}
		w.walk(node.ChildByFieldName("right"))
	case "member_expression":
		w.walk(node.ChildByFieldName("object"))
	case "pair":
		if key := node.ChildByFieldName("key"); key != nil && key.Kind() != "property_identifier" {
			w.walk(key)
		}
		w.walk(node.ChildByFieldName("value"))
	case "import_statement":
		w.importClause(node)
	case "call_expression":
		if fn := node.ChildByFieldName("function"); fn != nil && fn.Kind() == "identifier" {
			if w.dialect.IsEscapeHatch(w.text(fn)) {
				w.b.MarkDynamic()
			}
		}
		w.children(node)
	case "with_statement":
		// with blocks resolve names dynamically against an object; static
		// liveness tracking is unprovable inside them.
		w.b.MarkDynamic()
		w.children(node)
	case "identifier", "shorthand_property_identifier":
		w.b.Read(w.text(node), nodeSpan(node))
	default:
		// Template substitutions, blocks, expressions, TypeScript type
		// annotations (type_identifier never reads) and ERROR nodes.
		w.children(node)
	}
}

func (w *jsWalker) function(node *sitter.Node) {
	w.b.PushScope(functionScopeKind(node), nodeSpan(node))
	if param := node.ChildByFieldName("parameter"); param != nil {
		// Bare arrow-function parameter: x => ...
		w.bindTargets(param, analysis.BindParameter, false)
	}
	w.bindParameters(node.ChildByFieldName("parameters"))
	if name := node.ChildByFieldName("name"); name != nil && node.Kind() == "function_expression" {
		// A named function expression binds its own name inside itself.
		w.b.Bind(w.text(name), analysis.BindFunctionDef, nodeSpan(name))
	}
	w.walk(node.ChildByFieldName("body"))
	w.b.PopScope()
}

func functionScopeKind(node *sitter.Node) analysis.ScopeKind {
	if node.Kind() == "arrow_function" {
		return analysis.ScopeLambda
	}
	return analysis.ScopeFunction
}

func (w *jsWalker) declarator(node *sitter.Node) {
	if node.Kind() != "variable_declarator" {
		return
	}
	w.bindTargets(node.ChildByFieldName("name"), analysis.BindAssignment, false)
	w.walk(node.ChildByFieldName("value"))
}

func (w *jsWalker) bindParameters(node *sitter.Node) {
	if node == nil {
		return
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "assignment_pattern":
			w.bindTargets(child.ChildByFieldName("left"), analysis.BindParameter, false)
			w.walk(child.ChildByFieldName("right"))
		case "required_parameter", "optional_parameter":
			// TypeScript grammar wraps the pattern; type annotations hold
			// no identifier reads.
			w.bindTargets(child.ChildByFieldName("pattern"), analysis.BindParameter, false)
			w.walk(child.ChildByFieldName("value"))
		default:
			w.bindTargets(child, analysis.BindParameter, false)
		}
	}
}

// bindTargets records bindings for declarator names, loop targets and
// parameters. Destructuring patterns use the lenient unpack kind.
func (w *jsWalker) bindTargets(node *sitter.Node, kind analysis.BindingKind, lenient bool) {
	if node == nil {
		return
	}
	switch node.Kind() {
	case "identifier", "shorthand_property_identifier_pattern":
		k := kind
		if lenient {
			k = analysis.BindUnpackTarget
		}
		w.b.Bind(w.text(node), k, nodeSpan(node))
	case "object_pattern", "array_pattern", "rest_pattern":
		for i := uint(0); i < node.NamedChildCount(); i++ {
			w.bindTargets(node.NamedChild(i), kind, true)
		}
	case "pair_pattern":
		w.bindTargets(node.ChildByFieldName("value"), kind, true)
	case "assignment_pattern":
		w.bindTargets(node.ChildByFieldName("left"), kind, lenient)
		w.walk(node.ChildByFieldName("right"))
	case "member_expression", "subscript_expression":
		w.walk(node)
	default:
		for i := uint(0); i < node.NamedChildCount(); i++ {
			w.bindTargets(node.NamedChild(i), kind, lenient)
		}
	}
}

// importClause binds imported names; like Python imports they belong to a
// dedicated rule and are never reported here.
func (w *jsWalker) importClause(node *sitter.Node) {
	var bindIdentifiers func(n *sitter.Node)
	bindIdentifiers = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Kind() == "identifier" {
			w.b.Bind(w.text(n), analysis.BindImport, nodeSpan(n))
			return
		}
		if n.Kind() == "import_specifier" {
			// import { exported as local }: only the local alias binds.
			if alias := n.ChildByFieldName("alias"); alias != nil {
				bindIdentifiers(alias)
				return
			}
			bindIdentifiers(n.ChildByFieldName("name"))
			return
		}
		for i := uint(0); i < n.NamedChildCount(); i++ {
			bindIdentifiers(n.NamedChild(i))
		}
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if child := node.NamedChild(i); child.Kind() == "import_clause" {
			bindIdentifiers(child)
		}
	}
}
