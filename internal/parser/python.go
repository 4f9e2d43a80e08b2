// # internal/parser/python.go
package parser

import (
	"deadvar/internal/analysis"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// PythonBinder translates tree-sitter-python trees into the analysis scope
// model: one scope per function, lambda and (dialect permitting)
// comprehension, bindings for every name-introducing construct, usage sites
// for every name read, including reads inside f-string interpolations.
type PythonBinder struct {
	Dialect analysis.Dialect
}

func (p *PythonBinder) Analyze(root *sitter.Node, source []byte, filePath string) (*FileReport, error) {
	w := &pyWalker{
		src:     source,
		b:       analysis.NewBuilder(p.Dialect),
		dialect: p.Dialect,
	}
	w.walk(root)
	if w.err != nil {
		return nil, w.err
	}

	tree := w.b.Finish()
	return newFileReport(filePath, "python", p.Dialect.Name, tree), nil
}

type pyWalker struct {
	src     []byte
	b       *analysis.Builder
	dialect analysis.Dialect
	err     error
}

func (w *pyWalker) text(node *sitter.Node) string {
	return string(w.src[node.StartByte():node.EndByte()])
}

func (w *pyWalker) children(node *sitter.Node) {
	for i := uint(0); i < node.ChildCount(); i++ {
		w.walk(node.Child(i))
	}
}

func (w *pyWalker) walk(node *sitter.Node) {
	if node == nil || w.err != nil {
		return
	}

	switch node.Kind() {
	case "function_definition":
		w.functionDefinition(node)
	case "lambda":
		w.lambda(node)
	case "class_definition":
		w.classDefinition(node)
	case "assignment":
		w.assignment(node)
	case "augmented_assignment":
		// Compound assignment is a write, not a read: x += 1 alone does
		// not keep x alive.
		w.bindTargets(node.ChildByFieldName("left"), analysis.BindAssignment, false)
		w.walk(node.ChildByFieldName("right"))
	case "named_expression":
		if name := node.ChildByFieldName("name"); name != nil && name.Kind() == "identifier" {
			w.b.Bind(w.text(name), analysis.BindAssignment, nodeSpan(name))
		}
		w.walk(node.ChildByFieldName("value"))
	case "for_statement":
		w.bindTargets(node.ChildByFieldName("left"), analysis.BindLoopTarget, false)
		w.walk(node.ChildByFieldName("right"))
		w.walk(node.ChildByFieldName("body"))
		w.walk(node.ChildByFieldName("alternative"))
	case "global_statement":
		for i := uint(0); i < node.ChildCount(); i++ {
			if child := node.Child(i); child.Kind() == "identifier" {
				w.b.DeclareGlobal(w.text(child))
			}
		}
	case "nonlocal_statement":
		for i := uint(0); i < node.ChildCount(); i++ {
			if child := node.Child(i); child.Kind() == "identifier" {
				if err := w.b.DeclareNonlocal(w.text(child), nodeSpan(child)); err != nil {
					w.err = err
					return
				}
			}
		}
	case "import_statement", "import_from_statement", "future_import_statement":
		w.importStatement(node)
	case "list_comprehension", "set_comprehension", "dictionary_comprehension", "generator_expression":
		w.comprehension(node)
	case "call":
		w.call(node)
	case "attribute":
		// a.b reads a; the attribute name is not a name read.
		w.walk(node.ChildByFieldName("object"))
	case "keyword_argument":
		w.walk(node.ChildByFieldName("value"))
	case "as_pattern":
		// except E as e, with open(...) as f
		w.walk(node.Child(0))
		if alias := node.ChildByFieldName("alias"); alias != nil {
			w.bindTargets(alias, analysis.BindAssignment, false)
		}
	case "identifier":
		w.b.Read(w.text(node), nodeSpan(node))
	default:
		// Covers statements, expressions, strings with their interpolation
		// children, and ERROR nodes from partially invalid sources.
		w.children(node)
	}
}

func (w *pyWalker) functionDefinition(node *sitter.Node) {
	if name := node.ChildByFieldName("name"); name != nil {
		w.b.Bind(w.text(name), analysis.BindFunctionDef, nodeSpan(name))
	}

	params := node.ChildByFieldName("parameters")
	// Defaults and annotations are evaluated where the def statement runs.
	w.parameterContext(params)
	w.walk(node.ChildByFieldName("return_type"))

	w.b.PushScope(analysis.ScopeFunction, nodeSpan(node))
	w.bindParameters(params)
	w.walk(node.ChildByFieldName("body"))
	w.b.PopScope()
}

func (w *pyWalker) lambda(node *sitter.Node) {
	params := node.ChildByFieldName("parameters")
	w.parameterContext(params)

	w.b.PushScope(analysis.ScopeLambda, nodeSpan(node))
	w.bindParameters(params)
	w.walk(node.ChildByFieldName("body"))
	w.b.PopScope()
}

func (w *pyWalker) classDefinition(node *sitter.Node) {
	if name := node.ChildByFieldName("name"); name != nil {
		w.b.Bind(w.text(name), analysis.BindClassDef, nodeSpan(name))
	}
	w.walk(node.ChildByFieldName("superclasses"))

	w.b.PushScope(analysis.ScopeClass, nodeSpan(node))
	w.walk(node.ChildByFieldName("body"))
	w.b.PopScope()
}

func (w *pyWalker) assignment(node *sitter.Node) {
	w.walk(node.ChildByFieldName("type"))

	right := node.ChildByFieldName("right")
	if right == nil {
		// Bare annotation (x: int) introduces no binding.
		return
	}
	w.bindTargets(node.ChildByFieldName("left"), analysis.BindAssignment, false)
	w.walk(right)
}

// bindTargets records bindings for an assignment or loop target expression.
// Tuple and sequence destructuring switches to the lenient unpack kind,
// which the liveness evaluator exempts from reporting.
func (w *pyWalker) bindTargets(node *sitter.Node, kind analysis.BindingKind, lenient bool) {
	if node == nil || w.err != nil {
		return
	}
	switch node.Kind() {
	case "identifier":
		k := kind
		if lenient {
			k = analysis.BindUnpackTarget
		}
		w.b.Bind(w.text(node), k, nodeSpan(node))
	case "pattern_list", "tuple_pattern", "list_pattern",
		"list_splat_pattern", "dictionary_splat_pattern":
		for i := uint(0); i < node.ChildCount(); i++ {
			w.bindTargets(node.Child(i), kind, true)
		}
	case "attribute", "subscript":
		// a.b = ... and a[i] = ... bind no local name; the base is read.
		w.walk(node)
	default:
		for i := uint(0); i < node.ChildCount(); i++ {
			w.bindTargets(node.Child(i), kind, lenient)
		}
	}
}

// parameterContext walks default values and annotations of a parameter list
// in the scope enclosing the definition, where Python evaluates them.
func (w *pyWalker) parameterContext(node *sitter.Node) {
	if node == nil {
		return
	}
	switch node.Kind() {
	case "default_parameter", "typed_default_parameter":
		w.walk(node.ChildByFieldName("value"))
		w.walk(node.ChildByFieldName("type"))
		return
	case "typed_parameter":
		w.walk(node.ChildByFieldName("type"))
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		w.parameterContext(node.Child(i))
	}
}

func (w *pyWalker) bindParameters(node *sitter.Node) {
	if node == nil {
		return
	}
	switch node.Kind() {
	case "identifier":
		w.b.Bind(w.text(node), analysis.BindParameter, nodeSpan(node))
	case "default_parameter", "typed_default_parameter":
		if name := node.ChildByFieldName("name"); name != nil {
			w.bindParameters(name)
		}
	case "typed_parameter":
		w.bindParameters(node.Child(0))
	case "positional_separator", "keyword_separator":
		// "/" and "*" markers bind nothing
	default:
		// parameters, lambda_parameters, splat and tuple patterns
		for i := uint(0); i < node.ChildCount(); i++ {
			w.bindParameters(node.Child(i))
		}
	}
}

func (w *pyWalker) importStatement(node *sitter.Node) {
	moduleName := node.ChildByFieldName("module_name")
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if moduleName != nil && child.StartByte() == moduleName.StartByte() {
			continue
		}
		w.bindImportName(child)
	}
}

// bindImportName binds the local name an import introduces. Imports are
// never reported by this rule; a dedicated unused-import rule owns them.
func (w *pyWalker) bindImportName(node *sitter.Node) {
	switch node.Kind() {
	case "aliased_import":
		if alias := node.ChildByFieldName("alias"); alias != nil {
			w.b.Bind(w.text(alias), analysis.BindImport, nodeSpan(alias))
		}
	case "dotted_name":
		// import a.b binds a
		for i := uint(0); i < node.ChildCount(); i++ {
			if child := node.Child(i); child.Kind() == "identifier" {
				w.b.Bind(w.text(child), analysis.BindImport, nodeSpan(child))
				return
			}
		}
	case "identifier":
		w.b.Bind(w.text(node), analysis.BindImport, nodeSpan(node))
	}
}

func (w *pyWalker) call(node *sitter.Node) {
	if fn := node.ChildByFieldName("function"); fn != nil && fn.Kind() == "identifier" {
		if w.dialect.IsEscapeHatch(w.text(fn)) {
			w.b.MarkDynamic()
		}
	}
	w.children(node)
}

func (w *pyWalker) comprehension(node *sitter.Node) {
	if w.err != nil {
		return
	}

	// The outermost iterable is evaluated in the enclosing scope, so a
	// target shadowing its own iterable still counts as a read of the
	// enclosing binding.
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if child := node.NamedChild(i); child.Kind() == "for_in_clause" {
			w.walk(child.ChildByFieldName("right"))
			break
		}
	}

	pushed := w.b.PushComprehensionScope(nodeSpan(node))
	firstClause := true
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "for_in_clause":
			w.bindTargets(child.ChildByFieldName("left"), analysis.BindComprehensionTarget, false)
			if !firstClause {
				w.walk(child.ChildByFieldName("right"))
			}
			firstClause = false
		case "if_clause":
			w.children(child)
		}
	}
	w.walk(node.ChildByFieldName("body"))
	if pushed {
		w.b.PopScope()
	}
}
