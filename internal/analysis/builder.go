// # internal/analysis/builder.go
package analysis

import "fmt"

// ScopeError is an analysis-internal error: the source declares something
// the scope model cannot place (e.g. nonlocal with no enclosing function).
// It is surfaced to the caller instead of becoming a finding; the caller
// decides whether to skip the file.
type ScopeError struct {
	Name    string
	Span    Span
	Reason  string
	Dialect string
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("scope error at %d:%d for %q: %s", e.Span.StartLine, e.Span.StartCol, e.Name, e.Reason)
}

// Builder accumulates scopes, bindings and usage sites during a single
// document-order walk of a syntax tree. Language frontends drive it; the
// builder owns scope placement, global/nonlocal redirects and dialect rules.
type Builder struct {
	tree  *ScopeTree
	stack []int
}

func NewBuilder(dialect Dialect) *Builder {
	tree := &ScopeTree{dialect: dialect}
	module := newScope(0, ScopeModule, -1, Span{})
	tree.Scopes = append(tree.Scopes, module)
	return &Builder{
		tree:  tree,
		stack: []int{0},
	}
}

// Current returns the innermost active scope id.
func (b *Builder) Current() int {
	return b.stack[len(b.stack)-1]
}

func (b *Builder) current() *Scope {
	return b.tree.Scopes[b.Current()]
}

// PushScope opens a child scope of the current scope and makes it active.
func (b *Builder) PushScope(kind ScopeKind, span Span) int {
	id := len(b.tree.Scopes)
	scope := newScope(id, kind, b.Current(), span)
	b.tree.Scopes = append(b.tree.Scopes, scope)
	b.current().Children = append(b.current().Children, id)
	b.stack = append(b.stack, id)
	return id
}

// PushComprehensionScope opens a comprehension scope if the dialect scopes
// comprehension targets. It reports whether a scope was actually pushed so
// the caller can balance PopScope.
func (b *Builder) PushComprehensionScope(span Span) bool {
	if !b.tree.dialect.ComprehensionScopes {
		return false
	}
	b.PushScope(ScopeComprehension, span)
	return true
}

// PopScope closes the innermost active scope. The module scope is never
// popped.
func (b *Builder) PopScope() {
	if len(b.stack) > 1 {
		b.stack = b.stack[:len(b.stack)-1]
	}
}

// Bind records a name-introducing event against the innermost active scope,
// honoring any global/nonlocal redirect declared for the name there.
func (b *Builder) Bind(name string, kind BindingKind, span Span) {
	target := b.Current()
	scope := b.tree.Scopes[target]
	if scope.globals[name] {
		target = 0
	} else if redirected, ok := scope.nonlocals[name]; ok {
		target = redirected
	}

	binding := &Binding{Name: name, Kind: kind, Scope: target, Span: span}
	index := len(b.tree.Bindings)
	b.tree.Bindings = append(b.tree.Bindings, binding)

	dest := b.tree.Scopes[target]
	if _, seen := dest.bindings[name]; !seen {
		dest.names = append(dest.names, name)
	}
	dest.bindings[name] = append(dest.bindings[name], index)
}

// DeclareGlobal redirects subsequent bindings of name in the current scope
// to the module scope.
func (b *Builder) DeclareGlobal(name string) {
	b.current().globals[name] = true
}

// DeclareNonlocal redirects subsequent bindings of name in the current scope
// to the nearest enclosing function or lambda scope. Declaring nonlocal
// where no such scope exists is a ScopeError.
func (b *Builder) DeclareNonlocal(name string, span Span) error {
	for id := b.current().Parent; id >= 0; id = b.tree.Scopes[id].Parent {
		kind := b.tree.Scopes[id].Kind
		if kind == ScopeFunction || kind == ScopeLambda {
			b.current().nonlocals[name] = id
			return nil
		}
	}
	return &ScopeError{
		Name:    name,
		Span:    span,
		Reason:  "nonlocal declaration without enclosing function scope",
		Dialect: b.tree.dialect.Name,
	}
}

// Read records a name-read occurrence in the innermost active scope.
// Resolution happens later, once all bindings of enclosing scopes are known.
func (b *Builder) Read(name string, span Span) {
	b.tree.Usages = append(b.tree.Usages, UsageSite{
		Name:  name,
		Scope: b.Current(),
		Span:  span,
	})
}

// MarkDynamic flags the innermost active scope as containing a reflective
// escape hatch. Liveness evaluation skips the scope and its ancestors.
func (b *Builder) MarkDynamic() {
	b.current().Dynamic = true
}

// Finish returns the completed scope tree.
func (b *Builder) Finish() *ScopeTree {
	return b.tree
}
