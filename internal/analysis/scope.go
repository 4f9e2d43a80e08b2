// # internal/analysis/scope.go
package analysis

// ScopeKind identifies the lexical region a scope covers.
type ScopeKind int

const (
	ScopeModule ScopeKind = iota
	ScopeFunction
	ScopeLambda
	ScopeComprehension
	ScopeClass
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeModule:
		return "module"
	case ScopeFunction:
		return "function"
	case ScopeLambda:
		return "lambda"
	case ScopeComprehension:
		return "comprehension"
	case ScopeClass:
		return "class"
	default:
		return "unknown"
	}
}

// BindingKind classifies the construct that introduced a name.
type BindingKind int

const (
	BindAssignment BindingKind = iota
	BindParameter
	BindLoopTarget
	BindUnpackTarget // destructuring target, exempt from reporting
	BindComprehensionTarget
	BindFunctionDef
	BindClassDef
	BindImport
)

// Reportable reports whether bindings of this kind may produce findings.
// Parameters, destructuring targets, def/class names and imports are
// excluded: parameters and imports belong to dedicated rules, and
// destructuring idioms are deliberately tolerated even when a target is
// provably unread.
func (k BindingKind) Reportable() bool {
	switch k {
	case BindAssignment, BindLoopTarget, BindComprehensionTarget:
		return true
	default:
		return false
	}
}

// Span is a half-open source region in 1-based line/column coordinates.
type Span struct {
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// Binding is one name-introducing event. The Read flag starts false and is
// flipped by usage resolution; findings are derived from the final state.
type Binding struct {
	Name  string
	Kind  BindingKind
	Scope int
	Span  Span
	Read  bool
}

// Scope is one lexical region. Scopes live in the ScopeTree arena and refer
// to each other by index, so parent links never create ownership cycles.
type Scope struct {
	ID       int
	Kind     ScopeKind
	Parent   int // -1 for the module scope
	Children []int
	Span     Span

	// Dynamic marks scopes containing an escape-hatch construct that grants
	// reflective access to live bindings (e.g. locals()).
	Dynamic bool

	bindings  map[string][]int // name -> indices into ScopeTree.Bindings
	names     []string         // binding names in first-bind order
	globals   map[string]bool  // names redirected to the module scope
	nonlocals map[string]int   // names redirected to an enclosing function scope
}

// UsageSite is a single name-read occurrence awaiting resolution.
type UsageSite struct {
	Name  string
	Scope int
	Span  Span
}

// Finding reports a binding that was written but never read.
type Finding struct {
	Name    string
	Message string
	Span    Span
}

// ScopeTree is the arena holding all scopes, bindings and usage sites
// produced for one parsed file. Scope 0 is always the module scope.
type ScopeTree struct {
	Scopes   []*Scope
	Bindings []*Binding
	Usages   []UsageSite

	dialect Dialect
}

// Module returns the root scope.
func (t *ScopeTree) Module() *Scope {
	return t.Scopes[0]
}

// BindingsOf returns the bindings recorded for name in the given scope, in
// document order.
func (t *ScopeTree) BindingsOf(scopeID int, name string) []*Binding {
	s := t.Scopes[scopeID]
	indices := s.bindings[name]
	out := make([]*Binding, 0, len(indices))
	for _, i := range indices {
		out = append(out, t.Bindings[i])
	}
	return out
}

// Names returns the bound names of a scope in first-bind order.
func (t *ScopeTree) Names(scopeID int) []string {
	return t.Scopes[scopeID].names
}

func newScope(id int, kind ScopeKind, parent int, span Span) *Scope {
	return &Scope{
		ID:        id,
		Kind:      kind,
		Parent:    parent,
		Span:      span,
		bindings:  make(map[string][]int),
		globals:   make(map[string]bool),
		nonlocals: make(map[string]int),
	}
}
