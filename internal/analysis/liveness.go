// # internal/analysis/liveness.go
package analysis

import (
	"fmt"
	"sort"
)

// Evaluate derives findings from the final binding state: every reportable
// binding that was written but never read yields one finding, positioned at
// the offending write. Module and class scopes are never evaluated, and a
// scope whose chain contains an escape hatch is skipped wholesale.
//
// Evaluation is pure with respect to the tree: running it twice yields the
// same findings in the same order.
func (t *ScopeTree) Evaluate() []Finding {
	suppressed := t.suppressedScopes()

	var findings []Finding
	for _, scope := range t.Scopes {
		if scope.Kind == ScopeModule || scope.Kind == ScopeClass {
			continue
		}
		if suppressed[scope.ID] {
			continue
		}
		for _, name := range scope.names {
			if t.dialect.Ignores(name) {
				continue
			}
			for _, i := range scope.bindings[name] {
				binding := t.Bindings[i]
				if binding.Read || !binding.Kind.Reportable() {
					continue
				}
				findings = append(findings, Finding{
					Name:    name,
					Message: fmt.Sprintf("Remove the unused local variable %q.", name),
					Span:    binding.Span,
				})
			}
		}
	}

	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Span.StartLine != findings[j].Span.StartLine {
			return findings[i].Span.StartLine < findings[j].Span.StartLine
		}
		return findings[i].Span.StartCol < findings[j].Span.StartCol
	})
	return findings
}

// Analyze resolves all usages and evaluates liveness in one call.
func (t *ScopeTree) Analyze() []Finding {
	t.Resolve()
	return t.Evaluate()
}

// SuppressedCount returns how many scopes are exempt because of an escape
// hatch in their subtree.
func (t *ScopeTree) SuppressedCount() int {
	return len(t.suppressedScopes())
}

// suppressedScopes marks every dynamic scope and all of its ancestors:
// reflective access from a nested scope can observe enclosing bindings as
// data, so unreadness is unprovable for the whole chain.
func (t *ScopeTree) suppressedScopes() map[int]bool {
	suppressed := make(map[int]bool)
	for _, scope := range t.Scopes {
		if !scope.Dynamic {
			continue
		}
		for id := scope.ID; id >= 0; id = t.Scopes[id].Parent {
			if suppressed[id] {
				break
			}
			suppressed[id] = true
		}
	}
	return suppressed
}
