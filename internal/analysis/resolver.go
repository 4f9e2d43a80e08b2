// # internal/analysis/resolver.go
package analysis

// Resolve walks every recorded usage site from its enclosing scope upward
// through parent links until a scope with a binding for the name is found,
// and marks those bindings read. Reads inside nested functions, lambdas and
// comprehensions that land in an enclosing function scope count as closure
// captures of that scope's bindings.
//
// A usage that matches no binding at all (builtins, truly free names) is
// silently ignored: this analysis judges bound-but-unread names, never
// undefined ones.
func (t *ScopeTree) Resolve() {
	for _, usage := range t.Usages {
		t.resolve(usage)
	}
}

func (t *ScopeTree) resolve(usage UsageSite) {
	origin := usage.Scope
	for id := origin; id >= 0; id = t.Scopes[id].Parent {
		scope := t.Scopes[id]

		// Class bodies are not visible to code nested inside them; only
		// reads occurring directly in the class body see its bindings.
		if scope.Kind == ScopeClass && id != origin {
			continue
		}

		// A global declaration makes every occurrence of the name in this
		// scope refer to the module scope, even when enclosing function
		// scopes bind the same name.
		if scope.globals[usage.Name] {
			id = 0
			scope = t.Scopes[0]
		} else if redirected, ok := scope.nonlocals[usage.Name]; ok && id == origin {
			id = redirected
			scope = t.Scopes[id]
		}

		indices, ok := scope.bindings[usage.Name]
		if !ok {
			if id == 0 {
				return
			}
			continue
		}

		// The nearest enclosing scope wins; every binding of the name in
		// that scope counts as read, so write/read/write sequences never
		// produce findings for any of the writes.
		for _, i := range indices {
			t.Bindings[i].Read = true
		}
		return
	}
}
