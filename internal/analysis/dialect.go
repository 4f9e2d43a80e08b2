// # internal/analysis/dialect.go
package analysis

// Dialect carries the language-specific scoping rules the engine is
// parameterized over, so the same analysis runs across several grammars.
type Dialect struct {
	Name string

	// ComprehensionScopes controls whether comprehension targets live in a
	// scope of their own or leak into the enclosing scope.
	ComprehensionScopes bool

	// EscapeHatches lists callee names that grant reflective access to a
	// scope's live bindings. A call to any of them suppresses unused
	// reporting for the enclosing scope chain.
	EscapeHatches []string

	// IgnoredNames are binding names that never produce findings, by
	// convention (typically the placeholder "_").
	IgnoredNames []string
}

// IsEscapeHatch reports whether callee is a recognized reflective access.
func (d Dialect) IsEscapeHatch(callee string) bool {
	for _, name := range d.EscapeHatches {
		if name == callee {
			return true
		}
	}
	return false
}

// Ignores reports whether bindings of this name are exempt by convention.
func (d Dialect) Ignores(name string) bool {
	for _, ignored := range d.IgnoredNames {
		if ignored == name {
			return true
		}
	}
	return false
}

// Python3 is the default Python dialect: comprehensions scope their targets.
func Python3() Dialect {
	return Dialect{
		Name:                "python3",
		ComprehensionScopes: true,
		EscapeHatches:       []string{"locals", "vars"},
		IgnoredNames:        []string{"_"},
	}
}

// Python2 differs in one relevant way: comprehension targets leak into the
// enclosing scope.
func Python2() Dialect {
	d := Python3()
	d.Name = "python2"
	d.ComprehensionScopes = false
	return d
}

// ECMAScript covers JavaScript and TypeScript sources. Comprehensions do not
// exist there; eval defeats static liveness tracking.
func ECMAScript() Dialect {
	return Dialect{
		Name:                "ecmascript",
		ComprehensionScopes: true,
		EscapeHatches:       []string{"eval"},
		IgnoredNames:        []string{"_"},
	}
}

// DialectByName resolves a configured dialect name, defaulting to Python3.
func DialectByName(name string) (Dialect, bool) {
	switch name {
	case "", "python3":
		return Python3(), true
	case "python2":
		return Python2(), true
	case "ecmascript", "javascript", "typescript":
		return ECMAScript(), true
	default:
		return Dialect{}, false
	}
}
