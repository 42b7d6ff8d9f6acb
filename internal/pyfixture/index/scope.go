package index

// Scope is a fixture's lifetime, narrowest to widest.
type Scope int

const (
	ScopeFunction Scope = iota
	ScopeClass
	ScopeModule
	ScopePackage
	ScopeSession
)

// String returns the framework's keyword spelling for the scope.
func (s Scope) String() string {
	switch s {
	case ScopeFunction:
		return "function"
	case ScopeClass:
		return "class"
	case ScopeModule:
		return "module"
	case ScopePackage:
		return "package"
	case ScopeSession:
		return "session"
	default:
		return "function"
	}
}

// ParseScope maps a decorator keyword-argument string to a Scope.
// Unrecognized values default to ScopeFunction, matching the framework's
// own default when the `scope=` keyword is omitted.
func ParseScope(s string) Scope {
	switch s {
	case "class":
		return ScopeClass
	case "module":
		return ScopeModule
	case "package":
		return ScopePackage
	case "session":
		return ScopeSession
	default:
		return ScopeFunction
	}
}
