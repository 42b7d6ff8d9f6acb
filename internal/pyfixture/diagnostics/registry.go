package diagnostics

import "strings"

// Check is one independently toggleable diagnostic rule.
type Check struct {
	Name     string
	Category string
	Run      func(*Pass) []Diagnostic
}

// Registry holds every known Check with enable/disable controls by exact
// name, category, or glob pattern, mirroring
// internal/starlark/linter/registry.go's Enable/Disable shape.
type Registry struct {
	checks     map[string]*Check
	enabled    map[string]bool
	categories map[string][]string
}

// NewRegistry returns a Registry with every check enabled by default.
func NewRegistry() *Registry {
	return &Registry{
		checks:     make(map[string]*Check),
		enabled:    make(map[string]bool),
		categories: make(map[string][]string),
	}
}

func (r *Registry) Register(checks ...*Check) {
	for _, c := range checks {
		r.checks[c.Name] = c
		r.enabled[c.Name] = true
		if c.Category != "" {
			r.categories[c.Category] = append(r.categories[c.Category], c.Name)
		}
	}
}

// Enable enables checks by exact name, category, glob ("scope-*"), or "all".
func (r *Registry) Enable(names ...string) { r.setEnabled(true, names) }

// Disable disables checks by exact name, category, glob, or "all".
func (r *Registry) Disable(names ...string) { r.setEnabled(false, names) }

func (r *Registry) setEnabled(value bool, names []string) {
	for _, name := range names {
		switch {
		case name == "all":
			for n := range r.checks {
				r.enabled[n] = value
			}
		case r.checks[name] != nil:
			r.enabled[name] = value
		case r.categories[name] != nil:
			for _, n := range r.categories[name] {
				r.enabled[n] = value
			}
		case strings.Contains(name, "*"):
			for n := range r.checks {
				if matchGlob(name, n) {
					r.enabled[n] = value
				}
			}
		}
	}
}

// Enabled returns every currently enabled check, sorted by name for a
// deterministic run order.
func (r *Registry) Enabled() []*Check {
	var out []*Check
	for name, c := range r.checks {
		if r.enabled[name] {
			out = append(out, c)
		}
	}
	sortChecksByName(out)
	return out
}

func sortChecksByName(checks []*Check) {
	for i := 1; i < len(checks); i++ {
		for j := i; j > 0 && checks[j].Name < checks[j-1].Name; j-- {
			checks[j], checks[j-1] = checks[j-1], checks[j]
		}
	}
}

// matchGlob supports only a single '*' wildcard, the same restriction the
// teacher's linter registry imposes.
func matchGlob(pattern, str string) bool {
	if !strings.Contains(pattern, "*") {
		return pattern == str
	}
	parts := strings.SplitN(pattern, "*", 2)
	prefix, suffix := parts[0], parts[1]
	return strings.HasPrefix(str, prefix) && strings.HasSuffix(str, suffix) &&
		len(str) >= len(prefix)+len(suffix)
}
