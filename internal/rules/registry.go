package rules

import "sort"

// Registry holds the rules a session may bind to schema fields. The catalog
// served to editors is derived from it.
type Registry struct {
	rules map[string]Rule
}

// NewRegistry creates a registry with the built-in rule set.
func NewRegistry() *Registry {
	r := &Registry{rules: make(map[string]Rule)}
	for _, rule := range []Rule{
		NoVacio{},
		Positivo{},
		MayorACero{},
		Rango{},
		LongitudMinima{},
		LongitudMaxima{},
		NoFuturo{},
	} {
		r.rules[rule.Name()] = rule
	}
	return r
}

// Get returns the rule registered under name.
func (r *Registry) Get(name string) (Rule, bool) {
	rule, ok := r.rules[name]
	return rule, ok
}

// Catalog returns the registered rule names in stable order.
func (r *Registry) Catalog() []string {
	names := make([]string, 0, len(r.rules))
	for name := range r.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MissingParams reports which required parameters of the named rule are
// absent from params.
func (r *Registry) MissingParams(name string, params map[string]any) []string {
	rule, ok := r.rules[name]
	if !ok {
		return nil
	}

	var missing []string
	for _, p := range rule.RequiredParams() {
		if _, present := params[p]; !present {
			missing = append(missing, p)
		}
	}
	return missing
}
