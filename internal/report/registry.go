package report

import (
	"fmt"

	"seqreport/pkg/reportapi"
)

// Registry accumulates report modules in registration order. Order is
// significant: the runner executes modules and renders their sections in
// the order they were registered.
type Registry struct {
	names   map[string]struct{}
	modules []reportapi.Module
}

// NewRegistry constructs an empty module registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]struct{})}
}

// Register adds a module. Modules with an empty name or a name already
// registered are rejected.
func (r *Registry) Register(m reportapi.Module) error {
	if m == nil {
		return fmt.Errorf("module cannot be nil")
	}
	info := m.Info()
	if info.Name == "" {
		return fmt.Errorf("module name cannot be empty")
	}
	if _, exists := r.names[info.Name]; exists {
		return fmt.Errorf("module %s already registered", info.Name)
	}
	r.names[info.Name] = struct{}{}
	r.modules = append(r.modules, m)
	return nil
}

// Modules returns registered modules in registration order.
func (r *Registry) Modules() []reportapi.Module {
	out := make([]reportapi.Module, len(r.modules))
	copy(out, r.modules)
	return out
}

// Lookup returns the module with the given name, or false.
func (r *Registry) Lookup(name string) (reportapi.Module, bool) {
	for _, m := range r.modules {
		if m.Info().Name == name {
			return m, true
		}
	}
	return nil, false
}
