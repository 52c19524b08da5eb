package procedure

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Module is the interface that all procedure modules must implement to be registered.
type Module interface {
	Register(r *Registry) error
}

// Registry maps symbol names to procedures. Lookups always read the current
// registration, so replacing a procedure changes subsequent resolution.
type Registry struct {
	mu    sync.RWMutex
	procs map[string]*Procedure
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{procs: make(map[string]*Procedure)}
}

// Register adds p under p.Name, replacing any previous registration.
func (r *Registry) Register(p *Procedure) error {
	if err := p.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.procs[p.Name]; exists {
		slog.Debug("Replacing procedure registration.", "name", p.Name, "arity", p.Arity.String())
	} else {
		slog.Debug("Registering procedure.", "name", p.Name, "arity", p.Arity.String())
	}
	r.procs[p.Name] = p
	return nil
}

// MustRegister is like Register but panics on error. It is intended for
// module Register methods with static definitions.
func (r *Registry) MustRegister(p *Procedure) {
	if err := r.Register(p); err != nil {
		panic(fmt.Sprintf("procedure registration failed: %v", err))
	}
}

// Unregister removes the procedure named name, reporting whether it existed.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.procs[name]
	delete(r.procs, name)
	return ok
}

// Lookup returns the procedure currently registered under symbol.
func (r *Registry) Lookup(symbol string) (*Procedure, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.procs[symbol]
	return p, ok
}

// Names returns all registered symbols in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.procs))
	for name := range r.procs {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Len returns the number of registered procedures.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.procs)
}

// Load registers every module in order, stopping at the first failure.
func (r *Registry) Load(modules ...Module) error {
	for _, m := range modules {
		if err := m.Register(r); err != nil {
			return fmt.Errorf("failed to register module %T: %w", m, err)
		}
	}
	return nil
}
