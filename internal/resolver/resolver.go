// Package resolver maps schema names of the form "<prefix>:<symbol>" to
// procedures. The prefix selects a backend registry and the symbol is looked
// up in it on every call, so registrations made after a link was built are
// honored.
package resolver

//go:generate mockgen -source=resolver.go -destination=mocks/mocks.go -package=mocks Backend

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/specialistvlad/atomgrid/internal/execerr"
	"github.com/specialistvlad/atomgrid/internal/procedure"
)

// Delimiter separates the namespace prefix from the symbol.
const Delimiter = ":"

// Backend is a symbol table for one namespace.
type Backend interface {
	Lookup(symbol string) (*procedure.Procedure, bool)
}

// Resolver dispatches schema names to backends by prefix.
type Resolver struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

// New creates a resolver with no backends.
func New() *Resolver {
	return &Resolver{backends: make(map[string]Backend)}
}

// Register binds prefix to backend, replacing any previous binding.
func (r *Resolver) Register(prefix string, backend Backend) error {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return fmt.Errorf("resolver prefix cannot be empty")
	}
	if strings.Contains(prefix, Delimiter) {
		return fmt.Errorf("resolver prefix %q cannot contain %q", prefix, Delimiter)
	}
	if backend == nil {
		return fmt.Errorf("resolver backend for prefix %q cannot be nil", prefix)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[prefix] = backend
	slog.Debug("Registered resolver backend.", "prefix", prefix, "backend", fmt.Sprintf("%T", backend))
	return nil
}

// Backend returns the backend bound to prefix.
func (r *Resolver) Backend(prefix string) (Backend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[prefix]
	return b, ok
}

// Prefixes returns the bound prefixes in sorted order.
func (r *Resolver) Prefixes() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.backends))
	for p := range r.backends {
		out = append(out, p)
	}
	r.mu.RUnlock()

	sort.Strings(out)
	return out
}

// ParseName splits name on the first delimiter. Whitespace around both parts
// is ignored, so "py: add_link" and "py:add_link" are the same name.
func ParseName(name string) (prefix, symbol string, err error) {
	prefix, symbol, found := strings.Cut(name, Delimiter)
	if !found {
		return "", "", &execerr.UnresolvedSchemaError{Name: name, Reason: "missing namespace prefix"}
	}
	prefix, symbol = strings.TrimSpace(prefix), strings.TrimSpace(symbol)
	if prefix == "" {
		return "", "", &execerr.UnresolvedSchemaError{Name: name, Reason: "empty namespace prefix"}
	}
	if symbol == "" {
		return "", "", &execerr.UnresolvedSchemaError{Name: name, Reason: "empty symbol"}
	}
	return prefix, symbol, nil
}

// Resolve returns the procedure currently registered for name.
func (r *Resolver) Resolve(name string) (*procedure.Procedure, error) {
	prefix, symbol, err := ParseName(name)
	if err != nil {
		return nil, err
	}

	backend, ok := r.Backend(prefix)
	if !ok {
		return nil, &execerr.UnresolvedSchemaError{Name: name, Reason: fmt.Sprintf("unknown namespace %q", prefix)}
	}

	p, ok := backend.Lookup(symbol)
	if !ok || p == nil {
		return nil, &execerr.UnresolvedSchemaError{Name: name, Reason: fmt.Sprintf("symbol %q is not defined", symbol)}
	}
	return p, nil
}

// Names lists every resolvable name as "<prefix>:<symbol>" for backends that
// can enumerate their symbols.
func (r *Resolver) Names() []string {
	var out []string
	for _, prefix := range r.Prefixes() {
		b, _ := r.Backend(prefix)
		lister, ok := b.(interface{ Names() []string })
		if !ok {
			continue
		}
		for _, sym := range lister.Names() {
			out = append(out, prefix+Delimiter+sym)
		}
	}
	return out
}
