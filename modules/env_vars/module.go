package env_vars

import (
	"fmt"
	"os"

	"github.com/specialistvlad/atomgrid/internal/atom"
	"github.com/specialistvlad/atomgrid/internal/atomspace"
	"github.com/specialistvlad/atomgrid/internal/procedure"
)

// Module implements the procedure.Module interface for this package.
type Module struct {
	// Lookup replaces os.LookupEnv, mainly for tests.
	Lookup func(key string) (string, bool)
}

func (m *Module) lookup(key string) (string, bool) {
	if m.Lookup != nil {
		return m.Lookup(key)
	}
	return os.LookupEnv(key)
}

// getenv returns (ConceptNode <value>) for the variable named by a node.
func (m *Module) getenv(space atomspace.Space, name atom.Atom) (atom.Atom, error) {
	n, ok := atom.IsNode(name)
	if !ok {
		return nil, fmt.Errorf("getenv expects a node naming the variable, got %s", name)
	}
	value, ok := m.lookup(n.Name())
	if !ok {
		return nil, fmt.Errorf("environment variable %q is not set", n.Name())
	}
	return space.AddNode(atom.ConceptNode, value)
}

// Register registers the procedure with the registry.
func (m *Module) Register(r *procedure.Registry) error {
	p, err := procedure.Wrap("getenv", m.getenv, "name")
	if err != nil {
		return err
	}
	return r.Register(p.WithDescription("Returns the value of an environment variable as a ConceptNode."))
}
