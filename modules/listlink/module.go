// Package listlink provides add_link, which pairs two atoms in a ListLink.
package listlink

import (
	"github.com/specialistvlad/atomgrid/internal/atom"
	"github.com/specialistvlad/atomgrid/internal/atomspace"
	"github.com/specialistvlad/atomgrid/internal/procedure"
)

// Module implements the procedure.Module interface for this package.
type Module struct{}

// AddLink returns (ListLink atom1 atom2) interned in space.
func AddLink(space atomspace.Space, atom1, atom2 atom.Atom) (atom.Atom, error) {
	return space.AddLink(atom.ListLink, atom1, atom2)
}

// Register registers the procedure with the registry.
func (m *Module) Register(r *procedure.Registry) error {
	p, err := procedure.Wrap("add_link", AddLink, "atom1", "atom2")
	if err != nil {
		return err
	}
	return r.Register(p.WithDescription("Links two atoms in a ListLink."))
}
