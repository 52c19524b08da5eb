// Package concept provides return_concept, which ignores its argument and
// returns (ConceptNode "test") from the argument's space.
package concept

import (
	"context"

	"github.com/specialistvlad/atomgrid/internal/atom"
	"github.com/specialistvlad/atomgrid/internal/procedure"
)

// Name is the node name returned by return_concept.
const Name = "test"

// Module implements the procedure.Module interface for this package.
type Module struct{}

// ReturnConcept interns (ConceptNode "test") in the space of its argument.
func ReturnConcept(ctx context.Context, call *procedure.Call) (any, error) {
	return call.Args[0].Space.AddNode(atom.ConceptNode, Name)
}

// Register registers the procedure with the registry.
func (m *Module) Register(r *procedure.Registry) error {
	return r.Register(procedure.New("return_concept", procedure.Exactly(1), ReturnConcept).
		WithParams("atom").
		WithDescription("Returns the ConceptNode \"test\" from the argument's space."))
}
