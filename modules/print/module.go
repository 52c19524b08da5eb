package print

import (
	"context"

	"github.com/specialistvlad/atomgrid/internal/atom"
	"github.com/specialistvlad/atomgrid/internal/ctxlog"
	"github.com/specialistvlad/atomgrid/internal/procedure"
)

// Module implements the procedure.Module interface for this package.
type Module struct{}

// Print logs every argument and passes its input through: the single
// argument itself, or a ListLink of all arguments.
func Print(ctx context.Context, call *procedure.Call) (any, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Printing atoms", "count", call.Len())
	for i, a := range call.Atoms() {
		logger.Info("      "+a.String(), "index", i)
	}

	if call.Len() == 1 {
		return call.Arg(0), nil
	}
	return call.Space.AddLink(atom.ListLink, call.Atoms()...)
}

// Register registers the procedure with the registry.
func (m *Module) Register(r *procedure.Registry) error {
	return r.Register(procedure.New("print", procedure.AtLeast(1), Print).
		WithParams("atom").
		WithDescription("Logs its arguments and returns them."))
}
