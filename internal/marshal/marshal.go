// Package marshal converts the argument list of an executable link into the
// positional arguments handed to a procedure.
package marshal

import (
	"github.com/specialistvlad/atomgrid/internal/atom"
	"github.com/specialistvlad/atomgrid/internal/atomspace"
	"github.com/specialistvlad/atomgrid/internal/execerr"
	"github.com/specialistvlad/atomgrid/internal/procedure"
)

// Arguments returns one Argument per element of list, in order, each paired
// with space. Elements are passed as-is; nested executable links are not
// evaluated. Arity is not checked here.
func Arguments(list atom.Atom, space atomspace.Space) ([]procedure.Argument, error) {
	link, ok := atom.IsLink(list)
	if !ok {
		desc := "<nil>"
		if list != nil {
			desc = list.String()
		}
		return nil, &execerr.MalformedExecutionLinkError{Atom: desc, Reason: "argument list must be a link"}
	}

	args := make([]procedure.Argument, link.Arity())
	for i := range args {
		args[i] = procedure.Argument{Atom: link.At(i), Space: space}
	}
	return args, nil
}
