// Package procedure provides the callable abstraction invoked by executable
// links, and the registry that maps symbol names to procedures.
//
// Every Procedure declares its own Arity, which the evaluator checks before
// invocation. Callables receive graph atoms, not primitive values, together
// with the space each atom belongs to so they can intern new atoms there.
package procedure

import (
	"context"
	"fmt"

	"github.com/specialistvlad/atomgrid/internal/atom"
	"github.com/specialistvlad/atomgrid/internal/atomspace"
	"github.com/specialistvlad/atomgrid/internal/execerr"
)

// Variadic is the Max of an Arity with no upper bound.
const Variadic = -1

// Arity is the declared range of positional arguments a procedure accepts.
type Arity struct {
	Min int
	Max int
}

// Exactly returns a fixed arity.
func Exactly(n int) Arity { return Arity{Min: n, Max: n} }

// AtLeast returns a variadic arity with a required minimum.
func AtLeast(n int) Arity { return Arity{Min: n, Max: Variadic} }

// Between returns a bounded range.
func Between(lo, hi int) Arity { return Arity{Min: lo, Max: hi} }

// IsVariadic reports whether the arity has no upper bound.
func (a Arity) IsVariadic() bool { return a.Max == Variadic }

// Validate reports whether the arity is well-formed.
func (a Arity) Validate() error {
	if a.Min < 0 {
		return fmt.Errorf("arity minimum cannot be negative, got %d", a.Min)
	}
	if a.Max != Variadic && a.Max < a.Min {
		return fmt.Errorf("arity maximum %d is below minimum %d", a.Max, a.Min)
	}
	return nil
}

// String renders the arity, e.g. "1", "1..3" or "2+".
func (a Arity) String() string {
	switch {
	case a.IsVariadic():
		return fmt.Sprintf("%d+", a.Min)
	case a.Min == a.Max:
		return fmt.Sprintf("%d", a.Min)
	default:
		return fmt.Sprintf("%d..%d", a.Min, a.Max)
	}
}

// Check returns an *execerr.ArityMismatchError when actual does not fit.
func (a Arity) Check(name string, params []string, actual int) error {
	switch {
	case actual < a.Min:
		return &execerr.ArityMismatchError{
			Procedure: name, Expected: a.Min, Actual: actual,
			Min: a.Min, Max: a.Max, Kind: execerr.TooFew, Params: params,
		}
	case !a.IsVariadic() && actual > a.Max:
		return &execerr.ArityMismatchError{
			Procedure: name, Expected: a.Max, Actual: actual,
			Min: a.Min, Max: a.Max, Kind: execerr.TooMany, Params: params,
		}
	}
	return nil
}

// Argument is one positional argument: the atom and the space it belongs to.
type Argument struct {
	Atom  atom.Atom
	Space atomspace.Space
}

// Call is a single invocation of a procedure.
type Call struct {
	// Space is the space the execution was determined to run against.
	Space atomspace.Space
	Args  []Argument
}

// Len returns the number of arguments.
func (c *Call) Len() int { return len(c.Args) }

// Arg returns the atom of the i-th argument.
func (c *Call) Arg(i int) atom.Atom { return c.Args[i].Atom }

// Atoms returns the argument atoms in order.
func (c *Call) Atoms() []atom.Atom {
	out := make([]atom.Atom, len(c.Args))
	for i, a := range c.Args {
		out[i] = a.Atom
	}
	return out
}

// Func is the implementation of a procedure. It should return a single atom;
// any other value is rejected by the evaluator.
type Func func(ctx context.Context, call *Call) (any, error)

// Procedure is a named callable with a declared arity.
type Procedure struct {
	Name        string
	Description string
	Arity       Arity
	// Params optionally names the positional parameters for diagnostics.
	Params []string
	Fn     Func
}

// New constructs a procedure from an explicit arity and implementation.
func New(name string, arity Arity, fn Func) *Procedure {
	return &Procedure{Name: name, Arity: arity, Fn: fn}
}

// WithParams sets parameter names and returns p.
func (p *Procedure) WithParams(names ...string) *Procedure {
	p.Params = names
	return p
}

// WithDescription sets the description and returns p.
func (p *Procedure) WithDescription(desc string) *Procedure {
	p.Description = desc
	return p
}

// Validate reports whether the procedure can be registered.
func (p *Procedure) Validate() error {
	if p == nil {
		return fmt.Errorf("procedure cannot be nil")
	}
	if p.Name == "" {
		return fmt.Errorf("procedure name cannot be empty")
	}
	if p.Fn == nil {
		return fmt.Errorf("procedure %q has no implementation", p.Name)
	}
	if err := p.Arity.Validate(); err != nil {
		return fmt.Errorf("procedure %q: %w", p.Name, err)
	}
	return nil
}
