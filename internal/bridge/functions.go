package bridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/specialistvlad/atomgrid/internal/atom"
	"github.com/specialistvlad/atomgrid/internal/atomspace"
	"github.com/specialistvlad/atomgrid/internal/evaluator"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// session binds expression functions to one space and one request context.
// It remembers the last typed failure so it survives HCL diagnostics.
type session struct {
	ctx      context.Context
	space    atomspace.Space
	executor Executor

	mu      sync.Mutex
	lastErr error
}

func (s *session) fail(err error) error {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	return err
}

func (s *session) cause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// functions returns the expression functions available in this session: one
// constructor per registered atom type plus the execution helpers.
func (s *session) functions() map[string]function.Function {
	fns := map[string]function.Function{
		"execute":   s.executeFunc(),
		"name":      nameFunc,
		"atom_type": atomTypeFunc,
		"outgoing":  outgoingFunc,
	}
	for _, t := range atom.Types() {
		if t.IsNode() {
			fns[t.String()] = s.nodeFunc(t)
		} else {
			fns[t.String()] = s.linkFunc(t)
		}
	}
	return fns
}

func (s *session) nodeFunc(t atom.Type) function.Function {
	return function.New(&function.Spec{
		Description: fmt.Sprintf("Interns a %s with the given name.", t),
		Params:      []function.Parameter{{Name: "name", Type: cty.String}},
		Type:        function.StaticReturnType(AtomType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			n, err := s.space.AddNode(t, args[0].AsString())
			if err != nil {
				return cty.NilVal, s.fail(err)
			}
			return AtomVal(n), nil
		},
	})
}

func (s *session) linkFunc(t atom.Type) function.Function {
	return function.New(&function.Spec{
		Description: fmt.Sprintf("Interns a %s over the given atoms.", t),
		VarParam:    &function.Parameter{Name: "outgoing", Type: AtomType},
		Type:        function.StaticReturnType(AtomType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			out := make([]atom.Atom, len(args))
			for i, v := range args {
				a, err := AtomFromValue(v)
				if err != nil {
					return cty.NilVal, function.NewArgError(i, err)
				}
				out[i] = a
			}
			l, err := s.space.AddLink(t, out...)
			if err != nil {
				return cty.NilVal, s.fail(err)
			}
			return AtomVal(l), nil
		},
	})
}

func (s *session) executeFunc() function.Function {
	return function.New(&function.Spec{
		Description: "Executes an ExecutionOutputLink against the session's space.",
		Params:      []function.Parameter{{Name: "link", Type: AtomType}},
		Type:        function.StaticReturnType(AtomType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			target, err := AtomFromValue(args[0])
			if err != nil {
				return cty.NilVal, function.NewArgError(0, err)
			}
			result, err := s.executor.Execute(s.ctx, target, evaluator.WithSpace(s.space))
			if err != nil {
				return cty.NilVal, s.fail(err)
			}
			return AtomVal(result), nil
		},
	})
}

var nameFunc = function.New(&function.Spec{
	Description: "Returns the name of a node.",
	Params:      []function.Parameter{{Name: "node", Type: AtomType}},
	Type:        function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		a, err := AtomFromValue(args[0])
		if err != nil {
			return cty.NilVal, function.NewArgError(0, err)
		}
		n, ok := atom.IsNode(a)
		if !ok {
			return cty.NilVal, function.NewArgErrorf(0, "%s is not a node", a)
		}
		return cty.StringVal(n.Name()), nil
	},
})

var atomTypeFunc = function.New(&function.Spec{
	Description: "Returns the type name of an atom.",
	Params:      []function.Parameter{{Name: "atom", Type: AtomType}},
	Type:        function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		a, err := AtomFromValue(args[0])
		if err != nil {
			return cty.NilVal, function.NewArgError(0, err)
		}
		return cty.StringVal(a.Type().String()), nil
	},
})

var outgoingFunc = function.New(&function.Spec{
	Description: "Returns the outgoing atoms of a link as a tuple.",
	Params:      []function.Parameter{{Name: "link", Type: AtomType}},
	Type: func(args []cty.Value) (cty.Type, error) {
		if !args[0].IsKnown() {
			return cty.DynamicPseudoType, nil
		}
		a, err := AtomFromValue(args[0])
		if err != nil {
			return cty.NilType, function.NewArgError(0, err)
		}
		l, ok := atom.IsLink(a)
		if !ok {
			return cty.NilType, function.NewArgErrorf(0, "%s is not a link", a)
		}
		types := make([]cty.Type, l.Arity())
		for i := range types {
			types[i] = AtomType
		}
		return cty.Tuple(types), nil
	},
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		a, _ := AtomFromValue(args[0])
		l, _ := atom.IsLink(a)
		vals := make([]cty.Value, l.Arity())
		for i := range vals {
			vals[i] = AtomVal(l.At(i))
		}
		return cty.TupleVal(vals), nil
	},
})
