package procedure

import (
	"context"
	"fmt"
	"reflect"

	"github.com/specialistvlad/atomgrid/internal/atom"
	"github.com/specialistvlad/atomgrid/internal/atomspace"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	spaceType   = reflect.TypeOf((*atomspace.Space)(nil)).Elem()
	atomType    = reflect.TypeOf((*atom.Atom)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Wrap adapts a plain Go function into a Procedure, deriving its arity from
// the function signature. Accepted shapes are
//
//	func([ctx context.Context,] [space atomspace.Space,] a1, ..., aN atom.Atom [, rest ...atom.Atom]) R
//	func(...same parameters...) (R, error)
//
// where R is any type. The arity is exactly N, or at least N when the function
// is variadic. The optional space parameter receives the call's space.
func Wrap(name string, fn any, params ...string) (*Procedure, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return nil, fmt.Errorf("procedure %q: expected a function, got %T", name, fn)
	}
	ft := v.Type()

	i := 0
	wantsCtx := ft.NumIn() > i && ft.In(i) == contextType
	if wantsCtx {
		i++
	}
	wantsSpace := ft.NumIn() > i && ft.In(i) == spaceType
	if wantsSpace {
		i++
	}

	last := ft.NumIn()
	if ft.IsVariadic() {
		last--
		if ft.In(last).Elem() != atomType {
			return nil, fmt.Errorf("procedure %q: variadic parameter must be ...atom.Atom, got %s", name, ft.In(last))
		}
	}
	fixed := 0
	for ; i < last; i++ {
		if ft.In(i) != atomType {
			return nil, fmt.Errorf("procedure %q: parameter %d must be atom.Atom, got %s", name, i, ft.In(i))
		}
		fixed++
	}

	switch ft.NumOut() {
	case 1:
	case 2:
		if ft.Out(1) != errorType {
			return nil, fmt.Errorf("procedure %q: second result must be error, got %s", name, ft.Out(1))
		}
	default:
		return nil, fmt.Errorf("procedure %q: expected 1 or 2 results, got %d", name, ft.NumOut())
	}

	arity := Exactly(fixed)
	if ft.IsVariadic() {
		arity = AtLeast(fixed)
	}

	p := &Procedure{Name: name, Arity: arity, Params: params}
	p.Fn = func(ctx context.Context, call *Call) (any, error) {
		if err := arity.Check(name, p.Params, call.Len()); err != nil {
			return nil, err
		}

		in := make([]reflect.Value, 0, call.Len()+2)
		if wantsCtx {
			in = append(in, reflect.ValueOf(&ctx).Elem())
		}
		if wantsSpace {
			space := call.Space
			in = append(in, reflect.ValueOf(&space).Elem())
		}
		for _, arg := range call.Args {
			a := arg.Atom
			in = append(in, reflect.ValueOf(&a).Elem())
		}

		out := v.Call(in)
		var err error
		if len(out) == 2 && !out[1].IsNil() {
			err = out[1].Interface().(error)
		}
		return out[0].Interface(), err
	}
	return p, nil
}

// MustWrap is like Wrap but panics on error.
func MustWrap(name string, fn any, params ...string) *Procedure {
	p, err := Wrap(name, fn, params...)
	if err != nil {
		panic(err)
	}
	return p
}
