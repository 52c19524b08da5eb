package bridge

import (
	"fmt"
	"reflect"

	"github.com/specialistvlad/atomgrid/internal/atom"
	"github.com/zclconf/go-cty/cty"
)

// AtomType is the cty type of an atom crossing into HCL expressions. Two atom
// values are equal iff they hold the same canonical atom.
var AtomType = cty.CapsuleWithOps("atom", reflect.TypeOf((*atom.Atom)(nil)).Elem(), &cty.CapsuleOps{
	GoString: func(v interface{}) string {
		return fmt.Sprintf("bridge.AtomVal(%s)", *v.(*atom.Atom))
	},
	TypeGoString: func(reflect.Type) string {
		return "bridge.AtomType"
	},
	RawEquals: func(a, b interface{}) bool {
		return *a.(*atom.Atom) == *b.(*atom.Atom)
	},
	Equals: func(a, b interface{}) cty.Value {
		return cty.BoolVal(*a.(*atom.Atom) == *b.(*atom.Atom))
	},
})

// AtomVal wraps a in a cty value of AtomType.
func AtomVal(a atom.Atom) cty.Value {
	return cty.CapsuleVal(AtomType, &a)
}

// AtomFromValue unwraps an atom from v.
func AtomFromValue(v cty.Value) (atom.Atom, error) {
	if !v.Type().Equals(AtomType) {
		return nil, fmt.Errorf("expected an atom, got %s", v.Type().FriendlyName())
	}
	if v.IsNull() || !v.IsKnown() {
		return nil, fmt.Errorf("atom value is null or unknown")
	}
	return *v.EncapsulatedValue().(*atom.Atom), nil
}

// IsAtom reports whether v holds an atom.
func IsAtom(v cty.Value) bool {
	return v.Type().Equals(AtomType) && v.IsKnown() && !v.IsNull()
}
