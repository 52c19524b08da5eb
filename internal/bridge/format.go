package bridge

import (
	"strconv"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Format renders v for logs and CLI output. Atoms render as their
// s-expression key.
func Format(v cty.Value) string {
	if v.Type() == cty.NilType {
		return "<nil>"
	}
	switch {
	case !v.IsKnown():
		return "(unknown)"
	case v.IsNull():
		return "null"
	case IsAtom(v):
		a, _ := AtomFromValue(v)
		return a.String()
	case v.Type().Equals(cty.String):
		return strconv.Quote(v.AsString())
	case v.Type().Equals(cty.Number):
		return v.AsBigFloat().Text('f', -1)
	case v.Type().Equals(cty.Bool):
		return strconv.FormatBool(v.True())
	case v.Type().IsObjectType() || v.Type().IsMapType():
		var parts []string
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			parts = append(parts, k.AsString()+" = "+Format(ev))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case v.CanIterateElements():
		var parts []string
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			parts = append(parts, Format(ev))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return v.GoString()
	}
}
