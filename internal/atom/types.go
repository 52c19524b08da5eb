package atom

import (
	"fmt"
	"sort"
	"sync"
)

// Type is the tag distinguishing atom kinds, e.g. ConceptNode or ListLink.
type Type uint16

// Kind is the variant an atom type belongs to.
type Kind int

const (
	// KindInvalid marks an unregistered type.
	KindInvalid Kind = iota
	// KindNode marks a named atom with no outgoing set.
	KindNode
	// KindLink marks an atom with an ordered outgoing set.
	KindLink
)

// NoType is the zero Type. It is never registered.
const NoType Type = 0

type typeInfo struct {
	name string
	kind Kind
}

var (
	typesMu sync.RWMutex
	types   = map[Type]typeInfo{}
	byName  = map[string]Type{}
	next    = Type(1)
)

// The minimal catalogue needed to express "invoke procedure P with arguments A".
var (
	ConceptNode        = MustRegisterType("ConceptNode", KindNode)
	PredicateNode      = MustRegisterType("PredicateNode", KindNode)
	NumberNode         = MustRegisterType("NumberNode", KindNode)
	GroundedSchemaNode = MustRegisterType("GroundedSchemaNode", KindNode)

	ListLink            = MustRegisterType("ListLink", KindLink)
	ExecutionOutputLink = MustRegisterType("ExecutionOutputLink", KindLink)
	EvaluationLink      = MustRegisterType("EvaluationLink", KindLink)
	InheritanceLink     = MustRegisterType("InheritanceLink", KindLink)
)

// RegisterType adds a new atom type to the process-wide catalogue. Registering
// an existing name with the same kind returns the existing tag.
func RegisterType(name string, kind Kind) (Type, error) {
	if name == "" {
		return NoType, fmt.Errorf("atom type name cannot be empty")
	}
	if kind != KindNode && kind != KindLink {
		return NoType, fmt.Errorf("atom type %q has invalid kind %d", name, kind)
	}

	typesMu.Lock()
	defer typesMu.Unlock()

	if t, ok := byName[name]; ok {
		if types[t].kind != kind {
			return NoType, fmt.Errorf("atom type %q already registered with a different kind", name)
		}
		return t, nil
	}

	t := next
	next++
	types[t] = typeInfo{name: name, kind: kind}
	byName[name] = t
	return t, nil
}

// MustRegisterType is like RegisterType but panics on error.
func MustRegisterType(name string, kind Kind) Type {
	t, err := RegisterType(name, kind)
	if err != nil {
		panic(err)
	}
	return t
}

// TypeByName looks up a registered type by its name.
func TypeByName(name string) (Type, bool) {
	typesMu.RLock()
	defer typesMu.RUnlock()
	t, ok := byName[name]
	return t, ok
}

// Types returns every registered type, ordered by name.
func Types() []Type {
	typesMu.RLock()
	out := make([]Type, 0, len(types))
	for t := range types {
		out = append(out, t)
	}
	typesMu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func (t Type) info() typeInfo {
	typesMu.RLock()
	defer typesMu.RUnlock()
	return types[t]
}

// String returns the registered name, or a placeholder for unknown tags.
func (t Type) String() string {
	if info := t.info(); info.kind != KindInvalid {
		return info.name
	}
	return fmt.Sprintf("Type(%d)", uint16(t))
}

// Kind returns the variant of the type.
func (t Type) Kind() Kind { return t.info().kind }

// IsNode reports whether t is a registered node type.
func (t Type) IsNode() bool { return t.Kind() == KindNode }

// IsLink reports whether t is a registered link type.
func (t Type) IsLink() bool { return t.Kind() == KindLink }
