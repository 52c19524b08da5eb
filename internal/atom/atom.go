package atom

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/specialistvlad/atomgrid/internal/execerr"
)

// Key is the identity of an atom. Two atoms are the same atom iff they have
// equal keys: nodes by (type, name), links by (type, outgoing identities).
type Key string

// Atom is a node or link in the hypergraph. Implementations are immutable.
type Atom interface {
	// Type returns the atom's type tag.
	Type() Type
	// Key returns the atom's identity.
	Key() Key
	// String renders the atom as an s-expression, e.g. (ConceptNode "one").
	String() string

	atom()
}

// Node is a typed, named atom with no outgoing references.
type Node struct {
	typ  Type
	name string
	key  Key
}

// NewNode builds an uninterned node candidate. Only an atomspace makes it
// canonical.
func NewNode(t Type, name string) (*Node, error) {
	if !t.IsNode() {
		return nil, &execerr.InvalidTypeError{Type: t.String(), Want: "node"}
	}
	return &Node{typ: t, name: name, key: NodeKey(t, name)}, nil
}

// NodeKey computes the identity of a node without constructing it.
func NodeKey(t Type, name string) Key {
	return Key("(" + t.String() + " " + strconv.Quote(name) + ")")
}

func (n *Node) atom() {}

// Type returns the node's type tag.
func (n *Node) Type() Type { return n.typ }

// Name returns the node's name.
func (n *Node) Name() string { return n.name }

// Key returns the node's identity.
func (n *Node) Key() Key { return n.key }

// String renders the node as an s-expression.
func (n *Node) String() string { return string(n.key) }

// Link is a typed atom holding an ordered sequence of outgoing atoms.
type Link struct {
	typ      Type
	outgoing []Atom
	key      Key
}

// NewLink builds an uninterned link candidate over the given outgoing atoms.
// The slice is copied; the atoms themselves are held by reference.
func NewLink(t Type, outgoing ...Atom) (*Link, error) {
	if !t.IsLink() {
		return nil, &execerr.InvalidTypeError{Type: t.String(), Want: "link"}
	}
	for i, a := range outgoing {
		if a == nil {
			return nil, fmt.Errorf("%s: outgoing atom %d is nil", t, i)
		}
	}
	out := make([]Atom, len(outgoing))
	copy(out, outgoing)
	return &Link{typ: t, outgoing: out, key: LinkKey(t, out...)}, nil
}

// LinkKey computes the identity of a link without constructing it.
func LinkKey(t Type, outgoing ...Atom) Key {
	var sb strings.Builder
	sb.WriteString("(")
	sb.WriteString(t.String())
	for _, a := range outgoing {
		sb.WriteString(" ")
		sb.WriteString(string(a.Key()))
	}
	sb.WriteString(")")
	return Key(sb.String())
}

func (l *Link) atom() {}

// Type returns the link's type tag.
func (l *Link) Type() Type { return l.typ }

// Key returns the link's identity.
func (l *Link) Key() Key { return l.key }

// String renders the link as an s-expression.
func (l *Link) String() string { return string(l.key) }

// Arity returns the number of outgoing atoms.
func (l *Link) Arity() int { return len(l.outgoing) }

// At returns the i-th outgoing atom.
func (l *Link) At(i int) Atom { return l.outgoing[i] }

// Outgoing returns a copy of the outgoing sequence.
func (l *Link) Outgoing() []Atom {
	out := make([]Atom, len(l.outgoing))
	copy(out, l.outgoing)
	return out
}

// IsNode reports whether a is a node, returning it typed.
func IsNode(a Atom) (*Node, bool) {
	n, ok := a.(*Node)
	return n, ok && n != nil
}

// IsLink reports whether a is a link, returning it typed.
func IsLink(a Atom) (*Link, bool) {
	l, ok := a.(*Link)
	return l, ok && l != nil
}
