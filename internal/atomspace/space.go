// Package atomspace defines the interface of the canonicalizing atom store.
//
// # Why a Separate Interface
//
// The evaluator, the argument marshaller and every procedure only ever see an
// atomspace.Space. They never hold concrete store types, which keeps the
// invocation core independent of how atoms are stored and lets tests swap in
// their own implementation.
//
// # Canonicalization
//
// A Space never holds two distinct objects with the same identity (atom.Key).
// AddNode and AddLink are insert-or-get: a request for an identity that
// already exists returns the existing object, so callers can compare atoms
// by reference.
//
// # Cross-Space References
//
// A link may only reference atoms that are canonical members of the same
// Space. Anything else (an atom from another Space, or an uninterned
// candidate) is rejected with *execerr.ForeignAtomError.
//
// See internal/inmemoryspace for the reference implementation.
package atomspace

import "github.com/specialistvlad/atomgrid/internal/atom"

// Space is a canonicalizing container owning all atoms of one logical graph.
//
// Implementations MUST be safe for concurrent use, and concurrent interning of
// the same identity MUST yield the same canonical reference.
type Space interface {
	// ID returns a unique identifier for this space, used in logs and errors.
	ID() string

	// AddNode returns the canonical node for (t, name), creating it on first
	// request. It fails only when t is not a node type.
	AddNode(t atom.Type, name string) (*atom.Node, error)

	// AddLink returns the canonical link for (t, outgoing), creating it on
	// first request. Every outgoing atom must already be a member of this space.
	AddLink(t atom.Type, outgoing ...atom.Atom) (*atom.Link, error)

	// Lookup returns the canonical atom with the given identity, if present.
	Lookup(key atom.Key) (atom.Atom, bool)

	// Contains reports whether a is the canonical member of this space for
	// its identity.
	Contains(a atom.Atom) bool

	// Size returns the number of atoms held.
	Size() int

	// Atoms returns a snapshot of all atoms ordered by key.
	Atoms() []atom.Atom
}
