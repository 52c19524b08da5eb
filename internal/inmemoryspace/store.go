// Package inmemoryspace provides an ephemeral, thread-safe, in-memory
// implementation of the atomspace.Space interface.
//
// # Concurrency Model
//
// The store keeps a single sync.Map from atom.Key to the canonical atom.
// Interning is a LoadOrStore: the first writer of an identity wins and every
// concurrent writer of the same identity receives the winner's object. The
// key space only grows, which is the access pattern sync.Map is built for.
//
// # When to Use
//
// This implementation is suitable for:
//   - Embedded, single-process graphs
//   - Tests and scripts that build a fresh space per run
//
// Atoms are never removed; garbage collection of unreachable atoms is not
// part of this store.
package inmemoryspace

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/specialistvlad/atomgrid/internal/atom"
	"github.com/specialistvlad/atomgrid/internal/atomspace"
	"github.com/specialistvlad/atomgrid/internal/execerr"
)

var _ atomspace.Space = (*Store)(nil)

// Store is an in-memory atomspace.Space.
type Store struct {
	id    string
	atoms sync.Map // Key: atom.Key, Value: atom.Atom
	size  atomic.Int64
}

// New creates a new, empty in-memory atomspace with a fresh UUID.
func New() *Store {
	return &Store{id: uuid.NewString()}
}

// ID returns the space's UUID.
func (s *Store) ID() string { return s.id }

// AddNode interns a node.
func (s *Store) AddNode(t atom.Type, name string) (*atom.Node, error) {
	if existing, ok := s.atoms.Load(atom.NodeKey(t, name)); ok && t.IsNode() {
		return existing.(*atom.Node), nil
	}

	candidate, err := atom.NewNode(t, name)
	if err != nil {
		return nil, err
	}
	return s.intern(candidate).(*atom.Node), nil
}

// AddLink interns a link. Each outgoing atom must be a member of this store.
func (s *Store) AddLink(t atom.Type, outgoing ...atom.Atom) (*atom.Link, error) {
	for _, a := range outgoing {
		if a == nil || !s.Contains(a) {
			return nil, s.foreign(a)
		}
	}

	candidate, err := atom.NewLink(t, outgoing...)
	if err != nil {
		return nil, err
	}
	return s.intern(candidate).(*atom.Link), nil
}

// intern stores the candidate unless an atom with the same key exists, and
// returns whichever object is canonical.
func (s *Store) intern(candidate atom.Atom) atom.Atom {
	actual, loaded := s.atoms.LoadOrStore(candidate.Key(), candidate)
	if !loaded {
		s.size.Add(1)
	}
	return actual.(atom.Atom)
}

// Lookup returns the canonical atom for key.
func (s *Store) Lookup(key atom.Key) (atom.Atom, bool) {
	v, ok := s.atoms.Load(key)
	if !ok {
		return nil, false
	}
	return v.(atom.Atom), true
}

// Contains reports whether a is the canonical object stored under its key.
func (s *Store) Contains(a atom.Atom) bool {
	if a == nil {
		return false
	}
	v, ok := s.atoms.Load(a.Key())
	return ok && v.(atom.Atom) == a
}

// Size returns the number of interned atoms.
func (s *Store) Size() int { return int(s.size.Load()) }

// Atoms returns a snapshot of all atoms ordered by key.
func (s *Store) Atoms() []atom.Atom {
	var out []atom.Atom
	s.atoms.Range(func(_, v any) bool {
		out = append(out, v.(atom.Atom))
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

func (s *Store) foreign(a atom.Atom) error {
	desc := "<nil>"
	if a != nil {
		desc = a.String()
	}
	return &execerr.ForeignAtomError{Atom: desc, Space: s.id}
}
