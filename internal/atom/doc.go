// Package atom defines the data model of the hypergraph: type tags, the Atom
// interface and its two variants, Node and Link.
//
// Atoms constructed here are candidates. Identity is carried by Key, and only
// an atomspace turns a candidate into the canonical, reference-comparable
// object for that identity.
package atom
