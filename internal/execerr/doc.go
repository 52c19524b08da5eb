// Package execerr defines the error taxonomy shared by the atom store, the
// execution context registry, the procedure resolver and the invocation
// evaluator.
//
// Every error is a concrete type so callers can match with errors.As, and the
// context errors additionally expose sentinels for errors.Is. Messages are
// human-readable and, for arity mismatches, contractually stable.
package execerr
