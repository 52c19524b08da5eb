// Package evaluator implements execution of executable links.
//
// An executable link is an ExecutionOutputLink whose first element is a
// GroundedSchemaNode naming a procedure and whose second element is a link
// holding its positional arguments. Execute runs a strictly linear pipeline:
//
//  1. Decompose the target.
//  2. Resolve the schema name to the procedure registered right now.
//  3. Marshal the argument list.
//  4. Determine the space: the explicit one from WithSpace, else the
//     context's current space.
//  5. Check arity, then invoke. Errors and panics become execution faults.
//  6. Require a single non-nil atom as the result.
//  7. Require the result to be a member of the determined space.
//
// The first failing step aborts the evaluation and its typed error from
// package execerr is returned unchanged.
package evaluator
