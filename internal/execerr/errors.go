package execerr

import (
	"fmt"
	"strings"
)

// MalformedExecutionLinkError reports that an execution target does not have
// the shape (ExecutionOutputLink <GroundedSchemaNode> <Link>).
type MalformedExecutionLinkError struct {
	Atom   string
	Reason string
}

func (e *MalformedExecutionLinkError) Error() string {
	if e.Atom == "" {
		return "malformed execution link: " + e.Reason
	}
	return fmt.Sprintf("malformed execution link %s: %s", e.Atom, e.Reason)
}

// UnresolvedSchemaError reports that a procedure name could not be resolved,
// either because its namespace prefix is unknown or because the symbol is not
// registered with the selected backend.
type UnresolvedSchemaError struct {
	Name   string
	Reason string
}

func (e *UnresolvedSchemaError) Error() string {
	return fmt.Sprintf("cannot resolve schema %q: %s", e.Name, e.Reason)
}

// ArityKind distinguishes the two ways an argument count can be wrong.
type ArityKind int

const (
	// TooMany means more arguments were supplied than the procedure accepts.
	TooMany ArityKind = iota
	// TooFew means fewer arguments were supplied than the procedure requires.
	TooFew
)

// String returns the name of the arity kind.
func (k ArityKind) String() string {
	switch k {
	case TooMany:
		return "TooMany"
	case TooFew:
		return "TooFew"
	default:
		return "Unknown"
	}
}

// ArityMismatchError reports a call whose argument count does not fit the
// procedure's declared arity. Expected is the violated bound: the maximum for
// TooMany and the minimum for TooFew. When the bounds differ, Min and Max hold
// the full range.
type ArityMismatchError struct {
	Procedure string
	Expected  int
	Actual    int
	Min       int
	Max       int
	Kind      ArityKind
	// Params optionally names the declared positional parameters.
	Params []string
}

func (e *ArityMismatchError) Error() string {
	if e.Kind == TooMany {
		return fmt.Sprintf("%s() takes %s but %d were given", e.Procedure, e.takes(), e.Actual)
	}

	missing := e.Expected - e.Actual
	msg := fmt.Sprintf("%s() missing %d required positional %s", e.Procedure, missing, plural(missing, "argument"))
	if names := e.missingParams(); len(names) == missing {
		msg += ": " + joinQuoted(names)
	}
	return msg
}

func (e *ArityMismatchError) takes() string {
	if e.Min != e.Max && e.Min < e.Expected {
		return fmt.Sprintf("from %d to %d positional arguments", e.Min, e.Max)
	}
	return fmt.Sprintf("%d positional %s", e.Expected, plural(e.Expected, "argument"))
}

func (e *ArityMismatchError) missingParams() []string {
	if e.Actual < 0 || e.Expected > len(e.Params) {
		return nil
	}
	return e.Params[e.Actual:e.Expected]
}

// ExecutionFaultError wraps any failure raised by an invoked procedure itself.
// The original cause is preserved and reachable through errors.Unwrap.
type ExecutionFaultError struct {
	Procedure string
	Cause     error
}

func (e *ExecutionFaultError) Error() string {
	return fmt.Sprintf("procedure %s failed: %v", e.Procedure, e.Cause)
}

func (e *ExecutionFaultError) Unwrap() error { return e.Cause }

// InvalidResultTypeError reports that a procedure returned something other
// than a single atom.
type InvalidResultTypeError struct {
	Procedure string
	Got       string
}

func (e *InvalidResultTypeError) Error() string {
	return fmt.Sprintf("procedure %s must return a single atom, got %s", e.Procedure, e.Got)
}

// ContextErrorKind enumerates execution-context misuse.
type ContextErrorKind int

const (
	// NoDefaultStore means an implicit current space was required but none is set.
	NoDefaultStore ContextErrorKind = iota
	// EmptyStack means finalize was called with nothing pushed.
	EmptyStack
)

// ContextError reports misuse of the execution context stack.
type ContextError struct {
	Kind ContextErrorKind
}

func (e *ContextError) Error() string {
	switch e.Kind {
	case NoDefaultStore:
		return "no default atomspace is set for this execution context"
	case EmptyStack:
		return "finalize called on an empty execution context stack"
	default:
		return "execution context error"
	}
}

// Is matches any ContextError of the same kind, so the package sentinels work
// with errors.Is.
func (e *ContextError) Is(target error) bool {
	t, ok := target.(*ContextError)
	return ok && t.Kind == e.Kind
}

var (
	// ErrNoDefaultStore is returned when an operation needs an implicit space and none is current.
	ErrNoDefaultStore = &ContextError{Kind: NoDefaultStore}
	// ErrEmptyStack is returned when finalize is called without a matching set-default.
	ErrEmptyStack = &ContextError{Kind: EmptyStack}
)

// ForeignAtomError reports an atom used with a space it does not belong to.
// Linking across spaces is a contract violation and is never accepted silently.
type ForeignAtomError struct {
	Atom  string
	Space string
}

func (e *ForeignAtomError) Error() string {
	return fmt.Sprintf("atom %s is not a member of atomspace %s", e.Atom, e.Space)
}

// InvalidTypeError reports an atom type tag that is unknown or of the wrong
// variant for the requested construction.
type InvalidTypeError struct {
	Type string
	Want string
}

func (e *InvalidTypeError) Error() string {
	if e.Want == "" {
		return fmt.Sprintf("invalid atom type %q", e.Type)
	}
	return fmt.Sprintf("invalid atom type %q: expected a %s type", e.Type, e.Want)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func joinQuoted(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}
	switch len(quoted) {
	case 0:
		return ""
	case 1:
		return quoted[0]
	case 2:
		return quoted[0] + " and " + quoted[1]
	default:
		return strings.Join(quoted[:len(quoted)-1], ", ") + ", and " + quoted[len(quoted)-1]
	}
}
