// Package execctx provides the execution context registry: a stack of
// "current atomspace" bindings with explicit set-default and finalize calls.
//
// A Stack travels in a context.Context, the same way ctxlog carries a logger.
// Each independently executing goroutine derives its own context with its own
// Stack, so concurrent executions never observe each other's current space.
package execctx

import (
	"context"
	"sync"

	"github.com/specialistvlad/atomgrid/internal/atomspace"
	"github.com/specialistvlad/atomgrid/internal/execerr"
)

// key is an unexported type to prevent collisions with context keys from other packages.
type key struct{}

// stackKey is the key for the *Stack in a context.Context.
var stackKey = key{}

// Stack is an ordered set of space bindings; the top entry is current.
type Stack struct {
	mu      sync.Mutex
	entries []atomspace.Space
}

// NewStack returns an empty stack.
func NewStack() *Stack {
	return &Stack{}
}

// SetDefault pushes space as the current binding.
func (s *Stack) SetDefault(space atomspace.Space) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, space)
}

// Current returns the top of the stack, if any.
func (s *Stack) Current() (atomspace.Space, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return nil, false
	}
	return s.entries[len(s.entries)-1], true
}

// Finalize pops the current binding. It fails with execerr.ErrEmptyStack when
// nothing is pushed.
func (s *Stack) Finalize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return execerr.ErrEmptyStack
	}
	s.entries[len(s.entries)-1] = nil
	s.entries = s.entries[:len(s.entries)-1]
	return nil
}

// Depth returns the number of pushed bindings.
func (s *Stack) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// WithStack returns a new context carrying stack.
func WithStack(ctx context.Context, stack *Stack) context.Context {
	return context.WithValue(ctx, stackKey, stack)
}

// FromContext extracts the stack bound to ctx, if any.
func FromContext(ctx context.Context) (*Stack, bool) {
	stack, ok := ctx.Value(stackKey).(*Stack)
	return stack, ok && stack != nil
}

// Current returns the current space for ctx. It fails with
// execerr.ErrNoDefaultStore when ctx has no stack or the stack is empty.
func Current(ctx context.Context) (atomspace.Space, error) {
	stack, ok := FromContext(ctx)
	if !ok {
		return nil, execerr.ErrNoDefaultStore
	}
	space, ok := stack.Current()
	if !ok {
		return nil, execerr.ErrNoDefaultStore
	}
	return space, nil
}

// Enter pushes space onto the stack bound to ctx, binding a fresh stack first
// if ctx has none. The returned finalize pops the top entry and must be
// called once, after any nested Enter has been finalized.
func Enter(ctx context.Context, space atomspace.Space) (context.Context, func() error) {
	stack, ok := FromContext(ctx)
	if !ok {
		stack = NewStack()
		ctx = WithStack(ctx, stack)
	}
	stack.SetDefault(space)
	return ctx, stack.Finalize
}
