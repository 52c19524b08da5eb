// Package bridge exposes atom construction and execution to HCL native-syntax
// expressions and script files.
//
// Atoms cross the boundary as cty capsule values of AtomType. Every atom type
// name is a constructor function, e.g. ConceptNode("one") or
// ListLink(a, b), and execute(link) submits an ExecutionOutputLink to the
// same evaluator the direct API uses, with the bridge's space passed
// explicitly. Failures are returned as *EvalError, which unwraps to the typed
// execution error that caused them.
package bridge

import (
	"context"
	"errors"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/atomgrid/internal/atom"
	"github.com/specialistvlad/atomgrid/internal/atomspace"
	"github.com/specialistvlad/atomgrid/internal/ctxlog"
	"github.com/specialistvlad/atomgrid/internal/evaluator"
	"github.com/specialistvlad/atomgrid/internal/metrics"
	"github.com/specialistvlad/atomgrid/internal/procedure"
	"github.com/zclconf/go-cty/cty"
)

// Prefix is the namespace under which script-defined procedures resolve.
const Prefix = "hcl"

var builtinFunctions = map[string]struct{}{
	"execute":   {},
	"name":      {},
	"atom_type": {},
	"outgoing":  {},
}

// Executor submits execution requests.
type Executor interface {
	Execute(ctx context.Context, target atom.Atom, opts ...evaluator.ExecOption) (atom.Atom, error)
}

// EvalError reports a failed expression evaluation. Cause holds the typed
// execution error when one was raised inside the expression.
type EvalError struct {
	Diags hcl.Diagnostics
	Cause error
}

func (e *EvalError) Error() string {
	return e.Diags.Error()
}

func (e *EvalError) Unwrap() error { return e.Cause }

// Bridge evaluates expressions against one space.
type Bridge struct {
	space    atomspace.Space
	executor Executor
	scripts  *procedure.Registry
	metrics  *metrics.Metrics
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithScripts sets the registry that receives script-defined procedures. It
// should be bound to Prefix in the resolver used by the executor.
func WithScripts(reg *procedure.Registry) Option {
	return func(b *Bridge) { b.scripts = reg }
}

// WithMetrics records evaluations into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Bridge) { b.metrics = m }
}

// New creates a bridge that interns into space and executes through exec.
func New(space atomspace.Space, exec Executor, opts ...Option) *Bridge {
	b := &Bridge{space: space, executor: exec}
	for _, opt := range opts {
		opt(b)
	}
	if b.scripts == nil {
		b.scripts = procedure.NewRegistry()
	}
	return b
}

// Space returns the bridge's space.
func (b *Bridge) Space() atomspace.Space { return b.space }

// Scripts returns the registry holding script-defined procedures.
func (b *Bridge) Scripts() *procedure.Registry { return b.scripts }

// Eval parses and evaluates a single expression.
func (b *Bridge) Eval(ctx context.Context, src string) (cty.Value, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), "<eval>", hcl.InitialPos)
	if diags.HasErrors() {
		b.metrics.IncrementBridgeEval(false)
		return cty.NilVal, &EvalError{Diags: diags}
	}
	if diags := preflight(knownFunction, expr); diags.HasErrors() {
		b.metrics.IncrementBridgeEval(false)
		return cty.NilVal, &EvalError{Diags: diags}
	}
	return b.evaluate(ctx, b.space, expr, nil)
}

// EvalAtom is like Eval but requires the result to be an atom.
func (b *Bridge) EvalAtom(ctx context.Context, src string) (atom.Atom, error) {
	v, err := b.Eval(ctx, src)
	if err != nil {
		return nil, err
	}
	return AtomFromValue(v)
}

func (b *Bridge) evaluate(ctx context.Context, space atomspace.Space, expr hcl.Expression, vars map[string]cty.Value) (cty.Value, error) {
	sess := &session{ctx: ctx, space: space, executor: b.executor}
	evalCtx := &hcl.EvalContext{
		Variables: vars,
		Functions: sess.functions(),
	}

	v, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		b.metrics.IncrementBridgeEval(false)
		err := &EvalError{Diags: diags, Cause: diagCause(diags, sess)}
		ctxlog.FromContext(ctx).Debug("Bridge evaluation failed.", "space", space.ID(), "error", err)
		return cty.NilVal, err
	}
	b.metrics.IncrementBridgeEval(true)
	return v, nil
}

// diagCause recovers the error returned by a failing function call.
func diagCause(diags hcl.Diagnostics, sess *session) error {
	for _, d := range diags {
		extra, ok := d.Extra.(hclsyntax.FunctionCallDiagExtra)
		if !ok {
			continue
		}
		if err := extra.FunctionCallError(); err != nil {
			return err
		}
	}
	if err := sess.cause(); err != nil {
		return err
	}
	return errors.New(diags.Error())
}

func knownFunction(name string) bool {
	if _, ok := builtinFunctions[name]; ok {
		return true
	}
	_, ok := atom.TypeByName(name)
	return ok
}
