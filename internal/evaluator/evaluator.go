package evaluator

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/specialistvlad/atomgrid/internal/atom"
	"github.com/specialistvlad/atomgrid/internal/atomspace"
	"github.com/specialistvlad/atomgrid/internal/ctxlog"
	"github.com/specialistvlad/atomgrid/internal/execctx"
	"github.com/specialistvlad/atomgrid/internal/execerr"
	"github.com/specialistvlad/atomgrid/internal/marshal"
	"github.com/specialistvlad/atomgrid/internal/metrics"
	"github.com/specialistvlad/atomgrid/internal/procedure"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("atomgrid.evaluator")

// Metric labels for executions that never reach a procedure.
const (
	labelMalformed  = "malformed"
	labelUnresolved = "unresolved"
)

// Resolver finds the procedure currently registered for a schema name.
type Resolver interface {
	Resolve(name string) (*procedure.Procedure, error)
}

// Evaluator executes executable links. It holds no per-request state and is
// safe for concurrent use.
type Evaluator struct {
	resolver Resolver
	metrics  *metrics.Metrics
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithMetrics records executions into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Evaluator) { e.metrics = m }
}

// New creates an evaluator that resolves procedures through res.
func New(res Resolver, opts ...Option) *Evaluator {
	e := &Evaluator{resolver: res}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type request struct {
	space atomspace.Space
}

// ExecOption configures a single Execute call.
type ExecOption func(*request)

// WithSpace makes space the explicit store of the execution, bypassing the
// context's current space.
func WithSpace(space atomspace.Space) ExecOption {
	return func(r *request) { r.space = space }
}

// Decompose splits an executable link into its schema node and argument list.
func Decompose(target atom.Atom) (*atom.Node, *atom.Link, error) {
	if isNil(target) {
		return nil, nil, &execerr.MalformedExecutionLinkError{Reason: "target is nil"}
	}
	link, ok := atom.IsLink(target)
	if !ok || link.Type() != atom.ExecutionOutputLink {
		return nil, nil, &execerr.MalformedExecutionLinkError{
			Atom:   target.String(),
			Reason: fmt.Sprintf("expected %s, got %s", atom.ExecutionOutputLink, target.Type()),
		}
	}
	if link.Arity() != 2 {
		return nil, nil, &execerr.MalformedExecutionLinkError{
			Atom:   target.String(),
			Reason: fmt.Sprintf("expected 2 elements, got %d", link.Arity()),
		}
	}
	schema, ok := atom.IsNode(link.At(0))
	if !ok || schema.Type() != atom.GroundedSchemaNode {
		return nil, nil, &execerr.MalformedExecutionLinkError{
			Atom:   target.String(),
			Reason: fmt.Sprintf("first element must be a %s", atom.GroundedSchemaNode),
		}
	}
	args, ok := atom.IsLink(link.At(1))
	if !ok {
		return nil, nil, &execerr.MalformedExecutionLinkError{
			Atom:   target.String(),
			Reason: "second element must be a link",
		}
	}
	return schema, args, nil
}

// Execute evaluates target and returns the canonical atom produced by the
// resolved procedure. Any failure aborts the evaluation; nothing is retried.
func (e *Evaluator) Execute(ctx context.Context, target atom.Atom, opts ...ExecOption) (result atom.Atom, err error) {
	var req request
	for _, opt := range opts {
		opt(&req)
	}

	start := time.Now()
	name := ""
	label := labelMalformed
	ctx, span := tracer.Start(ctx, "evaluator.Execute")
	defer span.End()
	base := ctxlog.FromContext(ctx)

	defer func() {
		e.metrics.ObserveExecution(label, err == nil, time.Since(start))
		if err != nil {
			class := Classify(err)
			e.metrics.IncrementFailure(class)
			span.RecordError(err)
			span.SetStatus(codes.Error, class)
			base.Warn("Execution failed.", "procedure", name, "class", class, "error", err)
			return
		}
		span.SetAttributes(attribute.String("atomgrid.result", result.String()))
		base.Info("✅ Execution finished.", "procedure", name, "result", result.String(), "duration", time.Since(start))
	}()

	// 1. Decompose.
	schema, list, err := Decompose(target)
	if err != nil {
		return nil, err
	}
	name = schema.Name()
	span.SetAttributes(attribute.String("atomgrid.procedure", name))
	logger := base.With("procedure", name)
	logger.Debug("Decomposed executable link.", "args", list.Arity())

	// 2. Resolve.
	label = labelUnresolved
	proc, err := e.resolver.Resolve(name)
	if err != nil {
		return nil, err
	}
	label = proc.Name
	logger.Debug("Resolved procedure.", "arity", proc.Arity.String())

	// 3. Marshal.
	args, err := marshal.Arguments(list, req.space)
	if err != nil {
		return nil, err
	}

	// 4. Determine context.
	space := req.space
	if space == nil {
		if space, err = execctx.Current(ctx); err != nil {
			return nil, err
		}
		for i := range args {
			args[i].Space = space
		}
	}
	if !space.Contains(target) {
		return nil, &execerr.ForeignAtomError{Atom: target.String(), Space: space.ID()}
	}
	span.SetAttributes(attribute.String("atomgrid.space", space.ID()))
	logger.Debug("Determined execution space.", "space", space.ID(), "explicit", req.space != nil)

	// 5. Invoke.
	if err := proc.Arity.Check(proc.Name, proc.Params, len(args)); err != nil {
		return nil, err
	}
	raw, err := invoke(ctx, name, proc, &procedure.Call{Space: space, Args: args})
	if err != nil {
		return nil, err
	}

	// 6. Validate result type.
	out, ok := asAtom(raw)
	if !ok {
		return nil, &execerr.InvalidResultTypeError{Procedure: name, Got: describe(raw)}
	}

	// 7. Canonicalize & return.
	if !space.Contains(out) {
		return nil, &execerr.ForeignAtomError{Atom: out.String(), Space: space.ID()}
	}
	return out, nil
}

// invoke calls the procedure, turning returned errors and panics into
// execution faults.
func invoke(ctx context.Context, name string, proc *procedure.Procedure, call *procedure.Call) (raw any, err error) {
	ctx, span := tracer.Start(ctx, "procedure.Invoke", trace.WithAttributes(
		attribute.String("atomgrid.procedure", name),
		attribute.Int("atomgrid.args", call.Len()),
	))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("panic: %v", r)
			}
			raw, err = nil, &execerr.ExecutionFaultError{Procedure: name, Cause: cause}
		}
	}()

	ctxlog.FromContext(ctx).Debug("Invoking procedure.", "procedure", name, "args", call.Len())
	raw, err = proc.Fn(ctx, call)
	if err != nil {
		return nil, &execerr.ExecutionFaultError{Procedure: name, Cause: err}
	}
	return raw, nil
}

func asAtom(v any) (atom.Atom, bool) {
	a, ok := v.(atom.Atom)
	if !ok || isNil(a) {
		return nil, false
	}
	return a, true
}

// isNil reports whether a is nil or a typed nil pointer.
func isNil(a atom.Atom) bool {
	if a == nil {
		return true
	}
	rv := reflect.ValueOf(a)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func describe(v any) string {
	switch t := v.(type) {
	case nil:
		return "nil"
	case atom.Atom:
		return fmt.Sprintf("nil %T", t)
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Classify names the error class of an execution failure.
func Classify(err error) string {
	var (
		malformed  *execerr.MalformedExecutionLinkError
		unresolved *execerr.UnresolvedSchemaError
		arity      *execerr.ArityMismatchError
		fault      *execerr.ExecutionFaultError
		result     *execerr.InvalidResultTypeError
		ctxErr     *execerr.ContextError
		foreign    *execerr.ForeignAtomError
	)
	// A fault may wrap any other class raised inside the procedure.
	switch {
	case errors.As(err, &fault):
		return "ExecutionFault"
	case errors.As(err, &malformed):
		return "MalformedExecutionLink"
	case errors.As(err, &unresolved):
		return "UnresolvedSchema"
	case errors.As(err, &arity):
		return "ArityMismatch"
	case errors.As(err, &result):
		return "InvalidResultType"
	case errors.As(err, &ctxErr):
		return "ContextError"
	case errors.As(err, &foreign):
		return "ForeignAtom"
	default:
		return "Unknown"
	}
}
