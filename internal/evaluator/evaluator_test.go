package evaluator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/specialistvlad/atomgrid/internal/atom"
	"github.com/specialistvlad/atomgrid/internal/atomspace"
	"github.com/specialistvlad/atomgrid/internal/ctxlog"
	"github.com/specialistvlad/atomgrid/internal/execctx"
	"github.com/specialistvlad/atomgrid/internal/execerr"
	"github.com/specialistvlad/atomgrid/internal/inmemoryspace"
	"github.com/specialistvlad/atomgrid/internal/metrics"
	"github.com/specialistvlad/atomgrid/internal/procedure"
	"github.com/specialistvlad/atomgrid/internal/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	reg   *procedure.Registry
	eval  *Evaluator
	space atomspace.Space
	calls atomic.Int64
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{reg: procedure.NewRegistry(), space: inmemoryspace.New()}

	res := resolver.New()
	require.NoError(t, res.Register("py", f.reg))
	f.eval = New(res, opts...)

	f.reg.MustRegister(procedure.New("add_link", procedure.Exactly(2), func(ctx context.Context, call *procedure.Call) (any, error) {
		f.calls.Add(1)
		return call.Args[0].Space.AddLink(atom.ListLink, call.Arg(0), call.Arg(1))
	}).WithParams("atom1", "atom2"))

	f.reg.MustRegister(procedure.New("return_concept", procedure.Exactly(1), func(ctx context.Context, call *procedure.Call) (any, error) {
		f.calls.Add(1)
		return call.Args[0].Space.AddNode(atom.ConceptNode, "test")
	}).WithParams("atom"))

	return f
}

func (f *fixture) node(t *testing.T, name string) *atom.Node {
	t.Helper()
	n, err := f.space.AddNode(atom.ConceptNode, name)
	require.NoError(t, err)
	return n
}

// exec builds (ExecutionOutputLink (GroundedSchemaNode name) (ListLink args...)) in f.space.
func (f *fixture) exec(t *testing.T, name string, args ...atom.Atom) *atom.Link {
	t.Helper()
	schema, err := f.space.AddNode(atom.GroundedSchemaNode, name)
	require.NoError(t, err)
	list, err := f.space.AddLink(atom.ListLink, args...)
	require.NoError(t, err)
	link, err := f.space.AddLink(atom.ExecutionOutputLink, schema, list)
	require.NoError(t, err)
	return link
}

func TestExecute_AddLink(t *testing.T) {
	f := newFixture(t)
	one, two := f.node(t, "one"), f.node(t, "two")

	got, err := f.eval.Execute(context.Background(), f.exec(t, "py: add_link", one, two), WithSpace(f.space))
	require.NoError(t, err)

	want, err := f.space.AddLink(atom.ListLink, one, two)
	require.NoError(t, err)
	assert.Same(t, want, got, "result is the canonical link")
	assert.Equal(t, int64(1), f.calls.Load(), "procedure invoked exactly once")
}

func TestExecute_ReturnConceptUsesArgumentSpace(t *testing.T) {
	f := newFixture(t)

	got, err := f.eval.Execute(context.Background(), f.exec(t, "py:return_concept", f.node(t, "x")), WithSpace(f.space))
	require.NoError(t, err)

	want, ok := f.space.Lookup(atom.NodeKey(atom.ConceptNode, "test"))
	require.True(t, ok)
	assert.Same(t, want, got)
}

func TestExecute_ContextDetermination(t *testing.T) {
	t.Run("current space from context", func(t *testing.T) {
		f := newFixture(t)
		link := f.exec(t, "py:add_link", f.node(t, "a"), f.node(t, "b"))

		ctx, finalize := execctx.Enter(context.Background(), f.space)
		got, err := f.eval.Execute(ctx, link)
		require.NoError(t, err)
		assert.True(t, f.space.Contains(got))
		require.NoError(t, finalize())
	})

	t.Run("no default store", func(t *testing.T) {
		f := newFixture(t)
		link := f.exec(t, "py:add_link", f.node(t, "a"), f.node(t, "b"))

		_, err := f.eval.Execute(context.Background(), link)
		require.ErrorIs(t, err, execerr.ErrNoDefaultStore)
		assert.Zero(t, f.calls.Load())
	})

	t.Run("after finalize", func(t *testing.T) {
		f := newFixture(t)
		link := f.exec(t, "py:add_link", f.node(t, "a"), f.node(t, "b"))

		ctx, finalize := execctx.Enter(context.Background(), f.space)
		require.NoError(t, finalize())

		_, err := f.eval.Execute(ctx, link)
		require.ErrorIs(t, err, execerr.ErrNoDefaultStore)

		// Explicit reference still works after the scope ends.
		_, err = f.eval.Execute(ctx, link, WithSpace(f.space))
		require.NoError(t, err)
	})

	t.Run("explicit space wins over current", func(t *testing.T) {
		f := newFixture(t)
		link := f.exec(t, "py:return_concept", f.node(t, "a"))
		other := inmemoryspace.New()

		ctx, finalize := execctx.Enter(context.Background(), other)
		defer func() { require.NoError(t, finalize()) }()

		got, err := f.eval.Execute(ctx, link, WithSpace(f.space))
		require.NoError(t, err)
		assert.True(t, f.space.Contains(got))
		assert.Zero(t, other.Size())
	})

	t.Run("target must belong to the determined space", func(t *testing.T) {
		f := newFixture(t)
		link := f.exec(t, "py:add_link", f.node(t, "a"), f.node(t, "b"))

		_, err := f.eval.Execute(context.Background(), link, WithSpace(inmemoryspace.New()))
		var foreign *execerr.ForeignAtomError
		require.ErrorAs(t, err, &foreign)
		assert.Zero(t, f.calls.Load())
	})
}

func TestExecute_Malformed(t *testing.T) {
	f := newFixture(t)
	one := f.node(t, "one")
	schema, err := f.space.AddNode(atom.GroundedSchemaNode, "py:add_link")
	require.NoError(t, err)
	list, err := f.space.AddLink(atom.ListLink, one, one)
	require.NoError(t, err)

	mustLink := func(typ atom.Type, out ...atom.Atom) atom.Atom {
		l, err := f.space.AddLink(typ, out...)
		require.NoError(t, err)
		return l
	}

	testCases := []struct {
		name   string
		target atom.Atom
	}{
		{name: "nil", target: nil},
		{name: "node target", target: one},
		{name: "wrong link type", target: mustLink(atom.ListLink, schema, list)},
		{name: "one element", target: mustLink(atom.ExecutionOutputLink, schema)},
		{name: "three elements", target: mustLink(atom.ExecutionOutputLink, schema, list, list)},
		{name: "first not a schema", target: mustLink(atom.ExecutionOutputLink, one, list)},
		{name: "second not a link", target: mustLink(atom.ExecutionOutputLink, schema, one)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.eval.Execute(context.Background(), tc.target, WithSpace(f.space))
			var malformed *execerr.MalformedExecutionLinkError
			require.ErrorAs(t, err, &malformed)
		})
	}
	assert.Zero(t, f.calls.Load())
}

func TestExecute_Unresolved(t *testing.T) {
	f := newFixture(t)
	one := f.node(t, "one")

	for _, name := range []string{"py:nope", "scm:add_link", "add_link", "py:"} {
		t.Run(name, func(t *testing.T) {
			_, err := f.eval.Execute(context.Background(), f.exec(t, name, one, one), WithSpace(f.space))
			var unresolved *execerr.UnresolvedSchemaError
			require.ErrorAs(t, err, &unresolved)
		})
	}
}

func TestExecute_LateBinding(t *testing.T) {
	f := newFixture(t)
	one := f.node(t, "one")
	link := f.exec(t, "py:late", one)

	_, err := f.eval.Execute(context.Background(), link, WithSpace(f.space))
	var unresolved *execerr.UnresolvedSchemaError
	require.ErrorAs(t, err, &unresolved, "link built before the procedure exists")

	f.reg.MustRegister(procedure.MustWrap("late", func(a atom.Atom) atom.Atom { return a }))
	got, err := f.eval.Execute(context.Background(), link, WithSpace(f.space))
	require.NoError(t, err)
	assert.Same(t, one, got)

	two := f.node(t, "two")
	f.reg.MustRegister(procedure.MustWrap("late", func(a atom.Atom) atom.Atom { return two }))
	got, err = f.eval.Execute(context.Background(), link, WithSpace(f.space))
	require.NoError(t, err)
	assert.Same(t, two, got, "re-registration changes subsequent results")
}

func TestExecute_Arity(t *testing.T) {
	f := newFixture(t)
	one, two := f.node(t, "one"), f.node(t, "two")

	t.Run("too many", func(t *testing.T) {
		_, err := f.eval.Execute(context.Background(), f.exec(t, "py:return_concept", one, two), WithSpace(f.space))
		var mismatch *execerr.ArityMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, execerr.TooMany, mismatch.Kind)
		assert.Equal(t, 1, mismatch.Expected)
		assert.Equal(t, 2, mismatch.Actual)
		assert.Contains(t, err.Error(), "but 2 were given")
	})

	t.Run("too few", func(t *testing.T) {
		_, err := f.eval.Execute(context.Background(), f.exec(t, "py:return_concept"), WithSpace(f.space))
		var mismatch *execerr.ArityMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, execerr.TooFew, mismatch.Kind)
		assert.Contains(t, err.Error(), "missing 1 required positional argument")
	})

	t.Run("too few names the missing parameters", func(t *testing.T) {
		_, err := f.eval.Execute(context.Background(), f.exec(t, "py:add_link"), WithSpace(f.space))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing 2 required positional arguments: 'atom1' and 'atom2'")
	})

	t.Run("variadic", func(t *testing.T) {
		f.reg.MustRegister(procedure.MustWrap("first", func(head atom.Atom, rest ...atom.Atom) atom.Atom { return head }))

		got, err := f.eval.Execute(context.Background(), f.exec(t, "py:first", two, one, one), WithSpace(f.space))
		require.NoError(t, err)
		assert.Same(t, two, got)

		_, err = f.eval.Execute(context.Background(), f.exec(t, "py:first"), WithSpace(f.space))
		var mismatch *execerr.ArityMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, execerr.TooFew, mismatch.Kind)
	})

	assert.Zero(t, f.calls.Load(), "mismatched calls never invoke the procedure")
}

func TestExecute_Fault(t *testing.T) {
	f := newFixture(t)
	one := f.node(t, "one")
	boom := errors.New("boom")

	f.reg.MustRegister(procedure.New("fails", procedure.Exactly(1), func(context.Context, *procedure.Call) (any, error) {
		return nil, boom
	}))
	f.reg.MustRegister(procedure.New("panics", procedure.Exactly(1), func(context.Context, *procedure.Call) (any, error) {
		panic("kaboom")
	}))
	f.reg.MustRegister(procedure.New("panics_err", procedure.Exactly(1), func(context.Context, *procedure.Call) (any, error) {
		panic(boom)
	}))

	t.Run("returned error", func(t *testing.T) {
		_, err := f.eval.Execute(context.Background(), f.exec(t, "py:fails", one), WithSpace(f.space))
		var fault *execerr.ExecutionFaultError
		require.ErrorAs(t, err, &fault)
		assert.Equal(t, "py:fails", fault.Procedure)
		require.ErrorIs(t, err, boom)
	})

	t.Run("panic value", func(t *testing.T) {
		_, err := f.eval.Execute(context.Background(), f.exec(t, "py:panics", one), WithSpace(f.space))
		var fault *execerr.ExecutionFaultError
		require.ErrorAs(t, err, &fault)
		assert.Contains(t, err.Error(), "kaboom")
	})

	t.Run("panic error", func(t *testing.T) {
		_, err := f.eval.Execute(context.Background(), f.exec(t, "py:panics_err", one), WithSpace(f.space))
		require.ErrorIs(t, err, boom)
	})
}

func TestExecute_InvalidResult(t *testing.T) {
	f := newFixture(t)
	one := f.node(t, "one")

	results := map[string]any{
		"none":      nil,
		"number":    42,
		"string":    "ConceptNode",
		"nil_link":  (*atom.Link)(nil),
		"atom_list": []atom.Atom{one, one},
	}
	for name, value := range results {
		v := value
		f.reg.MustRegister(procedure.New(name, procedure.Exactly(0), func(context.Context, *procedure.Call) (any, error) {
			return v, nil
		}))
	}

	for name := range results {
		t.Run(name, func(t *testing.T) {
			_, err := f.eval.Execute(context.Background(), f.exec(t, "py:"+name), WithSpace(f.space))
			var invalid *execerr.InvalidResultTypeError
			require.ErrorAs(t, err, &invalid)
		})
	}
}

func TestExecute_ForeignResult(t *testing.T) {
	f := newFixture(t)
	other := inmemoryspace.New()
	stranger, err := other.AddNode(atom.ConceptNode, "stranger")
	require.NoError(t, err)
	candidate, err := atom.NewNode(atom.ConceptNode, "uninterned")
	require.NoError(t, err)

	f.reg.MustRegister(procedure.MustWrap("leak", func() atom.Atom { return stranger }))
	f.reg.MustRegister(procedure.MustWrap("candidate", func() atom.Atom { return candidate }))

	for _, name := range []string{"py:leak", "py:candidate"} {
		t.Run(name, func(t *testing.T) {
			_, err := f.eval.Execute(context.Background(), f.exec(t, name), WithSpace(f.space))
			var foreign *execerr.ForeignAtomError
			require.ErrorAs(t, err, &foreign)
			assert.Equal(t, f.space.ID(), foreign.Space)
		})
	}
}

func TestExecute_NestedExecutableIsOpaque(t *testing.T) {
	f := newFixture(t)
	inner := f.exec(t, "py:add_link", f.node(t, "a"), f.node(t, "b"))
	f.reg.MustRegister(procedure.MustWrap("identity", func(a atom.Atom) atom.Atom { return a }))

	got, err := f.eval.Execute(context.Background(), f.exec(t, "py:identity", inner), WithSpace(f.space))
	require.NoError(t, err)
	assert.Same(t, inner, got)
	assert.Zero(t, f.calls.Load(), "inner link was not executed")
}

func TestExecute_Metrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	f := newFixture(t, WithMetrics(m))
	one := f.node(t, "one")

	_, err := f.eval.Execute(context.Background(), f.exec(t, "py:add_link", one, one), WithSpace(f.space))
	require.NoError(t, err)
	_, err = f.eval.Execute(context.Background(), f.exec(t, "py:add_link", one), WithSpace(f.space))
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExecutionsTotal.WithLabelValues("add_link", metrics.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExecutionsTotal.WithLabelValues("add_link", metrics.OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FailuresTotal.WithLabelValues("ArityMismatch")))
}

func TestExecute_MetricLabelsAreBounded(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	f := newFixture(t, WithMetrics(m))
	one := f.node(t, "one")

	for _, name := range []string{"py:add_link", "py: add_link", " py :add_link"} {
		_, err := f.eval.Execute(context.Background(), f.exec(t, name, one, one), WithSpace(f.space))
		require.NoError(t, err)
	}
	for _, name := range []string{"py:nope", "py:other", "scm:x"} {
		_, err := f.eval.Execute(context.Background(), f.exec(t, name, one), WithSpace(f.space))
		require.Error(t, err)
	}
	_, err := f.eval.Execute(context.Background(), one, WithSpace(f.space))
	require.Error(t, err)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.ExecutionsTotal.WithLabelValues("add_link", metrics.OutcomeSuccess)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ExecutionsTotal.WithLabelValues("unresolved", metrics.OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExecutionsTotal.WithLabelValues("malformed", metrics.OutcomeFailure)))
	assert.Equal(t, 3, testutil.CollectAndCount(m.ExecutionsTotal))
}

// wrappedNode satisfies atom.Atom through an embedded node without being a
// pointer itself.
type wrappedNode struct{ *atom.Node }

func TestExecute_NonPointerAtoms(t *testing.T) {
	f := newFixture(t)
	one := f.node(t, "one")
	f.reg.MustRegister(procedure.New("wrap", procedure.Exactly(1), func(ctx context.Context, call *procedure.Call) (any, error) {
		n, _ := atom.IsNode(call.Arg(0))
		return wrappedNode{n}, nil
	}))

	t.Run("result", func(t *testing.T) {
		var err error
		require.NotPanics(t, func() {
			_, err = f.eval.Execute(context.Background(), f.exec(t, "py:wrap", one), WithSpace(f.space))
		})
		var foreign *execerr.ForeignAtomError
		require.ErrorAs(t, err, &foreign, "a non-canonical wrapper is not a member of the space")
	})

	t.Run("target", func(t *testing.T) {
		var err error
		require.NotPanics(t, func() {
			_, err = f.eval.Execute(context.Background(), wrappedNode{one}, WithSpace(f.space))
		})
		var malformed *execerr.MalformedExecutionLinkError
		require.ErrorAs(t, err, &malformed)
	})
}

func TestExecute_Logs(t *testing.T) {
	f := newFixture(t)
	one := f.node(t, "one")

	var buf bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	_, err := f.eval.Execute(ctx, f.exec(t, "py:add_link", one, one), WithSpace(f.space))
	require.NoError(t, err)
	_, err = f.eval.Execute(ctx, f.exec(t, "py:missing"), WithSpace(f.space))
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "Resolved procedure.")
	assert.Contains(t, out, "Execution finished.")
	assert.Contains(t, out, "Execution failed.")
	assert.Contains(t, out, "class=UnresolvedSchema")
}

func TestExecute_ConcurrentContexts(t *testing.T) {
	f := newFixture(t)
	const workers = 16

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			space := inmemoryspace.New()
			a, _ := space.AddNode(atom.ConceptNode, fmt.Sprintf("a%d", i))
			schema, _ := space.AddNode(atom.GroundedSchemaNode, "py:return_concept")
			list, _ := space.AddLink(atom.ListLink, a)
			link, _ := space.AddLink(atom.ExecutionOutputLink, schema, list)

			ctx, finalize := execctx.Enter(context.Background(), space)
			defer finalize()

			got, err := f.eval.Execute(ctx, link)
			if err != nil {
				errs <- err
				return
			}
			if !space.Contains(got) {
				errs <- fmt.Errorf("worker %d: result not in its own space", i)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int64(workers), f.calls.Load())
}

func TestClassify(t *testing.T) {
	assert.Equal(t, "ContextError", Classify(execerr.ErrNoDefaultStore))
	assert.Equal(t, "ExecutionFault", Classify(&execerr.ExecutionFaultError{Procedure: "p", Cause: &execerr.ForeignAtomError{}}))
	assert.Equal(t, "Unknown", Classify(errors.New("x")))
}
