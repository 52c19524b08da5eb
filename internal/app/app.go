package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/specialistvlad/atomgrid/internal/atom"
	"github.com/specialistvlad/atomgrid/internal/atomspace"
	"github.com/specialistvlad/atomgrid/internal/bridge"
	"github.com/specialistvlad/atomgrid/internal/ctxlog"
	"github.com/specialistvlad/atomgrid/internal/evaluator"
	"github.com/specialistvlad/atomgrid/internal/execctx"
	"github.com/specialistvlad/atomgrid/internal/execerr"
	"github.com/specialistvlad/atomgrid/internal/inmemoryspace"
	"github.com/specialistvlad/atomgrid/internal/metrics"
	"github.com/specialistvlad/atomgrid/internal/procedure"
	"github.com/specialistvlad/atomgrid/internal/resolver"
	"github.com/specialistvlad/atomgrid/modules"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	ctx    context.Context
	logger *slog.Logger
	config *Config

	native    *procedure.Registry
	scripts   *procedure.Registry
	resolver  *resolver.Resolver
	evaluator *evaluator.Evaluator

	promRegistry *prometheus.Registry
	metrics      *metrics.Metrics
	httpServer   *http.Server
}

// New is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger, registries
// and metrics. With no modules given, the core modules are registered.
func New(outW io.Writer, cfg *Config, mods ...procedure.Module) (*App, error) {
	logger := newLogger(cfg, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	native := procedure.NewRegistry()
	if len(mods) == 0 {
		mods = modules.Core()
	}
	if err := native.Load(mods...); err != nil {
		return nil, fmt.Errorf("failed to load modules: %w", err)
	}
	logger.Debug("All Go modules registered.", "count", len(mods), "procedures", native.Len())

	scripts := procedure.NewRegistry()
	backends := map[string]resolver.Backend{
		BackendNative:  native,
		BackendScripts: scripts,
	}

	res := resolver.New()
	for prefix, backend := range backends {
		if err := res.Register(prefix, backend); err != nil {
			return nil, err
		}
	}
	aliases := make([]string, 0, len(cfg.Aliases))
	for prefix := range cfg.Aliases {
		aliases = append(aliases, prefix)
	}
	sort.Strings(aliases)
	for _, prefix := range aliases {
		backend, ok := backends[cfg.Aliases[prefix]]
		if !ok {
			return nil, fmt.Errorf("alias %q names unknown backend %q", prefix, cfg.Aliases[prefix])
		}
		if err := res.Register(prefix, backend); err != nil {
			return nil, fmt.Errorf("failed to register alias: %w", err)
		}
	}
	logger.Debug("Resolver configured.", "prefixes", res.Prefixes())

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(promRegistry)

	return &App{
		outW:         outW,
		ctx:          ctx,
		logger:       logger,
		config:       cfg,
		native:       native,
		scripts:      scripts,
		resolver:     res,
		evaluator:    evaluator.New(res, evaluator.WithMetrics(m)),
		promRegistry: promRegistry,
		metrics:      m,
	}, nil
}

// Registry returns the registry of Go procedures. This is primarily for testing.
func (a *App) Registry() *procedure.Registry { return a.native }

// Scripts returns the registry of script-defined procedures.
func (a *App) Scripts() *procedure.Registry { return a.scripts }

// Resolver returns the application's resolver.
func (a *App) Resolver() *resolver.Resolver { return a.resolver }

// Gatherer exposes the application's metrics.
func (a *App) Gatherer() prometheus.Gatherer { return a.promRegistry }

// Context returns a background context carrying the application logger.
func (a *App) Context() context.Context { return a.ctx }

// Procedures lists every resolvable procedure name.
func (a *App) Procedures() []string { return a.resolver.Names() }

// NewSpace creates an empty atomspace.
func (a *App) NewSpace() atomspace.Space {
	space := inmemoryspace.New()
	a.logger.Debug("Created atomspace.", "space", space.ID())
	return space
}

// SetDefaultStore makes space the current space of the returned context,
// pushing onto the context's stack or binding a new one.
func (a *App) SetDefaultStore(ctx context.Context, space atomspace.Space) context.Context {
	ctx, _ = execctx.Enter(a.withLogger(ctx), space)
	stack, _ := execctx.FromContext(ctx)
	a.logger.Debug("Default store set.", "space", space.ID(), "depth", stack.Depth())
	return ctx
}

// Finalize pops the current space of ctx, restoring the previous one.
func (a *App) Finalize(ctx context.Context) error {
	stack, ok := execctx.FromContext(ctx)
	if !ok {
		return execerr.ErrEmptyStack
	}
	if err := stack.Finalize(); err != nil {
		return err
	}
	a.logger.Debug("Default store finalized.", "depth", stack.Depth())
	return nil
}

// Execute evaluates an executable link through the direct API.
func (a *App) Execute(ctx context.Context, link atom.Atom, opts ...evaluator.ExecOption) (atom.Atom, error) {
	return a.evaluator.Execute(a.withLogger(ctx), link, opts...)
}

// NewBridge returns an expression bridge bound to space. Script procedures it
// defines are shared by the whole application.
func (a *App) NewBridge(space atomspace.Space) *bridge.Bridge {
	return bridge.New(space, a.evaluator, bridge.WithScripts(a.scripts), bridge.WithMetrics(a.metrics))
}

// withLogger attaches the application logger unless ctx already carries one.
func (a *App) withLogger(ctx context.Context) context.Context {
	if _, ok := ctxlog.Lookup(ctx); ok {
		return ctx
	}
	return ctxlog.WithLogger(ctx, a.logger)
}
