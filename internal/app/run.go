package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/atomgrid/internal/atomspace"
	"github.com/specialistvlad/atomgrid/internal/bridge"
	"github.com/specialistvlad/atomgrid/internal/ctxlog"
	"github.com/specialistvlad/atomgrid/internal/execctx"
	"github.com/specialistvlad/atomgrid/internal/fsutil"
	"golang.org/x/sync/errgroup"
)

// ScriptResult is the outcome of running one script file.
type ScriptResult struct {
	Path     string
	SpaceID  string
	Outcomes []bridge.Outcome
	Err      error
}

// Run discovers the configured scripts and runs them on the worker pool.
func (a *App) Run(ctx context.Context) error {
	ctx = a.withLogger(ctx)
	a.logger.Debug("App.Run method started.")

	a.startHealthCheckServer()
	defer a.closeHealthCheckServer()

	paths, err := fsutil.Collect(a.config.ScriptPaths, ".hcl")
	if err != nil {
		return fmt.Errorf("failed to discover scripts: %w", err)
	}
	a.logger.Info("Procedures registered:", "count", len(a.Procedures()), "names", a.Procedures())

	if len(paths) == 0 {
		a.logger.Warn("No scripts found, execution not required.")
		return nil
	}

	a.logger.Info("🚀 Starting concurrent execution...", "scripts", len(paths), "workers", a.config.Workers)
	results, err := a.RunScripts(ctx, paths)
	for _, r := range results {
		for _, o := range r.Outcomes {
			a.logger.Info("Eval result", "script", r.Path, "eval", o.Name, "value", bridge.Format(o.Value))
		}
	}
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	a.logger.Info("🏁 Execution finished.", "scripts", len(results))

	a.logger.Debug("App.Run method finished.")
	return nil
}

// RunScripts runs every script at paths with up to Workers scripts in flight.
// Each script runs with its own execution context whose default space is
// fresh, or shared when SharedSpace is set. Results are returned in path
// order; the error joins every script failure.
func (a *App) RunScripts(ctx context.Context, paths []string) ([]ScriptResult, error) {
	ctx = a.withLogger(ctx)
	results := make([]ScriptResult, len(paths))

	var shared atomspace.Space
	if a.config.SharedSpace {
		shared = a.NewSpace()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(a.config.Workers, 1))
	for i, path := range paths {
		g.Go(func() error {
			space := shared
			if space == nil {
				space = a.NewSpace()
			}
			results[i] = a.runScript(gctx, path, space)
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return results, errors.Join(errs...)
}

func (a *App) runScript(ctx context.Context, path string, space atomspace.Space) (result ScriptResult) {
	result = ScriptResult{Path: path, SpaceID: space.ID()}
	ctx = ctxlog.With(ctx, "script", path)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker picked up script.", "space", space.ID())

	if err := ctx.Err(); err != nil {
		result.Err = fmt.Errorf("script %s not run: %w", path, err)
		return result
	}

	script, err := bridge.LoadScript(path)
	if err != nil {
		result.Err = err
		return result
	}

	// A stack bound by the caller must not be shared between workers.
	ctx = a.SetDefaultStore(execctx.WithStack(ctx, execctx.NewStack()), space)
	defer func() {
		if err := a.Finalize(ctx); err != nil && result.Err == nil {
			result.Err = err
		}
	}()

	result.Outcomes, err = a.NewBridge(space).Run(ctx, script)
	if err != nil {
		result.Err = fmt.Errorf("script %s failed: %w", path, err)
	}
	return result
}
