package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/specialistvlad/atomgrid/internal/app"
	"github.com/specialistvlad/atomgrid/internal/cli"
)

// main is the entrypoint for the atomgrid application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The real main function handles errors and exit codes.
	if err := run(ctx, os.Stdout, os.Args[1:]); err != nil {
		stop()
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(ctx context.Context, outW io.Writer, args []string) (err error) {
	inv, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// Procedures are user code; a panic during startup becomes a clean error.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application startup panicked: %v", r)
		}
	}()

	a, err := app.New(outW, inv.Config)
	if err != nil {
		return err
	}

	switch inv.Command {
	case cli.CommandProcedures:
		return listProcedures(outW, a)
	default:
		return a.Run(ctx)
	}
}

func listProcedures(outW io.Writer, a *app.App) error {
	for _, name := range a.Procedures() {
		proc, err := a.Resolver().Resolve(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(outW, "%-28s %-8s %s\n", name, proc.Arity, proc.Description)
	}
	return nil
}
