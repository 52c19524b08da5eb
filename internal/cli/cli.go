package cli

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/atomgrid/internal/app"
	"github.com/specialistvlad/atomgrid/internal/config"
	"github.com/spf13/cobra"
)

// Commands understood by the binary.
const (
	CommandRun        = "run"
	CommandProcedures = "procedures"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Invocation is a parsed command line.
type Invocation struct {
	Command string
	Config  *app.Config
}

type options struct {
	configPath  string
	logLevel    string
	logFormat   string
	workers     int
	metricsPort int
	sharedSpace bool
	aliases     map[string]string
}

// Parse processes command-line arguments. It returns the invocation, a
// boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*Invocation, bool, error) {
	slog.Debug("CLI parser started.")

	var (
		opts options
		inv  *Invocation
	)
	root := newRootCommand(&opts, func(command string, cmd *cobra.Command, paths []string) error {
		cfg, err := opts.build(cmd, paths, command == CommandRun)
		if err != nil {
			return err
		}
		inv = &Invocation{Command: command, Config: cfg}
		return nil
	})
	root.SetArgs(args)
	root.SetOut(output)
	root.SetErr(output)

	if err := root.Execute(); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if inv == nil {
		slog.Debug("No command to run, exiting.")
		return nil, true, nil
	}

	slog.Debug("CLI parser finished successfully.", "command", inv.Command, "config", inv.Config)
	return inv, false, nil
}

type runner func(command string, cmd *cobra.Command, paths []string) error

func newRootCommand(opts *options, run runner) *cobra.Command {
	root := &cobra.Command{
		Use:   "atomgrid",
		Short: "Executes grounded procedures over an in-memory atomspace.",
		Long: `atomgrid evaluates ExecutionOutputLinks against an atomspace, resolving
each GroundedSchemaNode to a registered Go or script-defined procedure.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to an HCL config file.")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flags.StringVar(&opts.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	flags.StringToStringVar(&opts.aliases, "alias", nil, "Extra namespace prefix for a backend, as prefix=backend (backends: 'go', 'hcl').")

	runCmd := &cobra.Command{
		Use:   "run [flags] PATH...",
		Short: "Run every .hcl script found under the given paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(CommandRun, cmd, args)
		},
	}
	runCmd.Flags().IntVarP(&opts.workers, "workers", "w", 4, "Number of scripts run concurrently.")
	runCmd.Flags().IntVar(&opts.metricsPort, "metrics-port", 0, "Port for the /health and /metrics server. 0 is disabled.")
	runCmd.Flags().BoolVar(&opts.sharedSpace, "shared-space", false, "Run every script against one shared atomspace.")

	proceduresCmd := &cobra.Command{
		Use:   "procedures",
		Short: "List every resolvable procedure name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(CommandProcedures, cmd, nil)
		},
	}

	root.AddCommand(runCmd, proceduresCmd)
	return root
}

// build merges the config file and flags. An explicitly set flag wins over
// the file, and the file wins over flag defaults.
func (o *options) build(cmd *cobra.Command, paths []string, needScripts bool) (*app.Config, error) {
	cfg := app.Config{
		LogLevel:    o.logLevel,
		LogFormat:   o.logFormat,
		Workers:     o.workers,
		MetricsPort: o.metricsPort,
		SharedSpace: o.sharedSpace,
		ScriptPaths: paths,
	}

	if o.configPath != "" {
		file, err := config.Load(o.configPath)
		if err != nil {
			return nil, err
		}
		o.apply(cmd, file, &cfg)
		slog.Debug("Config file merged.", "path", o.configPath)
	}
	if cmd.Flags().Changed("alias") {
		if cfg.Aliases == nil {
			cfg.Aliases = app.DefaultAliases()
		}
		maps.Copy(cfg.Aliases, o.aliases)
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	if needScripts && len(cfg.ScriptPaths) == 0 {
		return nil, fmt.Errorf("no script paths given: pass PATH arguments or set scripts in the config file")
	}

	full, err := app.NewConfig(cfg)
	if err != nil {
		return nil, err
	}
	return full, nil
}

func (o *options) apply(cmd *cobra.Command, file *config.File, cfg *app.Config) {
	flags := cmd.Flags()
	if file.LogLevel != nil && !flags.Changed("log-level") {
		cfg.LogLevel = *file.LogLevel
	}
	if file.LogFormat != nil && !flags.Changed("log-format") {
		cfg.LogFormat = *file.LogFormat
	}
	if file.Workers != nil && !flags.Changed("workers") {
		cfg.Workers = *file.Workers
	}
	if file.MetricsPort != nil && !flags.Changed("metrics-port") {
		cfg.MetricsPort = *file.MetricsPort
	}
	if file.SharedSpace != nil && !flags.Changed("shared-space") {
		cfg.SharedSpace = *file.SharedSpace
	}
	if len(cfg.ScriptPaths) == 0 {
		// Script paths in the file are relative to the file itself.
		base := filepath.Dir(o.configPath)
		for _, p := range file.Scripts {
			if !filepath.IsAbs(p) {
				p = filepath.Join(base, p)
			}
			cfg.ScriptPaths = append(cfg.ScriptPaths, p)
		}
	}
	if file.Aliases != nil {
		cfg.Aliases = maps.Clone(file.Aliases)
	}
}
