package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/atomgrid/internal/bridge"
)

// BackendNative names the registry holding Go procedures from modules.
const BackendNative = "go"

// BackendScripts names the registry holding script-defined procedures.
const BackendScripts = bridge.Prefix

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ScriptPaths []string // .hcl files or directories

	LogFormat   string
	LogLevel    string
	MetricsPort int
	Workers     int
	// SharedSpace makes every script intern into one space instead of a
	// space of its own.
	SharedSpace bool
	// Aliases maps extra namespace prefixes to a backend name.
	Aliases map[string]string
}

// DefaultAliases returns the aliases used when none are configured.
func DefaultAliases() map[string]string {
	return map[string]string{"py": BackendNative}
}

func NewConfig(cfg Config) (*Config, error) {
	switch cfg.LogFormat {
	case "":
		cfg.LogFormat = "text"
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}

	switch cfg.LogLevel {
	case "":
		cfg.LogLevel = "info"
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}

	if cfg.Workers == 0 {
		cfg.Workers = 1
	}
	if cfg.Workers < 0 {
		return nil, errors.New("workers cannot be negative")
	}
	if cfg.MetricsPort < 0 || cfg.MetricsPort > 65535 {
		return nil, fmt.Errorf("invalid metrics port %d", cfg.MetricsPort)
	}

	if cfg.Aliases == nil {
		cfg.Aliases = DefaultAliases()
	}
	aliases := make(map[string]string, len(cfg.Aliases))
	for prefix, backend := range cfg.Aliases {
		prefix = strings.TrimSpace(prefix)
		if prefix == "" || strings.Contains(prefix, ":") {
			return nil, fmt.Errorf("invalid alias prefix %q", prefix)
		}
		if backend != BackendNative && backend != BackendScripts {
			return nil, fmt.Errorf("alias %q names unknown backend %q", prefix, backend)
		}
		aliases[prefix] = backend
	}
	cfg.Aliases = aliases
	cfg.ScriptPaths = append([]string(nil), cfg.ScriptPaths...)

	return &cfg, nil
}
