package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/specialistvlad/atomgrid/internal/app"
	"github.com/specialistvlad/atomgrid/internal/bridge"
	"github.com/specialistvlad/atomgrid/internal/procedure"
	"github.com/specialistvlad/atomgrid/modules"
	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
	Results   []app.ScriptResult
}

// Outcome returns the formatted value of the named eval block in the script
// written as file, failing the test when it is missing.
func (r *HarnessResult) Outcome(t *testing.T, file, eval string) string {
	t.Helper()
	for _, res := range r.Results {
		if filepath.Base(res.Path) != file {
			continue
		}
		for _, o := range res.Outcomes {
			if o.Name == eval {
				return bridge.Format(o.Value)
			}
		}
	}
	require.Failf(t, "outcome not found", "no eval %q in %s", eval, file)
	return ""
}

// NewApp builds an App logging at debug level into a SafeBuffer. The core
// modules are registered along with mods.
func NewApp(t *testing.T, cfg app.Config, mods ...procedure.Module) (*app.App, *SafeBuffer) {
	t.Helper()
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	full, err := app.NewConfig(cfg)
	require.NoError(t, err)

	logBuffer := &SafeBuffer{}
	a, err := app.New(logBuffer, full, append(modules.Core(), mods...)...)
	require.NoError(t, err)
	t.Cleanup(func() {
		if os.Getenv("ATOMGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})
	return a, logBuffer
}

// RunIntegrationTest provides a standardized harness for running integration tests
// using a default background context.
func RunIntegrationTest(t *testing.T, files map[string]string, mods ...procedure.Module) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, app.Config{Workers: 4}, files, mods...)
}

// RunIntegrationTestWithContext writes files into a temporary directory and
// runs every script in it, in file name order, with the given configuration.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, cfg app.Config, files map[string]string, mods ...procedure.Module) *HarnessResult {
	t.Helper()

	dir := t.TempDir()
	var paths []string
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		if filepath.Ext(name) == ".hcl" {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)

	testApp, logBuffer := NewApp(t, cfg, mods...)
	results, err := testApp.RunScripts(ctx, paths)

	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       err,
		App:       testApp,
		Results:   results,
	}
}
