package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/atomgrid/internal/cli"
	"github.com/stretchr/testify/require"
)

func TestRun_Script(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := t.TempDir()
	script := `
eval "pair" {
  value = execute(ExecutionOutputLink(GroundedSchemaNode("py:add_link"), ListLink(ConceptNode("a"), ConceptNode("b"))))
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.hcl"), []byte(script), 0o600))
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, []string{"run", dir})

	// --- Assert ---
	require.NoError(t, err)
	require.Contains(t, out.String(), "Execution finished.")
}

func TestRun_ScriptFailure(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// The argument list holds one atom while add_link requires two.
	dir := t.TempDir()
	script := `
eval "short" {
  value = execute(ExecutionOutputLink(GroundedSchemaNode("py:add_link"), ListLink(ConceptNode("a"))))
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.hcl"), []byte(script), 0o600))

	// --- Act ---
	err := run(context.Background(), &bytes.Buffer{}, []string{"run", dir})

	// --- Assert ---
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing 1 required positional argument: 'atom2'")
}

func TestRun_Procedures(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(context.Background(), out, []string{"procedures"})

	require.NoError(t, err)
	require.Contains(t, out.String(), "go:add_link")
	require.Contains(t, out.String(), "py:return_concept")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	args := []string{"-h"}
	out := &bytes.Buffer{}

	// --- Act ---
	// The run function should see `shouldExit=true` and return a nil error.
	err := run(context.Background(), out, args)

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// Providing an unknown flag will cause cli.Parse to return an error.
	args := []string{"run", "--this-is-not-a-valid-flag"}
	out := &bytes.Buffer{}

	// --- Act ---
	// The run function should propagate the error from cli.Parse.
	err := run(context.Background(), out, args)

	// --- Assert ---
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr, "run() should return an error when argument parsing fails")
	require.Equal(t, 2, exitErr.Code)
	require.Contains(t, err.Error(), "unknown flag: --this-is-not-a-valid-flag")
}
