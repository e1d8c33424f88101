package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_PanicRecovery(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// A units file with a syntax error is guaranteed to cause a panic during
	// the startup phase inside app.NewApp().
	invalidHCL := `
		unit "sack" {
			names = [
		// Missing closing bracket here
	`
	tempDir := t.TempDir()
	unitsPath := filepath.Join(tempDir, "units.hcl")
	require.NoError(t, os.WriteFile(unitsPath, []byte(invalidHCL), 0600))
	recipePath := filepath.Join(tempDir, "recipe.md")
	require.NoError(t, os.WriteFile(recipePath, []byte("    1 egg, fried\n"), 0600))

	args := []string{"-units", unitsPath, recipePath}
	out := &bytes.Buffer{}

	// --- Act ---
	// The run function should recover the panic and return it as an error.
	runErr := run(out, args)

	// --- Assert ---
	require.Error(t, runErr, "run() should have returned an error after recovering from a panic")

	errStr := runErr.Error()
	require.True(t, strings.Contains(errStr, "application startup panicked"), "The error message should indicate that a panic was recovered.")
	require.True(t, strings.Contains(errStr, "units"), "The error message should contain the underlying reason for the panic.")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	args := []string{"-h"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, args)

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// Providing an unknown flag will cause cli.Parse to return an error.
	args := []string{"--this-is-not-a-valid-flag"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, args)

	// --- Assert ---
	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	source := "Tiffin for 2\n============\n\n    100g spam\n    fry(spam)\n"
	tempDir := t.TempDir()
	recipePath := filepath.Join(tempDir, "tiffin.md")
	require.NoError(t, os.WriteFile(recipePath, []byte(source), 0600))
	outPath := filepath.Join(tempDir, "out.html")

	args := []string{"-servings", "4", "-o", outPath, recipePath}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, args)

	// --- Assert ---
	require.NoError(t, err)
	page, readErr := os.ReadFile(outPath)
	require.NoError(t, readErr)
	require.Contains(t, string(page), "<title>Tiffin</title>")
	require.Contains(t, string(page), "200g")
	require.Contains(t, string(page), "rg-original-servings")
}
