package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/recipegrid/internal/number"
)

// writeRecipe writes source to a .md file in a fresh temp dir and returns the
// path.
func writeRecipe(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recipe.md")
	require.NoError(t, os.WriteFile(path, []byte(source), 0600))
	return path
}

func newTestConfig(t *testing.T, config Config) *Config {
	t.Helper()
	if config.LogFormat == "" {
		config.LogFormat = "text"
	}
	if config.LogLevel == "" {
		config.LogLevel = "error"
	}
	validated, err := NewConfig(config)
	require.NoError(t, err)
	return validated
}

func TestRun_DefaultOutputPath(t *testing.T) {
	t.Parallel()

	recipePath := writeRecipe(t, "    100g spam\n    fry(spam)\n")
	config := newTestConfig(t, Config{InputPath: recipePath})

	out := &bytes.Buffer{}
	require.NoError(t, NewApp(out, config).Run(context.Background()))

	// The extension is replaced, not appended.
	htmlPath := filepath.Join(filepath.Dir(recipePath), "recipe.html")
	page, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(page), "<!DOCTYPE html>")
	assert.Contains(t, string(page), "rg-table")
	assert.Contains(t, string(page), "100g")
}

func TestRun_StdoutOutput(t *testing.T) {
	t.Parallel()

	recipePath := writeRecipe(t, "    2 eggs\n    fry(eggs)\n")
	config := newTestConfig(t, Config{InputPath: recipePath, OutputPath: "-"})

	out := &bytes.Buffer{}
	require.NoError(t, NewApp(out, config).Run(context.Background()))
	assert.Contains(t, out.String(), "<!DOCTYPE html>")
	assert.Contains(t, out.String(), "fry")
}

func TestRun_ExplicitScale(t *testing.T) {
	t.Parallel()

	recipePath := writeRecipe(t, "    100g spam\n    fry(spam)\n")
	config := newTestConfig(t, Config{
		InputPath:  recipePath,
		OutputPath: "-",
		Scale:      number.FromFraction(3, 2),
	})

	out := &bytes.Buffer{}
	require.NoError(t, NewApp(out, config).Run(context.Background()))
	assert.Contains(t, out.String(), "150g")
}

func TestRun_ServingsRescale(t *testing.T) {
	t.Parallel()

	source := "Pie for 2\n=========\n\n    100g butter\n    melt(butter)\n"
	recipePath := writeRecipe(t, source)
	config := newTestConfig(t, Config{
		InputPath:  recipePath,
		OutputPath: "-",
		Servings:   6,
	})

	out := &bytes.Buffer{}
	require.NoError(t, NewApp(out, config).Run(context.Background()))
	assert.Contains(t, out.String(), "300g")
	assert.Contains(t, out.String(), "rg-original-servings")
	assert.Contains(t, out.String(), "<title>Pie</title>")
}

func TestRun_ServingsWithoutTitleServingCount(t *testing.T) {
	t.Parallel()

	recipePath := writeRecipe(t, "    100g butter\n    melt(butter)\n")
	config := newTestConfig(t, Config{
		InputPath:  recipePath,
		OutputPath: "-",
		Servings:   6,
	})

	err := NewApp(&bytes.Buffer{}, config).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot scale to 6 servings")
}

func TestRun_CompileErrorNamesTheFile(t *testing.T) {
	t.Parallel()

	recipePath := writeRecipe(t, "    spam = fried(\n")
	config := newTestConfig(t, Config{InputPath: recipePath, OutputPath: "-"})

	err := NewApp(&bytes.Buffer{}, config).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), recipePath)
	assert.Contains(t, err.Error(), "At line 1")
}

func TestRun_LintFindings(t *testing.T) {
	t.Parallel()

	// 'egg' is defined but the step uses 'eggs', a classic typo.
	recipePath := writeRecipe(t, "    1 egg\n    fry(eggs)\n")
	config := newTestConfig(t, Config{InputPath: recipePath, Lint: true})

	out := &bytes.Buffer{}
	err := NewApp(out, config).Run(context.Background())

	var failure *LintFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, 1, failure.Count)
	assert.Contains(t, out.String(),
		recipePath+": Warning: Ingredient 'egg' was defined but never used. [unused ingredient]")

	// Lint mode never writes the HTML output.
	htmlPath := filepath.Join(filepath.Dir(recipePath), "recipe.html")
	_, statErr := os.Stat(htmlPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_LintClean(t *testing.T) {
	t.Parallel()

	recipePath := writeRecipe(t, "    1 egg\n    fry(egg)\n")
	config := newTestConfig(t, Config{InputPath: recipePath, Lint: true})

	out := &bytes.Buffer{}
	require.NoError(t, NewApp(out, config).Run(context.Background()))
	assert.Empty(t, out.String())
}

func TestNewApp_CustomUnits(t *testing.T) {
	t.Parallel()

	unitsPath := filepath.Join(t.TempDir(), "units.hcl")
	unitsHCL := `
unit "sack" {
  names      = ["sack", "sacks"]
  dimension  = "mass"
  definition = "25 kg"
}
`
	require.NoError(t, os.WriteFile(unitsPath, []byte(unitsHCL), 0600))

	recipePath := writeRecipe(t, "    2 sacks of flour\n    sieve(flour)\n")
	config := newTestConfig(t, Config{
		InputPath:  recipePath,
		OutputPath: "-",
		UnitsPath:  unitsPath,
	})

	recipegridApp := NewApp(&bytes.Buffer{}, config)
	assert.True(t, recipegridApp.Registry().Known("sack"))

	out := &bytes.Buffer{}
	require.NoError(t, NewApp(out, config).Run(context.Background()))
	// Conversions of the custom unit into its base dimension are offered.
	assert.Contains(t, out.String(), "50kg")
}

func TestNewApp_PanicsOnMissingUnitsFile(t *testing.T) {
	t.Parallel()

	config := newTestConfig(t, Config{
		InputPath: "recipe.md",
		UnitsPath: filepath.Join(t.TempDir(), "does-not-exist.hcl"),
	})

	require.Panics(t, func() {
		NewApp(&bytes.Buffer{}, config)
	})
}
