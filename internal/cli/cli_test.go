package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/recipegrid/internal/number"
)

func TestParse(t *testing.T) {
	t.Run("no arguments prints usage and exits", func(t *testing.T) {
		out := &bytes.Buffer{}
		config, shouldExit, err := Parse(nil, out)
		require.NoError(t, err)
		assert.True(t, shouldExit)
		assert.Nil(t, config)
		assert.Contains(t, out.String(), "Usage:")
	})

	t.Run("help flag exits cleanly", func(t *testing.T) {
		out := &bytes.Buffer{}
		_, shouldExit, err := Parse([]string{"-h"}, out)
		require.NoError(t, err)
		assert.True(t, shouldExit)
	})

	t.Run("defaults", func(t *testing.T) {
		out := &bytes.Buffer{}
		config, shouldExit, err := Parse([]string{"recipe.md"}, out)
		require.NoError(t, err)
		require.False(t, shouldExit)
		assert.Equal(t, "recipe.md", config.InputPath)
		assert.Equal(t, "", config.OutputPath)
		assert.True(t, config.Scale.Equal(number.FromInt(1)))
		assert.Equal(t, 0, config.Servings)
		assert.False(t, config.Lint)
		assert.Equal(t, "json", config.LogFormat)
		assert.Equal(t, "info", config.LogLevel)
	})

	t.Run("all flags", func(t *testing.T) {
		out := &bytes.Buffer{}
		config, _, err := Parse([]string{
			"-scale", "3/2",
			"-o", "out.html",
			"-units", "units.hcl",
			"-lint",
			"-log-format", "text",
			"-log-level", "debug",
			"recipe.md",
		}, out)
		require.NoError(t, err)
		assert.True(t, config.Scale.Equal(number.FromFraction(3, 2)))
		assert.Equal(t, "out.html", config.OutputPath)
		assert.Equal(t, "units.hcl", config.UnitsPath)
		assert.True(t, config.Lint)
		assert.Equal(t, "text", config.LogFormat)
		assert.Equal(t, "debug", config.LogLevel)
	})

	t.Run("scale and servings are mutually exclusive", func(t *testing.T) {
		out := &bytes.Buffer{}
		_, _, err := Parse([]string{"-scale", "2", "-servings", "4", "recipe.md"}, out)
		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 2, exitErr.Code)
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		for name, args := range map[string][]string{
			"bad scale":      {"-scale", "lots", "recipe.md"},
			"bad log format": {"-log-format", "yaml", "recipe.md"},
			"bad log level":  {"-log-level", "loud", "recipe.md"},
		} {
			t.Run(name, func(t *testing.T) {
				out := &bytes.Buffer{}
				_, _, err := Parse(args, out)
				var exitErr *ExitError
				require.ErrorAs(t, err, &exitErr)
				assert.Equal(t, 2, exitErr.Code)
			})
		}
	})
}

func TestParseScale(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want number.Number
	}{
		{"2", number.FromInt(2)},
		{"1.5", number.FromFraction(3, 2)},
		{"1/2", number.FromFraction(1, 2)},
		{"9 3/4", number.FromFraction(39, 4)},
		{" 2 ", number.FromInt(2)},
	} {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseScale(tc.in)
			require.NoError(t, err)
			assert.True(t, got.Equal(tc.want))
		})
	}

	for _, in := range []string{"", "lots", "1/0", "-2", "2x"} {
		t.Run("invalid "+in, func(t *testing.T) {
			_, err := ParseScale(in)
			assert.Error(t, err)
		})
	}
}
