package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"regexp"
	"strings"

	"github.com/vk/recipegrid/internal/app"
	"github.com/vk/recipegrid/internal/number"
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

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("recipegrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
Recipe Grid - compile markdown recipes into scalable HTML.

Usage:
  recipegrid [options] RECIPE_PATH

Arguments:
  RECIPE_PATH
    Path to a recipe grid markdown file.

Options:
`)
		flagSet.PrintDefaults()
	}

	scaleFlag := flagSet.String("scale", "", "Multiplier to scale the recipe by, e.g. '2', '1.5' or '9 3/4'.")
	servingsFlag := flagSet.Int("servings", 0, "Rescale the recipe to this number of servings. Requires the recipe title to declare a serving count, e.g. 'for 4'.")
	outputFlag := flagSet.String("o", "", "The output filename for the generated HTML. Defaults to the input filename with the extension replaced with .html. '-' writes to stdout.")
	unitsFlag := flagSet.String("units", "", "Path to an HCL file of custom unit definitions.")
	lintFlag := flagSet.Bool("lint", false, "Check the recipes for common mistakes instead of rendering. Exits non-zero when findings are reported.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	if path == "" {
		slog.Debug("No recipe path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	if *scaleFlag != "" && *servingsFlag != 0 {
		return nil, false, &ExitError{Code: 2, Message: "-scale and -servings cannot be combined"}
	}

	var scale number.Number
	if *scaleFlag != "" {
		parsed, err := ParseScale(*scaleFlag)
		if err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
		scale = parsed
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		InputPath:  path,
		OutputPath: *outputFlag,
		Scale:      scale,
		Servings:   *servingsFlag,
		UnitsPath:  *unitsFlag,
		Lint:       *lintFlag,
		LogFormat:  logFormat,
		LogLevel:   logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "input", config.InputPath)
	return config, false, nil
}

var scalePattern = regexp.MustCompile(
	`^(?:([0-9]+)\s+)?([0-9]+)\s*/\s*([0-9]+)$|^([0-9]+(?:\.[0-9]*)?)$`)

// ParseScale parses a scaling factor written as an integer, a decimal or a
// (possibly mixed) fraction.
func ParseScale(s string) (number.Number, error) {
	m := scalePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return number.Number{}, fmt.Errorf("invalid scale %q: expected e.g. '2', '1.5' or '9 3/4'", s)
	}

	if m[4] != "" {
		if strings.Contains(m[4], ".") {
			return number.FromDecimal(m[4])
		}
		r, ok := new(big.Rat).SetString(m[4])
		if !ok {
			return number.Number{}, fmt.Errorf("invalid scale %q", s)
		}
		return number.FromRat(r), nil
	}

	num, _ := new(big.Int).SetString(m[2], 10)
	den, _ := new(big.Int).SetString(m[3], 10)
	if den.Sign() == 0 {
		return number.Number{}, fmt.Errorf("invalid scale %q: zero denominator", s)
	}
	r := new(big.Rat).SetFrac(num, den)
	if m[1] != "" {
		whole, _ := new(big.Int).SetString(m[1], 10)
		r.Add(r, new(big.Rat).SetInt(whole))
	}
	return number.FromRat(r), nil
}
