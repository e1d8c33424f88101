package app

import (
	"errors"

	"github.com/vk/recipegrid/internal/number"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	InputPath  string // recipe grid markdown file
	OutputPath string // generated HTML; "" derives from InputPath, "-" writes to the output writer

	Scale    number.Number // scaling factor; the zero value means unscaled
	Servings int           // target serving count; 0 means unset

	UnitsPath string // optional HCL file of extra units

	Lint bool // check the recipes and report findings instead of rendering

	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.InputPath == "" {
		return nil, errors.New("InputPath is a required configuration field and cannot be empty")
	}
	if cfg.Servings < 0 {
		return nil, errors.New("Servings cannot be negative")
	}
	if cfg.Scale.Rat().Sign() < 0 {
		return nil, errors.New("Scale cannot be negative")
	}
	if cfg.Scale.Rat().Sign() == 0 {
		cfg.Scale = number.FromInt(1)
	}
	return &cfg, nil
}
