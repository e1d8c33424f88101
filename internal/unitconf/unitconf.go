// Package unitconf loads custom unit definitions from HCL configuration
// files and merges them over the built-in unit registry.
//
// A configuration file holds unit blocks:
//
//	unit "sack" {
//	  names      = ["sack", "sacks"]
//	  dimension  = "mass"
//	  definition = "25 kg"
//	}
//
// The block label is the canonical name; names lists aliases. Omitting
// definition makes the unit the base unit of a new dimension.
package unitconf

import (
	"context"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/recipegrid/internal/ctxlog"
	"github.com/vk/recipegrid/internal/number"
	"github.com/vk/recipegrid/internal/units"
)

// Config is the top-level structure of a units configuration file.
type Config struct {
	Units []*UnitBlock `hcl:"unit,block"`
}

// UnitBlock is one unit block. Names is kept as an expression so aliases
// can be validated with a useful error rather than a decode failure.
type UnitBlock struct {
	Name       string         `hcl:"name,label"`
	Names      hcl.Expression `hcl:"names,optional"`
	Dimension  string         `hcl:"dimension"`
	Definition string         `hcl:"definition,optional"`
}

// Load parses the HCL units file at path and returns the built-in registry
// extended with the units it declares.
func Load(ctx context.Context, path string) (*units.Registry, error) {
	log := ctxlog.FromContext(ctx)
	log.Debug("loading units configuration", "path", path)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing units file %s: %s", path, diags.Error())
	}
	return merge(ctx, file)
}

// Parse is Load for in-memory configuration, with filename used only in
// error messages.
func Parse(ctx context.Context, filename string, src []byte) (*units.Registry, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing units file %s: %s", filename, diags.Error())
	}
	return merge(ctx, file)
}

func merge(ctx context.Context, file *hcl.File) (*units.Registry, error) {
	log := ctxlog.FromContext(ctx)

	var config Config
	if diags := gohcl.DecodeBody(file.Body, nil, &config); diags.HasErrors() {
		return nil, fmt.Errorf("decoding units file: %s", diags.Error())
	}

	reg := units.Builtin()
	for _, block := range config.Units {
		unit := units.Unit{}

		names, err := blockNames(block)
		if err != nil {
			return nil, err
		}
		unit.Names = names

		if block.Definition != "" {
			def, err := parseDefinition(block.Definition)
			if err != nil {
				return nil, fmt.Errorf("unit %q: %w", block.Name, err)
			}
			unit.Definition = def
		}

		if err := reg.Add(block.Dimension, unit); err != nil {
			return nil, fmt.Errorf("unit %q: %w", block.Name, err)
		}
		log.Debug("added configured unit",
			"unit", block.Name, "dimension", block.Dimension, "aliases", len(unit.Names)-1)
	}
	return reg, nil
}

// blockNames returns the unit's names with the block label first, whether
// or not the names list repeats it.
func blockNames(block *UnitBlock) ([]string, error) {
	out := []string{block.Name}
	if block.Names == nil {
		return out, nil
	}
	val, diags := block.Names.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("unit %q: names: %s", block.Name, diags.Error())
	}
	if val.IsNull() {
		return out, nil
	}
	if !val.CanIterateElements() {
		return nil, fmt.Errorf("unit %q: names must be a list of strings", block.Name)
	}
	for _, v := range val.AsValueSlice() {
		if v.Type() != cty.String || v.IsNull() {
			return nil, fmt.Errorf("unit %q: names must be a list of strings", block.Name)
		}
		if name := v.AsString(); name != block.Name {
			out = append(out, name)
		}
	}
	return out, nil
}

var definitionPattern = regexp.MustCompile(
	`^([0-9]+(?:\.[0-9]*)?|[0-9]+\s*/\s*[0-9]+)\s*(.+)$`)

// parseDefinition parses a definition such as "25 kg", "0.5 l" or
// "1/16 lb". Decimal values scale as decimals, fractions stay exact.
func parseDefinition(s string) (*units.Definition, error) {
	m := definitionPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil, fmt.Errorf("invalid definition %q, expected e.g. \"25 kg\"", s)
	}
	value, err := parseValue(m[1])
	if err != nil {
		return nil, fmt.Errorf("invalid definition %q: %w", s, err)
	}
	return &units.Definition{Value: value, Unit: m[2]}, nil
}

func parseValue(s string) (number.Number, error) {
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, _ := new(big.Int).SetString(strings.TrimSpace(num), 10)
		d, _ := new(big.Int).SetString(strings.TrimSpace(den), 10)
		if n == nil || d == nil || d.Sign() == 0 {
			return number.Number{}, fmt.Errorf("invalid fraction %q", s)
		}
		return number.FromRat(new(big.Rat).SetFrac(n, d)), nil
	}
	if strings.Contains(s, ".") {
		return number.FromDecimal(s)
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return number.Number{}, fmt.Errorf("invalid value %q", s)
	}
	return number.FromRat(r), nil
}
