// Package units implements a small units-of-measure system for recipe
// quantities.
//
// The system is deliberately unsophisticated: units belong to a named
// dimension (mass, volume, ...) and each dimension has one base unit every
// other unit converts to by a fixed rational factor. It exists for
// display-time conversion hints and for checking that a reference's quantity
// can be reconciled with a sub recipe's total, not for general dimensional
// analysis. "Dubious" measures (e.g. cloves of garlic) are first-class.
//
// The registry is injected configuration: callers construct one (usually
// starting from Builtin) and pass it to the parser, compiler and renderer.
package units

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vk/recipegrid/internal/number"
)

// Definition gives a derived unit's size in terms of another unit of the
// same dimension, e.g. 1000 g for a kilogram.
type Definition struct {
	Value number.Number
	Unit  string
}

// Unit describes one unit of measurement. The first name is canonical; the
// rest are aliases. A nil Definition marks the dimension's base unit.
type Unit struct {
	Names      []string
	Definition *Definition
}

// Name returns the canonical name of the unit.
func (u Unit) Name() string { return u.Names[0] }

// UnknownUnitError is returned when a unit name is not in the registry.
type UnknownUnitError struct {
	Name string
}

func (e UnknownUnitError) Error() string {
	return fmt.Sprintf("unknown unit %q", e.Name)
}

// IncompatibleUnitError is returned when a conversion between two units of
// different dimensions is requested.
type IncompatibleUnitError struct {
	From, To string
}

func (e IncompatibleUnitError) Error() string {
	return fmt.Sprintf("cannot convert between incompatible units %q and %q", e.From, e.To)
}

type entry struct {
	dimension string
	canonical string
	toBase    number.Number
}

// Registry maps unit names (case-insensitively) to their dimension and
// conversion factor.
type Registry struct {
	byName     map[string]entry
	dimensions map[string][]string // dimension -> canonical names, insertion order
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:     make(map[string]entry),
		dimensions: make(map[string][]string),
	}
}

func normalise(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Add registers a unit under the given dimension. Derived units must be
// defined in terms of a unit already present in the same dimension. Name
// collisions across the whole registry are rejected.
func (r *Registry) Add(dimension string, u Unit) error {
	if len(u.Names) == 0 {
		return fmt.Errorf("unit in dimension %q has no names", dimension)
	}

	toBase := number.FromInt(1)
	if u.Definition != nil {
		ref, ok := r.byName[normalise(u.Definition.Unit)]
		if !ok {
			return UnknownUnitError{Name: u.Definition.Unit}
		}
		if ref.dimension != dimension {
			return IncompatibleUnitError{From: u.Name(), To: u.Definition.Unit}
		}
		toBase = u.Definition.Value.Mul(ref.toBase)
	}

	for _, name := range u.Names {
		key := normalise(name)
		if _, exists := r.byName[key]; exists {
			return fmt.Errorf("unit name %q already registered", name)
		}
		r.byName[key] = entry{dimension: dimension, canonical: u.Name(), toBase: toBase}
	}
	r.dimensions[dimension] = append(r.dimensions[dimension], u.Name())
	return nil
}

// Known reports whether name is a registered unit.
func (r *Registry) Known(name string) bool {
	_, ok := r.byName[normalise(name)]
	return ok
}

// Dimension returns the dimension a unit belongs to.
func (r *Registry) Dimension(name string) (string, error) {
	e, ok := r.byName[normalise(name)]
	if !ok {
		return "", UnknownUnitError{Name: name}
	}
	return e.dimension, nil
}

// Convert returns the factor f such that a quantity in `from` multiplied by
// f is the equivalent quantity in `to`.
func (r *Registry) Convert(from, to string) (number.Number, error) {
	fe, ok := r.byName[normalise(from)]
	if !ok {
		return number.Number{}, UnknownUnitError{Name: from}
	}
	te, ok := r.byName[normalise(to)]
	if !ok {
		return number.Number{}, UnknownUnitError{Name: to}
	}
	if fe.dimension != te.dimension {
		return number.Number{}, IncompatibleUnitError{From: from, To: to}
	}
	return fe.toBase.Div(te.toBase), nil
}

// Conversion is one alternative representation of a quantity.
type Conversion struct {
	Factor number.Number // multiply a quantity in the source unit by this
	Name   string        // canonical name of the target unit
}

// Conversions enumerates conversions from the named unit to every unit in
// its dimension (including itself, with factor 1), in registration order.
func (r *Registry) Conversions(name string) ([]Conversion, error) {
	e, ok := r.byName[normalise(name)]
	if !ok {
		return nil, UnknownUnitError{Name: name}
	}
	var out []Conversion
	for _, canonical := range r.dimensions[e.dimension] {
		te := r.byName[normalise(canonical)]
		out = append(out, Conversion{Factor: e.toBase.Div(te.toBase), Name: canonical})
	}
	return out, nil
}

// Names returns every registered unit name and alias, longest first. The
// parser uses this ordering so that multi-word unit names such as "tea
// spoons" win over their prefixes.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return names
}
