package recipe

import (
	"errors"
	"strings"

	"github.com/vk/recipegrid/internal/number"
	"github.com/vk/recipegrid/internal/units"
)

// Amount is the amount of an ingredient or referenced output to use: either
// an absolute Quantity or a relative Proportion.
type Amount interface {
	amountNode()
}

// Quantity is an absolute amount, e.g. 500 g.
type Quantity struct {
	Value number.Number

	// Unit is empty for unitless counts such as "3 eggs".
	Unit string

	// ValueUnitSpacing preserves the whitespace written between the value and
	// the unit, and Preposition any trailing preposition (the " of" in "50g of
	// butter"). Both are display-only.
	ValueUnitSpacing string
	Preposition      string
}

func (*Quantity) amountNode() {}

// Scale returns the quantity multiplied by m.
func (q *Quantity) Scale(m number.Number) *Quantity {
	out := *q
	out.Value = q.Value.Mul(m)
	return &out
}

// EqualValue reports whether q and o denote the same amount, converting
// between units via reg where possible. Units reg does not know are compared
// by name, case insensitively. Display-only fields are ignored.
func (q *Quantity) EqualValue(o *Quantity, reg *units.Registry) bool {
	if (q.Unit == "") != (o.Unit == "") {
		return false
	}
	if q.Unit == "" {
		return q.Value.Equal(o.Value)
	}
	if reg != nil {
		factor, err := reg.Convert(o.Unit, q.Unit)
		if err == nil {
			return q.Value.Equal(o.Value.Mul(factor))
		}
		var incompatible units.IncompatibleUnitError
		if errors.As(err, &incompatible) {
			return false
		}
	}
	return strings.EqualFold(q.Unit, o.Unit) && q.Value.Equal(o.Value)
}

// Proportion is a relative amount of a sub recipe output, e.g. half of it or
// whatever remains of it.
type Proportion struct {
	// Value is the fraction, between 0 and 1, of the output to use. A nil
	// Value means whatever remains once all other references are accounted
	// for.
	Value *number.Number

	// Percentage is true when the value was written as a percentage. Value is
	// already divided by 100.
	Percentage bool

	// RemainderWording is the word used in the source for a remainder amount
	// ("remaining", "rest", "left over"). Empty when Value is non-nil.
	RemainderWording string

	// Preposition preserves the words and symbols written after the value,
	// e.g. " of the", "%", " *". Display-only.
	Preposition string
}

func (*Proportion) amountNode() {}

// All returns the proportion meaning the whole of an output. This is the
// amount a reference without an explicit amount uses.
func All() *Proportion {
	one := number.FromInt(1)
	return &Proportion{Value: &one}
}

// Remainder returns the proportion meaning whatever is left of an output.
func Remainder() *Proportion {
	return &Proportion{RemainderWording: "remaining"}
}

// ScaleAmount scales a quantity by m. Proportions are relative and come back
// unchanged.
func ScaleAmount(a Amount, m number.Number) Amount {
	if q, ok := a.(*Quantity); ok {
		return q.Scale(m)
	}
	return a
}
