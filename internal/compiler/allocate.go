package compiler

import (
	"errors"
	"strings"

	"github.com/vk/recipegrid/internal/number"
	"github.com/vk/recipegrid/internal/recipe"
	"github.com/vk/recipegrid/internal/svs"
	"github.com/vk/recipegrid/internal/units"
)

// Output is the consumption ledger entry for one named sub recipe output.
type Output struct {
	Name        svs.String
	SubRecipe   *recipe.SubRecipe
	OutputIndex int

	// Total is the output's total quantity, nil when it cannot be inferred
	// (the output combines several ingredients, or its ingredient has no
	// quantity).
	Total *recipe.Quantity

	// Allocations records, in source order, how much of the output each
	// reference consumes.
	Allocations []Allocation

	// Inlined is set when the sub recipe was substituted at its single use
	// site and no longer appears as a tree of its own.
	Inlined bool
}

// Allocation is the amount of an output one reference consumes.
type Allocation struct {
	Ref *recipe.Reference

	// Fraction is the share of the output's total, valid only when Checked.
	// Remainder references receive an equal split of whatever their written
	// siblings leave over.
	Fraction number.Number

	// Quantity is the absolute allocated amount; nil when Total is unknown.
	Quantity *recipe.Quantity

	// Checked is false when the reference amount could not be reconciled
	// with the total: the total is unknown, or the units are unknown to the
	// registry. Unchecked amounts are a lint concern, not an error.
	Checked bool

	// Remainder marks "remaining"-style references.
	Remainder bool
}

type fractionStatus int

const (
	fractionOK fractionStatus = iota
	fractionUnchecked
	fractionIncompatible
)

// allocate resolves every reference amount against its output's total.
// Written amounts are allocated in source order and must never exceed the
// total; remainder references then split whatever is left equally.
func (c *compiler) allocate() ([]*Output, error) {
	one := number.FromInt(1)

	outputs := make([]*Output, 0, len(c.outputs))
	for _, out := range c.outputs {
		o := &Output{
			Name:        out.name,
			SubRecipe:   out.subRecipe,
			OutputIndex: out.outputIndex,
			Total:       inferQuantity(out.subRecipe),
		}

		var consumed number.Number
		var remainders []int
		for _, ref := range out.refs {
			alloc := Allocation{Ref: ref.ref}

			switch amt := ref.ref.Amount.(type) {
			case *recipe.Proportion:
				if amt.Value == nil {
					alloc.Remainder = true
					remainders = append(remainders, len(o.Allocations))
					o.Allocations = append(o.Allocations, alloc)
					continue
				}
				alloc.Fraction = *amt.Value
				alloc.Checked = true
			case *recipe.Quantity:
				fraction, status := fractionOf(amt, o.Total, c.reg)
				switch status {
				case fractionIncompatible:
					return nil, errorAt(IncompatibleUnit, c.sources[ref.block], ref.offset,
						"The unit %s cannot be converted to %s, the unit %s is measured in.",
						amt.Unit, o.Total.Unit, out.name)
				case fractionUnchecked:
					o.Allocations = append(o.Allocations, alloc)
					continue
				}
				alloc.Fraction = fraction
				alloc.Checked = true
			}

			consumed = consumed.Add(alloc.Fraction)
			if consumed.Cmp(one) > 0 {
				return nil, errorAt(OverConsumption, c.sources[ref.block], ref.offset,
					"More of %s is used than the total amount available.", out.name)
			}
			o.Allocations = append(o.Allocations, alloc)
		}

		if len(remainders) > 0 {
			share := one.Sub(consumed).Div(number.FromInt(int64(len(remainders))))
			for _, i := range remainders {
				o.Allocations[i].Fraction = share
				o.Allocations[i].Checked = true
			}
		}

		if o.Total != nil {
			for i := range o.Allocations {
				if o.Allocations[i].Checked {
					o.Allocations[i].Quantity = o.Total.Scale(o.Allocations[i].Fraction)
				}
			}
		}

		outputs = append(outputs, o)
	}
	return outputs, nil
}

// fractionOf converts an absolute reference amount into a fraction of the
// output's total.
func fractionOf(q *recipe.Quantity, total *recipe.Quantity, reg *units.Registry) (number.Number, fractionStatus) {
	var zero number.Number
	if total == nil || total.Value.Sign() == 0 {
		return zero, fractionUnchecked
	}
	if (q.Unit == "") != (total.Unit == "") {
		return zero, fractionUnchecked
	}
	if q.Unit == "" {
		return q.Value.Div(total.Value), fractionOK
	}
	if reg != nil {
		factor, err := reg.Convert(q.Unit, total.Unit)
		if err == nil {
			return q.Value.Mul(factor).Div(total.Value), fractionOK
		}
		var incompatible units.IncompatibleUnitError
		if errors.As(err, &incompatible) {
			return zero, fractionIncompatible
		}
	}
	if strings.EqualFold(q.Unit, total.Unit) {
		return q.Value.Div(total.Value), fractionOK
	}
	return zero, fractionUnchecked
}
