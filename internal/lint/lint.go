// Package lint implements advisory checks over compiled recipes.
//
// Lint findings are warnings, not errors: a recipe that lints is still
// renderable. The checks catch the sort of slips the compiler deliberately
// tolerates, such as an ingredient defined but never used (often a typo in a
// later reference) or a sub recipe whose references do not add up to the
// whole amount.
package lint

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/vk/recipegrid/internal/number"
	"github.com/vk/recipegrid/internal/recipe"
	"github.com/vk/recipegrid/internal/units"
)

// Kind classifies a lint finding.
type Kind int

const (
	UnusedIngredient Kind = iota + 1
	QuantityUnknown
	IncompatibleUnits
	NonPositiveRemainder
	NotUsedUp
	UsedTooMuch
)

func (k Kind) String() string {
	switch k {
	case UnusedIngredient:
		return "unused ingredient"
	case QuantityUnknown:
		return "sub recipe quantity unknown"
	case IncompatibleUnits:
		return "sub recipe reference incompatible units"
	case NonPositiveRemainder:
		return "sub recipe reference non-positive remainder"
	case NotUsedUp:
		return "sub recipe not used up"
	case UsedTooMuch:
		return "sub recipe used too much"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Lint is one finding, with a human readable description.
type Lint struct {
	Kind        Kind
	Description string
}

// Check runs every lint check over a series of recipe blocks. The registry
// reconciles reference quantities with sub recipe totals; it may be nil, in
// which case any unit-bearing reference amount is reported as incompatible.
func Check(blocks []*recipe.Recipe, reg *units.Registry) []Lint {
	out := checkUnusedIngredients(blocks)
	out = append(out, checkReferencesSumToWhole(blocks, reg)...)
	return out
}

// checkUnusedIngredients reports ingredients that were defined but never
// used. A typo in a later reference ("egg" vs "eggs") silently turns the use
// into a new ingredient, leaving the original dangling. Explicitly named
// outputs are exempt: leaving those unused is assumed intentional.
func checkUnusedIngredients(blocks []*recipe.Recipe) []Lint {
	implicit := make(map[*recipe.SubRecipe]bool)
	referenced := make(map[*recipe.SubRecipe]bool)

	var visit func(n recipe.Node)
	visit = func(n recipe.Node) {
		switch node := n.(type) {
		case *recipe.Reference:
			referenced[node.SubRecipe] = true
			return
		case *recipe.SubRecipe:
			if len(node.OutputNames) == 1 && !node.ShowOutputNames {
				implicit[node] = true
			}
		}
		for _, child := range n.Children() {
			visit(child)
		}
	}
	for _, block := range blocks {
		for _, tree := range block.Trees {
			visit(tree)
		}
	}

	var unused []*recipe.SubRecipe
	for sr := range implicit {
		if !referenced[sr] {
			unused = append(unused, sr)
		}
	}
	sort.Slice(unused, func(i, j int) bool {
		return unused[i].OutputNames[0].String() < unused[j].OutputNames[0].String()
	})

	out := make([]Lint, 0, len(unused))
	for _, sr := range unused {
		out = append(out, Lint{
			Kind:        UnusedIngredient,
			Description: fmt.Sprintf("Ingredient '%s' was defined but never used.", sr.OutputNames[0]),
		})
	}
	return out
}

type outputKey struct {
	sub   *recipe.SubRecipe
	index int
}

// checkReferencesSumToWhole verifies that a sub recipe referenced in several
// places is used completely, within a small tolerance for units that only
// convert approximately. Outputs with no references at all are left alone:
// ignoring a component entirely is probably intentional.
func checkReferencesSumToWhole(blocks []*recipe.Recipe, reg *units.Registry) []Lint {
	refs := make(map[outputKey][]*recipe.Reference)
	var order []outputKey

	var visit func(n recipe.Node)
	visit = func(n recipe.Node) {
		if ref, ok := n.(*recipe.Reference); ok {
			key := outputKey{ref.SubRecipe, ref.OutputIndex}
			if _, seen := refs[key]; !seen {
				order = append(order, key)
			}
			refs[key] = append(refs[key], ref)
			return
		}
		for _, child := range n.Children() {
			visit(child)
		}
	}
	for _, block := range blocks {
		for _, tree := range block.Trees {
			visit(tree)
		}
	}

	one := number.FromInt(1)
	var out []Lint
	for _, key := range order {
		name := key.sub.OutputNames[key.index]
		total := totalQuantity(key.sub)

		problem := false
		var used number.Number
		for _, ref := range refs[key] {
			switch amt := ref.Amount.(type) {
			case *recipe.Quantity:
				if total == nil {
					problem = true
					out = append(out, Lint{
						Kind: QuantityUnknown,
						Description: fmt.Sprintf(
							"A quantity (%s %s) of %s was referenced but the total amount is not known so cannot be checked.",
							amt.Value, amt.Unit, name),
					})
					continue
				}
				fraction, ok := fractionOfTotal(amt, total, reg)
				if !ok {
					problem = true
					out = append(out, Lint{
						Kind: IncompatibleUnits,
						Description: fmt.Sprintf(
							"A reference to sub recipe %s is given using incompatible units: %s",
							name, amt.Unit),
					})
					continue
				}
				used = used.Add(fraction)
			case *recipe.Proportion:
				if amt.Value == nil {
					if used.Cmp(one) >= 0 {
						problem = true
						out = append(out, Lint{
							Kind: NonPositiveRemainder,
							Description: fmt.Sprintf(
								"A reference to the remainder of recipe %s was made while none remains unused.",
								name),
						})
					}
					if used.Cmp(one) < 0 {
						used = one
					}
				} else {
					used = used.Add(*amt.Value)
				}
			}
		}

		if problem {
			continue
		}
		switch {
		case closeToWhole(used):
			// Used up (almost) exactly.
		case used.Cmp(one) < 0:
			out = append(out, Lint{
				Kind: NotUsedUp,
				Description: fmt.Sprintf(
					"Not all of %s was used (about %d%% remains unused).",
					name, 100-percent(used)),
			})
		default:
			out = append(out, Lint{
				Kind: UsedTooMuch,
				Description: fmt.Sprintf(
					"More of %s was used than is available (about %d%% of the total amount used).",
					name, percent(used)),
			})
		}
	}
	return out
}

// totalQuantity infers an output's total amount: only a single output sub
// recipe boiling down to one quantified ingredient has a knowable total.
func totalQuantity(sr *recipe.SubRecipe) *recipe.Quantity {
	if len(sr.OutputNames) != 1 {
		return nil
	}
	node := sr.Tree
	for {
		step, ok := node.(*recipe.Step)
		if !ok || len(step.Inputs) != 1 {
			break
		}
		node = step.Inputs[0]
	}
	if ingredient, ok := node.(*recipe.Ingredient); ok {
		return ingredient.Quantity
	}
	return nil
}

func fractionOfTotal(q, total *recipe.Quantity, reg *units.Registry) (number.Number, bool) {
	factor := number.FromInt(1)
	switch {
	case q.Unit != "" && total.Unit != "":
		if reg == nil {
			return number.Number{}, false
		}
		f, err := reg.Convert(q.Unit, total.Unit)
		if err != nil {
			return number.Number{}, false
		}
		factor = f
	case q.Unit != "" || total.Unit != "":
		return number.Number{}, false
	}
	return q.Value.Mul(factor).Div(total.Value), true
}

// wholeTolerance is the relative tolerance applied when deciding whether the
// references to an output add up to the whole amount. Approximate unit
// conversions (e.g. ounces of a metric total) make exact equality too strict.
var wholeTolerance = number.FromFraction(2, 100)

func closeToWhole(used number.Number) bool {
	one := number.FromInt(1)
	diff := used.Sub(one)
	if diff.Sign() < 0 {
		diff = one.Sub(used)
	}
	limit := wholeTolerance
	if used.Cmp(one) > 0 {
		limit = wholeTolerance.Mul(used)
	}
	return diff.Cmp(limit) <= 0
}

// percent truncates a fraction of the whole to an integer percentage.
func percent(used number.Number) int {
	r := used.Mul(number.FromInt(100)).Rat()
	return int(new(big.Int).Quo(r.Num(), r.Denom()).Int64())
}
