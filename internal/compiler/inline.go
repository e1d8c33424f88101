package compiler

import (
	"log/slog"

	"github.com/vk/recipegrid/internal/number"
	"github.com/vk/recipegrid/internal/recipe"
)

var oneWhole = number.FromInt(1)

// canInline reports whether a named output's sub recipe can be substituted
// at its reference site: it must have a single output, a single reference in
// the block it was defined in, and that reference must take the whole
// amount.
func (c *compiler) canInline(out *namedOutput) bool {
	if len(out.subRecipe.OutputNames) != 1 || len(out.refs) != 1 {
		return false
	}
	ref := out.refs[0]
	if ref.block != out.defBlock {
		return false
	}

	switch amt := ref.ref.Amount.(type) {
	case *recipe.Proportion:
		// All of it, or the remainder of an otherwise unreferenced output.
		return amt.Value == nil || amt.Value.Equal(oneWhole)
	case *recipe.Quantity:
		total := inferQuantity(out.subRecipe)
		return total != nil && amt.EqualValue(total, c.reg)
	}
	return false
}

// inline substitutes every inlinable sub recipe at its single reference
// site, removing the definition from its block. Plain (= or implicit)
// definitions are unwrapped so only their tree is spliced in; := definitions
// keep their sub recipe wrapper and stay visibly named.
func (c *compiler) inline(blockTrees [][]recipe.Node, outputs []*Output, log *slog.Logger) [][]recipe.Node {
	for i, out := range c.outputs {
		if !c.canInline(out) {
			continue
		}

		inlined := recipe.Node(out.subRecipe)
		if !out.keepWrapper {
			inlined = out.subRecipe.Tree
		}
		ref := out.refs[0].ref

		trees := blockTrees[out.defBlock]
		for j, tree := range trees {
			if tree == recipe.Node(out.subRecipe) {
				blockTrees[out.defBlock] = append(trees[:j:j], trees[j+1:]...)
				break
			}
		}

		// One rewriter per substitution keeps sub recipes rebuilt along the
		// way shared between the trees and the ledger.
		rw := recipe.NewRewriter(ref, inlined)
		for b := range blockTrees {
			for t := range blockTrees[b] {
				blockTrees[b][t] = rw.Rewrite(blockTrees[b][t])
			}
		}
		for _, other := range c.outputs {
			other.subRecipe = rw.Rewrite(other.subRecipe).(*recipe.SubRecipe)
			for _, r := range other.refs {
				if recipe.Node(r.ref) != recipe.Node(ref) {
					r.ref = rw.Rewrite(r.ref).(*recipe.Reference)
				}
			}
		}

		outputs[i].Inlined = true
		log.Debug("inlined sub recipe", "name", out.name.String())
	}
	return blockTrees
}
