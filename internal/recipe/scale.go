package recipe

import (
	"github.com/vk/recipegrid/internal/number"
	"github.com/vk/recipegrid/internal/svs"
)

// Scale returns a copy of the tree with every quantity and every embedded
// scalable value multiplied by m. The original tree is left intact.
func Scale(n Node, m number.Number) Node {
	return scaleNode(n, m, make(map[*SubRecipe]*SubRecipe))
}

// Scale returns a copy of the recipe, and of every recipe it follows, with
// all quantities multiplied by m. A sub recipe referenced from several
// places is scaled once, so the copies stay shared and references in later
// trees point at the scaled roots.
func (r *Recipe) Scale(m number.Number) *Recipe {
	return r.scale(m, make(map[*SubRecipe]*SubRecipe))
}

func (r *Recipe) scale(m number.Number, scaled map[*SubRecipe]*SubRecipe) *Recipe {
	var follows *Recipe
	if r.Follows != nil {
		follows = r.Follows.scale(m, scaled)
	}
	trees := make([]Node, len(r.Trees))
	for i, tree := range r.Trees {
		trees[i] = scaleNode(tree, m, scaled)
	}
	return &Recipe{Trees: trees, Follows: follows}
}

func scaleNode(n Node, m number.Number, scaled map[*SubRecipe]*SubRecipe) Node {
	switch node := n.(type) {
	case *Ingredient:
		out := &Ingredient{Description: node.Description.Scale(m)}
		if node.Quantity != nil {
			out.Quantity = node.Quantity.Scale(m)
		}
		return out
	case *Step:
		inputs := make([]Node, len(node.Inputs))
		for i, input := range node.Inputs {
			inputs[i] = scaleNode(input, m, scaled)
		}
		return &Step{Description: node.Description.Scale(m), Inputs: inputs}
	case *Reference:
		return &Reference{
			SubRecipe:   scaleSubRecipe(node.SubRecipe, m, scaled),
			OutputIndex: node.OutputIndex,
			Amount:      ScaleAmount(node.Amount, m),
		}
	case *SubRecipe:
		return scaleSubRecipe(node, m, scaled)
	}
	return n
}

func scaleSubRecipe(sr *SubRecipe, m number.Number, scaled map[*SubRecipe]*SubRecipe) *SubRecipe {
	if out, ok := scaled[sr]; ok {
		return out
	}
	names := make([]svs.String, len(sr.OutputNames))
	for i, name := range sr.OutputNames {
		names[i] = name.Scale(m)
	}
	out := &SubRecipe{
		Tree:            scaleNode(sr.Tree, m, scaled),
		OutputNames:     names,
		ShowOutputNames: sr.ShowOutputNames,
	}
	scaled[sr] = out
	return out
}
