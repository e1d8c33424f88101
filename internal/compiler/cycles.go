package compiler

import (
	"github.com/vk/recipegrid/internal/recipe"
	"github.com/vk/recipegrid/internal/svs"
)

// detectCycles re-verifies that no sub recipe transitively depends on
// itself. Backward-only name resolution makes cycles unconstructible from
// source, but the graph is checked explicitly rather than trusting that
// property.
func (c *compiler) detectCycles() error {
	type definition struct {
		block  int
		offset int
		name   svs.String
	}
	defs := make(map[*recipe.SubRecipe]definition)
	var order []*recipe.SubRecipe
	for _, out := range c.outputs {
		if _, ok := defs[out.subRecipe]; !ok {
			defs[out.subRecipe] = definition{block: out.defBlock, offset: out.defOffset, name: out.name}
			order = append(order, out.subRecipe)
		}
	}

	visiting := make(map[*recipe.SubRecipe]bool)
	visited := make(map[*recipe.SubRecipe]bool)

	var visit func(sr *recipe.SubRecipe) error
	visit = func(sr *recipe.SubRecipe) error {
		visiting[sr] = true
		for _, dep := range referencedSubRecipes(sr.Tree) {
			if visiting[dep] {
				def := defs[sr]
				return errorAt(CyclicDependency, c.sources[def.block], def.offset,
					"The sub recipe %s depends on itself.", defs[dep].name)
			}
			if !visited[dep] {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		delete(visiting, sr)
		visited[sr] = true
		return nil
	}

	for _, sr := range order {
		if !visited[sr] {
			if err := visit(sr); err != nil {
				return err
			}
		}
	}
	return nil
}

// referencedSubRecipes lists the sub recipes a tree references, without
// descending into the referenced trees themselves.
func referencedSubRecipes(n recipe.Node) []*recipe.SubRecipe {
	var out []*recipe.SubRecipe
	var walk func(recipe.Node)
	walk = func(n recipe.Node) {
		if ref, ok := n.(*recipe.Reference); ok {
			out = append(out, ref.SubRecipe)
			return
		}
		for _, child := range n.Children() {
			walk(child)
		}
	}
	walk(n)
	return out
}
