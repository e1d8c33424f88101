package table

import (
	"fmt"

	"github.com/vk/recipegrid/internal/recipe"
)

// EmptyTreeError reports a recipe tree with no leaves to lay out.
type EmptyTreeError struct{}

func (EmptyTreeError) Error() string { return "the recipe tree has no ingredients to lay out" }

// FromRecipeTree lays a recipe tree out as a table.
//
// Leaves occupy column zero, one row each in source order. A step sits in
// the column right of its deepest input and spans its inputs' rows. A single
// output sub recipe with a visible name gains a full width header row; a
// multiple output sub recipe gains a cell on the right listing its outputs,
// open towards the page so only the recipe itself is outlined. The root of
// the tree is outlined with the sub recipe border.
func FromRecipeTree(n recipe.Node) (*Table, error) {
	return layout(n, true)
}

func layout(n recipe.Node, root bool) (*Table, error) {
	switch node := n.(type) {
	case *recipe.Ingredient, *recipe.Reference:
		t, err := FromMap(map[Pos]*Cell{{0, 0}: NewCell(node)})
		if err != nil {
			return nil, err
		}
		return outlineRoot(t, root)

	case *recipe.Step:
		if len(node.Inputs) == 0 {
			return nil, EmptyTreeError{}
		}

		inputs := make([]*Table, len(node.Inputs))
		columns := 0
		for i, in := range node.Inputs {
			t, err := layout(in, false)
			if err != nil {
				return nil, err
			}
			inputs[i] = t
			columns = max(columns, t.Columns())
		}
		for i, t := range inputs {
			padded, err := RightPad(t, columns)
			if err != nil {
				return nil, err
			}
			inputs[i] = padded
		}
		combined, err := Combine(inputs, Vertical)
		if err != nil {
			return nil, err
		}

		step := NewCell(node)
		step.Rows = combined.Rows()
		stepTable, err := FromMap(map[Pos]*Cell{{0, 0}: step})
		if err != nil {
			return nil, err
		}
		t, err := Combine([]*Table{combined, stepTable}, Horizontal)
		if err != nil {
			return nil, err
		}
		return outlineRoot(t, root)

	case *recipe.SubRecipe:
		inner, err := layout(node.Tree, false)
		if err != nil {
			return nil, err
		}

		if len(node.OutputNames) == 1 {
			if !node.ShowOutputNames {
				return SetBorderAround(inner, BorderSubRecipe)
			}
			header := NewCell(node)
			header.Columns = inner.Columns()
			headerTable, err := FromMap(map[Pos]*Cell{{0, 0}: header})
			if err != nil {
				return nil, err
			}
			t, err := Combine([]*Table{headerTable, inner}, Vertical)
			if err != nil {
				return nil, err
			}
			return SetBorderAround(t, BorderSubRecipe)
		}

		outlined, err := SetBorderAround(inner, BorderSubRecipe)
		if err != nil {
			return nil, err
		}
		outputs := NewCell(node)
		outputs.Rows = inner.Rows()
		outputs.BorderTop = BorderNone
		outputs.BorderRight = BorderNone
		outputs.BorderBottom = BorderNone
		outputsTable, err := FromMap(map[Pos]*Cell{{0, 0}: outputs})
		if err != nil {
			return nil, err
		}
		return Combine([]*Table{outlined, outputsTable}, Horizontal)
	}
	return nil, fmt.Errorf("unhandled recipe node %T", n)
}

func outlineRoot(t *Table, root bool) (*Table, error) {
	if !root {
		return t, nil
	}
	return SetBorderAround(t, BorderSubRecipe)
}
