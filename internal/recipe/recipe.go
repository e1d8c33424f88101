// Package recipe defines the compiled recipe data model: trees of
// ingredients, steps and references grouped into named sub recipes.
//
// A recipe is a sequence of trees. When the root of a tree is a SubRecipe,
// later trees may refer to its outputs by holding a pointer to it, so a
// recipe as a whole forms a DAG in which all edges point backwards. Nodes
// are compared by identity; operations which rewrite trees (Substitute,
// Scale) leave the originals intact and share untouched branches.
package recipe

import (
	"fmt"

	"github.com/vk/recipegrid/internal/svs"
)

// Node is one node of a recipe tree. The set of implementations is closed:
// Ingredient, Step, Reference and SubRecipe.
type Node interface {
	// Children returns the direct children of the node in written order.
	Children() []Node

	// Substitute returns a copy of the tree with the node old, matched by
	// identity, replaced by new.
	Substitute(old, new Node) Node

	node()
}

// Ingredient is a leaf node naming an ingredient to be used.
type Ingredient struct {
	Description svs.String

	// Quantity is nil for quantity-less ingredients ("salt").
	Quantity *Quantity
}

func (i *Ingredient) Children() []Node { return nil }

func (i *Ingredient) Substitute(old, new Node) Node {
	if i == old {
		return new
	}
	return i
}

func (*Ingredient) node() {}

// Step is a step in a recipe ("mix") whose children are its inputs. Inputs
// may be other steps, ingredients or references to sub recipe outputs.
type Step struct {
	Description svs.String
	Inputs      []Node
}

func (s *Step) Children() []Node { return s.Inputs }

func (s *Step) Substitute(old, new Node) Node {
	if s == old {
		return new
	}
	changed := false
	inputs := make([]Node, len(s.Inputs))
	for i, input := range s.Inputs {
		inputs[i] = input.Substitute(old, new)
		if inputs[i] != input {
			changed = true
		}
	}
	if !changed {
		return s
	}
	return &Step{Description: s.Description, Inputs: inputs}
}

func (*Step) node() {}

// Reference is a use of a named output of a SubRecipe rooted at an earlier
// tree of the recipe.
type Reference struct {
	SubRecipe   *SubRecipe
	OutputIndex int

	// Amount of the referenced output to use.
	Amount Amount
}

func (r *Reference) Children() []Node { return []Node{r.SubRecipe} }

func (r *Reference) Substitute(old, new Node) Node {
	if r == old {
		return new
	}
	sub := r.SubRecipe.Substitute(old, new).(*SubRecipe)
	if sub == r.SubRecipe {
		return r
	}
	return &Reference{SubRecipe: sub, OutputIndex: r.OutputIndex, Amount: r.Amount}
}

func (*Reference) node() {}

// SubRecipe wraps a tree as a logical division of a recipe, e.g. the filling
// and the pastry of a pie, and names its outputs.
//
// A sub recipe with a single output may appear anywhere in a tree. One with
// several outputs (boiled vegetables and the water they were boiled in) may
// only be the root of a tree, where each output can be referenced
// separately.
type SubRecipe struct {
	Tree        Node
	OutputNames []svs.String

	// ShowOutputNames is false when labelling the output would only repeat
	// what the tree already says, as for a sub recipe holding the single
	// ingredient it is named after.
	ShowOutputNames bool
}

func (s *SubRecipe) Children() []Node { return []Node{s.Tree} }

func (s *SubRecipe) Substitute(old, new Node) Node {
	if s == old {
		return new
	}
	tree := s.Tree.Substitute(old, new)
	if tree == s.Tree {
		return s
	}
	return &SubRecipe{
		Tree:            tree,
		OutputNames:     s.OutputNames,
		ShowOutputNames: s.ShowOutputNames,
	}
}

func (*SubRecipe) node() {}

// Recipe is a sequence of recipe trees. Follows chains the recipes compiled
// from consecutive source blocks of one document so that this recipe may
// reference sub recipes defined in earlier blocks.
type Recipe struct {
	Trees   []Node
	Follows *Recipe
}

// ZeroOutputError reports a sub recipe with no named outputs.
type ZeroOutputError struct{}

func (ZeroOutputError) Error() string {
	return "sub recipe has no named outputs"
}

// MultiOutputChildError reports a sub recipe with several named outputs used
// somewhere other than the root of a tree.
type MultiOutputChildError struct {
	Outputs []svs.String
}

func (e MultiOutputChildError) Error() string {
	return fmt.Sprintf(
		"sub recipe %q has %d outputs and can only be the root of a tree",
		e.Outputs[0], len(e.Outputs),
	)
}

// OutputIndexError reports a reference to an output index a sub recipe does
// not have.
type OutputIndexError struct {
	Index   int
	Outputs []svs.String
}

func (e OutputIndexError) Error() string {
	return fmt.Sprintf(
		"reference to output %d of a sub recipe with %d outputs",
		e.Index, len(e.Outputs),
	)
}

// InvalidReferenceError reports a reference to a sub recipe which is not the
// root of an earlier tree.
type InvalidReferenceError struct {
	Name svs.String
}

func (e InvalidReferenceError) Error() string {
	return fmt.Sprintf(
		"%q does not name the output of an earlier sub recipe",
		e.Name,
	)
}

// NewRecipe builds a recipe from its trees, checking every structural
// invariant: sub recipes name at least one output, multi-output sub recipes
// appear only as tree roots, and references stay in bounds and only target
// sub recipes rooting earlier trees of this recipe or of one it follows.
func NewRecipe(trees []Node, follows *Recipe) (*Recipe, error) {
	roots := make(map[*SubRecipe]bool)
	for prev := follows; prev != nil; prev = prev.Follows {
		for _, tree := range prev.Trees {
			if sr, ok := tree.(*SubRecipe); ok {
				roots[sr] = true
			}
		}
	}

	for _, tree := range trees {
		if err := validate(tree, true, roots); err != nil {
			return nil, err
		}
		if sr, ok := tree.(*SubRecipe); ok {
			roots[sr] = true
		}
	}

	return &Recipe{Trees: trees, Follows: follows}, nil
}

func validate(n Node, root bool, roots map[*SubRecipe]bool) error {
	switch node := n.(type) {
	case *SubRecipe:
		if len(node.OutputNames) == 0 {
			return ZeroOutputError{}
		}
		if !root && len(node.OutputNames) > 1 {
			return MultiOutputChildError{Outputs: node.OutputNames}
		}
		return validate(node.Tree, false, roots)
	case *Reference:
		if node.OutputIndex < 0 || node.OutputIndex >= len(node.SubRecipe.OutputNames) {
			return OutputIndexError{Index: node.OutputIndex, Outputs: node.SubRecipe.OutputNames}
		}
		if !roots[node.SubRecipe] {
			return InvalidReferenceError{Name: node.SubRecipe.OutputNames[node.OutputIndex]}
		}
	case *Step:
		for _, input := range node.Inputs {
			if err := validate(input, false, roots); err != nil {
				return err
			}
		}
	}
	return nil
}
