package recipe

// Rewriter replaces one node across several trees of a recipe forest.
//
// Unlike Substitute, which rebuilds each tree independently, a Rewriter
// memoizes every node it rebuilds, so a sub recipe appearing both as a tree
// root and as the target of references in other trees is rebuilt exactly
// once and every use ends up pointing at the same copy. Untouched nodes come
// back as themselves.
type Rewriter struct {
	old, new Node
	memo     map[Node]Node
}

// NewRewriter returns a Rewriter replacing old, matched by identity, with
// new.
func NewRewriter(old, new Node) *Rewriter {
	return &Rewriter{old: old, new: new, memo: make(map[Node]Node)}
}

// Rewrite returns the tree with the replacement applied.
func (r *Rewriter) Rewrite(n Node) Node {
	if n == r.old {
		return r.new
	}
	if out, ok := r.memo[n]; ok {
		return out
	}

	out := n
	switch node := n.(type) {
	case *Step:
		changed := false
		inputs := make([]Node, len(node.Inputs))
		for i, input := range node.Inputs {
			inputs[i] = r.Rewrite(input)
			if inputs[i] != input {
				changed = true
			}
		}
		if changed {
			out = &Step{Description: node.Description, Inputs: inputs}
		}
	case *Reference:
		if sub := r.Rewrite(node.SubRecipe); sub != Node(node.SubRecipe) {
			out = &Reference{
				SubRecipe:   sub.(*SubRecipe),
				OutputIndex: node.OutputIndex,
				Amount:      node.Amount,
			}
		}
	case *SubRecipe:
		if tree := r.Rewrite(node.Tree); tree != node.Tree {
			out = &SubRecipe{
				Tree:            tree,
				OutputNames:     node.OutputNames,
				ShowOutputNames: node.ShowOutputNames,
			}
		}
	}

	r.memo[n] = out
	return out
}
