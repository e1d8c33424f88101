// Package compiler turns parsed recipe blocks into validated recipe data
// structures.
//
// Compilation resolves each leaf name as an ingredient or a reference to an
// earlier output, allocates reference amounts against output totals, inlines
// singly-used sub recipes and re-verifies that the resulting graph is
// acyclic. A document may be split over several blocks; later blocks can
// reference outputs of earlier ones and each block compiles to its own
// Recipe chained via Follows.
package compiler

import (
	"context"
	"fmt"

	"github.com/vk/recipegrid/internal/ast"
	"github.com/vk/recipegrid/internal/ctxlog"
	"github.com/vk/recipegrid/internal/parser"
	"github.com/vk/recipegrid/internal/recipe"
	"github.com/vk/recipegrid/internal/svs"
	"github.com/vk/recipegrid/internal/units"
)

// Result is the outcome of compiling the blocks of one document.
type Result struct {
	// Recipes holds one compiled recipe per source block, chained via
	// Follows in block order.
	Recipes []*recipe.Recipe

	// Outputs is the consumption ledger: one entry per named output in
	// definition order, with the amounts allocated to its references. The
	// ledger is a snapshot taken before inlining; entries whose sub recipe
	// was inlined away are flagged.
	Outputs []*Output
}

// Compile compiles recipe source blocks into validated recipes. Blocks are
// compiled together: names defined in earlier blocks are visible to later
// ones. The unit registry is used to resolve implicit quantity units while
// parsing and to reconcile reference amounts with output totals; it may be
// nil to disable both.
//
// Errors are *parser.Error for syntax errors and *Error for semantic ones.
func Compile(ctx context.Context, sources []string, reg *units.Registry) (*Result, error) {
	log := ctxlog.FromContext(ctx)

	c := &compiler{
		sources: sources,
		byName:  make(map[string]*namedOutput),
		reg:     reg,
	}

	for _, source := range sources {
		parsed, err := parser.Parse(source, reg)
		if err != nil {
			return nil, err
		}
		if len(parsed.Stmts) == 0 {
			return nil, errorAt(EmptyRecipe, source, 0, "The recipe block is empty.")
		}
		c.parsed = append(c.parsed, parsed)
	}

	c.scanDefinitions()

	blockTrees := make([][]recipe.Node, len(c.parsed))
	for i, parsed := range c.parsed {
		c.current.block = i
		trees := make([]recipe.Node, 0, len(parsed.Stmts))
		for j, stmt := range parsed.Stmts {
			c.current.stmt = j
			tree, err := c.compileStmt(stmt)
			if err != nil {
				return nil, err
			}
			trees = append(trees, tree)
		}
		blockTrees[i] = trees
		log.Debug("compiled recipe block", "block", i, "statements", len(trees))
	}

	outputs, err := c.allocate()
	if err != nil {
		return nil, err
	}
	if err := c.detectCycles(); err != nil {
		return nil, err
	}

	blockTrees = c.inline(blockTrees, outputs, log)

	result := &Result{Outputs: outputs}
	var prev *recipe.Recipe
	for i, trees := range blockTrees {
		rec, err := recipe.NewRecipe(trees, prev)
		if err != nil {
			return nil, fmt.Errorf("building recipe block %d: %w", i, err)
		}
		result.Recipes = append(result.Recipes, rec)
		prev = rec
	}
	return result, nil
}

// position orders statements across blocks.
type position struct {
	block, stmt int
}

func (p position) after(o position) bool {
	return p.block > o.block || (p.block == o.block && p.stmt > o.stmt)
}

// namedOutput tracks one named sub recipe output while compiling.
type namedOutput struct {
	name        svs.String
	defBlock    int
	defOffset   int
	subRecipe   *recipe.SubRecipe
	outputIndex int
	refs        []*namedRef

	// keepWrapper is set for the := form: the sub recipe stays visible even
	// when inlined at its single use site.
	keepWrapper bool
}

// namedRef is one compiled reference to a named output and where it was
// written.
type namedRef struct {
	ref    *recipe.Reference
	block  int
	offset int
}

type compiler struct {
	sources []string
	parsed  []*ast.Recipe
	reg     *units.Registry

	outputs []*namedOutput
	byName  map[string]*namedOutput

	// defined records where each explicitly named output is first defined,
	// so uses before that point can be rejected as forward references.
	defined map[string]position

	current position
}

func (c *compiler) source() string { return c.sources[c.current.block] }

// scanDefinitions records the defining statement of every explicit output
// name in the document.
func (c *compiler) scanDefinitions() {
	c.defined = make(map[string]position)
	for b, parsed := range c.parsed {
		for s, stmt := range parsed.Stmts {
			for _, out := range stmt.Outputs {
				key := normalise(compileString(out))
				if _, ok := c.defined[key]; !ok {
					c.defined[key] = position{block: b, stmt: s}
				}
			}
		}
	}
}

func (c *compiler) compileStmt(stmt *ast.Stmt) (recipe.Node, error) {
	tree, err := c.compileExpr(stmt.Expr)
	if err != nil {
		return nil, err
	}

	var names []svs.String
	inferred := false
	if len(stmt.Outputs) > 0 {
		names = make([]svs.String, len(stmt.Outputs))
		for i, out := range stmt.Outputs {
			names[i] = compileString(out)
		}
	} else if name, ok := inferOutputName(tree); ok {
		names = []svs.String{name}
		inferred = true
	}
	if len(names) == 0 {
		return tree, nil
	}

	sub := &recipe.SubRecipe{
		Tree:            tree,
		OutputNames:     names,
		ShowOutputNames: !inferred,
	}

	for i, name := range names {
		key := normalise(name)
		if _, ok := c.byName[key]; ok {
			if inferred {
				// A leaf matching an existing output compiles to a reference,
				// so an inferred name can never collide. Guarded regardless.
				return tree, nil
			}
			return nil, errorAt(DuplicateOutputName, c.source(), stmt.Outputs[i].Offset(),
				"The name %s has already been defined as a sub recipe.", name)
		}
		out := &namedOutput{
			name:        name,
			defBlock:    c.current.block,
			defOffset:   stmt.Offset(),
			subRecipe:   sub,
			outputIndex: i,
			keepWrapper: stmt.Labelled,
		}
		c.byName[key] = out
		c.outputs = append(c.outputs, out)
	}
	return sub, nil
}

func (c *compiler) compileExpr(expr ast.Expr) (recipe.Node, error) {
	switch e := expr.(type) {
	case *ast.Step:
		inputs := make([]recipe.Node, len(e.Inputs))
		for i, input := range e.Inputs {
			compiled, err := c.compileExpr(input)
			if err != nil {
				return nil, err
			}
			inputs[i] = compiled
		}
		return &recipe.Step{Description: compileString(e.Name), Inputs: inputs}, nil
	case *ast.Reference:
		return c.compileLeaf(e)
	}
	return nil, fmt.Errorf("unhandled expression node %T", expr)
}

// compileLeaf resolves a leaf as a reference to a visible output or as an
// ingredient. Resolution is strictly backward: a name only refers to an
// output once its defining statement has been compiled.
func (c *compiler) compileLeaf(leaf *ast.Reference) (recipe.Node, error) {
	name := compileString(leaf.Name)
	key := normalise(name)

	if out, ok := c.byName[key]; ok {
		ref := &recipe.Reference{
			SubRecipe:   out.subRecipe,
			OutputIndex: out.outputIndex,
			Amount:      compileAmount(leaf.Amount),
		}
		out.refs = append(out.refs, &namedRef{
			ref:    ref,
			block:  c.current.block,
			offset: leaf.Offset(),
		})
		return ref, nil
	}

	if pos, ok := c.defined[key]; ok && pos.after(c.current) {
		return nil, errorAt(ForwardReference, c.source(), leaf.Offset(),
			"The name %s is not defined until later in the recipe.", name)
	}

	if _, isProportion := leaf.Amount.(*ast.Proportion); isProportion {
		return nil, errorAt(UndefinedReference, c.source(), leaf.Offset(),
			"A proportion was given (implying a sub recipe is being referenced) but no sub recipe named %s exists.", name)
	}

	ingredient := &recipe.Ingredient{Description: name}
	if q, ok := leaf.Amount.(*ast.Quantity); ok {
		ingredient.Quantity = compileQuantity(q)
	}
	return ingredient, nil
}

func compileString(s *ast.String) svs.String {
	parts := make([]svs.Part, 0, len(s.Parts))
	for _, p := range s.Parts {
		if p.IsValue {
			parts = append(parts, svs.Value(p.Value))
		} else {
			parts = append(parts, svs.Text(p.Text))
		}
	}
	return svs.New(parts...)
}

func compileQuantity(q *ast.Quantity) *recipe.Quantity {
	unit := ""
	if q.Unit != nil {
		// The grammar keeps scalable values out of unit names, so rendering
		// the unit to a plain string is lossless.
		unit = compileString(q.Unit).String()
	}
	return &recipe.Quantity{
		Value:            q.Value,
		Unit:             unit,
		ValueUnitSpacing: q.ValueUnitSpacing,
		Preposition:      q.Preposition,
	}
}

func compileAmount(a ast.Amount) recipe.Amount {
	switch amt := a.(type) {
	case *ast.Quantity:
		return compileQuantity(amt)
	case *ast.Proportion:
		p := &recipe.Proportion{
			Percentage:       amt.Percentage,
			RemainderWording: amt.RemainderWording,
			Preposition:      amt.Preposition,
		}
		if amt.Value != nil {
			value := *amt.Value
			p.Value = &value
		}
		return p
	}
	return recipe.All()
}

// normalise maps an output name to its lookup key: case and surrounding
// whitespace are insignificant.
func normalise(name svs.String) string {
	return name.TrimSpace().Lower().Key()
}

// inferOutputName names a tree holding a single ingredient, possibly
// processed by steps but never combined with anything else, after that
// ingredient.
func inferOutputName(n recipe.Node) (svs.String, bool) {
	switch node := n.(type) {
	case *recipe.Ingredient:
		return node.Description, true
	case *recipe.Step:
		if len(node.Inputs) == 1 {
			return inferOutputName(node.Inputs[0])
		}
	}
	return svs.String{}, false
}

// inferQuantity returns the quantity of the single ingredient a tree boils
// down to, or nil when the tree combines several inputs.
func inferQuantity(n recipe.Node) *recipe.Quantity {
	switch node := n.(type) {
	case *recipe.Ingredient:
		return node.Quantity
	case *recipe.Step:
		if len(node.Inputs) == 1 {
			return inferQuantity(node.Inputs[0])
		}
	case *recipe.SubRecipe:
		if len(node.OutputNames) == 1 {
			return inferQuantity(node.Tree)
		}
	}
	return nil
}
