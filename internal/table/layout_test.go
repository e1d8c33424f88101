package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/recipegrid/internal/recipe"
)

func layoutFor(t *testing.T, n recipe.Node) *Table {
	t.Helper()
	table, err := FromRecipeTree(n)
	require.NoError(t, err)
	return table
}

func outlined(t *testing.T, cells map[Pos]*Cell) *Table {
	t.Helper()
	table, err := SetBorderAround(mustFromMap(t, cells), BorderSubRecipe)
	require.NoError(t, err)
	return table
}

func TestLayoutIngredient(t *testing.T) {
	ingredient := ing("spam")
	got := layoutFor(t, ingredient)
	want := outlined(t, map[Pos]*Cell{{0, 0}: NewCell(ingredient)})
	assert.Empty(t, tableDiff(want, got))
}

func TestLayoutReference(t *testing.T) {
	sr := sub(ing("spam"), true, "out")
	ref := &recipe.Reference{SubRecipe: sr, Amount: recipe.All()}
	got := layoutFor(t, ref)
	want := outlined(t, map[Pos]*Cell{{0, 0}: NewCell(ref)})
	assert.Empty(t, tableDiff(want, got))
}

func TestLayoutStep(t *testing.T) {
	input0 := ing("input 0")
	input1 := ing("input 1")
	input2Ingredient := ing("input 2")
	input2 := step("chopped", input2Ingredient)
	combine := step("combine", input0, input1, input2)

	got := layoutFor(t, combine)
	want := outlined(t, map[Pos]*Cell{
		{0, 0}: spanned(input0, 1, 2),
		{1, 0}: spanned(input1, 1, 2),
		{2, 0}: NewCell(input2Ingredient),
		{2, 1}: NewCell(input2),
		{0, 2}: spanned(combine, 3, 1),
	})
	assert.Empty(t, tableDiff(want, got))
}

func TestLayoutSingleOutputShown(t *testing.T) {
	ingredient := ing("spam")
	fry := step("fry", ingredient)
	sr := sub(fry, true, "out")

	got := layoutFor(t, sr)
	want := outlined(t, map[Pos]*Cell{
		{0, 0}: spanned(sr, 1, 2),
		{1, 0}: NewCell(ingredient),
		{1, 1}: NewCell(fry),
	})
	assert.Empty(t, tableDiff(want, got))
}

func TestLayoutSingleOutputHidden(t *testing.T) {
	ingredient := ing("spam")
	fry := step("fry", ingredient)
	sr := sub(fry, false, "out")

	got := layoutFor(t, sr)
	want := outlined(t, map[Pos]*Cell{
		{0, 0}: NewCell(ingredient),
		{0, 1}: NewCell(fry),
	})
	assert.Empty(t, tableDiff(want, got))
}

func TestLayoutMultipleOutputs(t *testing.T) {
	ingredient0 := ing("spam")
	ingredient1 := ing("eggs")
	ingredient2 := ing("more spam")
	fry := step("fry", ingredient0, ingredient1, ingredient2)
	sr := sub(fry, true, "output 0", "output 1")

	outputs := spanned(sr, 3, 1)
	outputs.BorderTop = BorderNone
	outputs.BorderRight = BorderNone
	outputs.BorderBottom = BorderNone

	inner := outlined(t, map[Pos]*Cell{
		{0, 0}: NewCell(ingredient0),
		{1, 0}: NewCell(ingredient1),
		{2, 0}: NewCell(ingredient2),
		{0, 1}: spanned(fry, 3, 1),
	})
	outputsTable := mustFromMap(t, map[Pos]*Cell{{0, 0}: outputs})
	want, err := Combine([]*Table{inner, outputsTable}, Horizontal)
	require.NoError(t, err)

	got := layoutFor(t, sr)
	assert.Empty(t, tableDiff(want, got))
}

func TestLayoutLeaflessTree(t *testing.T) {
	_, err := FromRecipeTree(step("stir"))
	assert.ErrorIs(t, err, EmptyTreeError{})
}
