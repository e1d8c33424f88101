package table

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/recipegrid/internal/number"
	"github.com/vk/recipegrid/internal/recipe"
	"github.com/vk/recipegrid/internal/svs"
)

func ing(name string) *recipe.Ingredient {
	return &recipe.Ingredient{Description: svs.FromText(name)}
}

func step(name string, inputs ...recipe.Node) *recipe.Step {
	return &recipe.Step{Description: svs.FromText(name), Inputs: inputs}
}

func sub(tree recipe.Node, show bool, names ...string) *recipe.SubRecipe {
	outs := make([]svs.String, len(names))
	for i, n := range names {
		outs[i] = svs.FromText(n)
	}
	return &recipe.SubRecipe{Tree: tree, OutputNames: outs, ShowOutputNames: show}
}

func mustFromMap(t *testing.T, cells map[Pos]*Cell) *Table {
	t.Helper()
	table, err := FromMap(cells)
	require.NoError(t, err)
	return table
}

func tableDiff(want, got *Table) string {
	return cmp.Diff(want, got,
		cmp.Comparer(func(x, y number.Number) bool {
			return x.Equal(y) && x.Decimal() == y.Decimal()
		}),
		cmp.Comparer(func(x, y svs.String) bool { return x.Equal(y) }),
	)
}

func spanned(n recipe.Node, rows, columns int) *Cell {
	c := NewCell(n)
	c.Rows = rows
	c.Columns = columns
	return c
}

func TestTableIndexing(t *testing.T) {
	t.Run("minimal", func(t *testing.T) {
		c00 := NewCell(ing("0,0"))
		table, err := New([][]Element{{c00}})
		require.NoError(t, err)
		assert.Same(t, c00, table.At(0, 0))
		assert.Equal(t, 1, table.Rows())
		assert.Equal(t, 1, table.Columns())
	})

	t.Run("plain cells only", func(t *testing.T) {
		c00 := NewCell(ing("0,0"))
		c01 := NewCell(ing("0,1"))
		c10 := NewCell(ing("1,0"))
		c11 := NewCell(ing("1,1"))
		table, err := New([][]Element{{c00, c01}, {c10, c11}})
		require.NoError(t, err)
		assert.Same(t, c01, table.At(0, 1))
		assert.Same(t, c10, table.At(1, 0))
		assert.Equal(t, 2, table.Rows())
		assert.Equal(t, 2, table.Columns())
	})

	t.Run("with extended cells", func(t *testing.T) {
		c0x := spanned(ing("0,x"), 1, 2)
		c10 := NewCell(ing("1,0"))
		c11 := NewCell(ing("1,1"))
		table, err := New([][]Element{
			{c0x, &ExtendedCell{Cell: c0x, DColumn: 1}},
			{c10, c11},
		})
		require.NoError(t, err)
		assert.Same(t, c0x, table.At(0, 0))
		ext, ok := table.At(0, 1).(*ExtendedCell)
		require.True(t, ok)
		assert.Same(t, c0x, ext.Cell)
	})

	t.Run("single row span", func(t *testing.T) {
		c0x := spanned(ing("0,x"), 1, 2)
		table, err := New([][]Element{{c0x, &ExtendedCell{Cell: c0x, DColumn: 1}}})
		require.NoError(t, err)
		assert.Equal(t, 1, table.Rows())
		assert.Equal(t, 2, table.Columns())
	})
}

func TestTableValidation(t *testing.T) {
	node := ing("dummy")

	t.Run("empty table", func(t *testing.T) {
		_, err := New([][]Element{})
		assert.ErrorIs(t, err, EmptyTableError{})
		_, err = New([][]Element{{}})
		assert.ErrorIs(t, err, EmptyTableError{})
	})

	t.Run("extension in wrong place", func(t *testing.T) {
		_, err := New([][]Element{{&ExtendedCell{Cell: NewCell(node)}}})
		assert.ErrorIs(t, err, CellExpectedError{Pos{0, 0}})

		_, err = New([][]Element{{NewCell(node), &ExtendedCell{Cell: NewCell(node), DColumn: 1}}})
		assert.ErrorIs(t, err, CellExpectedError{Pos{0, 1}})
	})

	t.Run("cell inside another span", func(t *testing.T) {
		for _, span := range []struct{ rows, columns int }{{1, 2}, {2, 1}, {2, 2}} {
			_, err := New([][]Element{
				{spanned(node, span.rows, span.columns), NewCell(node)},
				{NewCell(node), NewCell(node)},
			})
			var expected ExtendedCellExpectedError
			assert.ErrorAs(t, err, &expected)
		}
	})

	t.Run("extension missing", func(t *testing.T) {
		for _, span := range []struct{ rows, columns int }{{1, 2}, {2, 1}, {2, 2}} {
			_, err := New([][]Element{{spanned(node, span.rows, span.columns)}})
			var missing MissingCellError
			assert.ErrorAs(t, err, &missing)
		}
	})

	t.Run("extension references wrong cell", func(t *testing.T) {
		_, err := New([][]Element{
			{spanned(node, 1, 2), &ExtendedCell{Cell: NewCell(node), DColumn: 1}},
		})
		assert.ErrorIs(t, err, ExtendedCellReferenceError{Pos{0, 1}})
	})

	t.Run("extension carries wrong offsets", func(t *testing.T) {
		cell := spanned(node, 1, 2)
		_, err := New([][]Element{{cell, &ExtendedCell{Cell: cell, DRow: 1, DColumn: 1}}})
		assert.ErrorIs(t, err, ExtendedCellCoordinateError{Pos{0, 1}})

		_, err = New([][]Element{{cell, &ExtendedCell{Cell: cell}}})
		assert.ErrorIs(t, err, ExtendedCellCoordinateError{Pos{0, 1}})
	})

	t.Run("ragged rows", func(t *testing.T) {
		_, err := New([][]Element{{NewCell(node)}, {NewCell(node), NewCell(node)}})
		var missing MissingCellError
		assert.ErrorAs(t, err, &missing)

		_, err = New([][]Element{{NewCell(node), NewCell(node)}, {NewCell(node)}})
		assert.ErrorAs(t, err, &missing)
	})
}

func TestFromMap(t *testing.T) {
	t.Run("minimal", func(t *testing.T) {
		c00 := NewCell(ing("0,0"))
		got := mustFromMap(t, map[Pos]*Cell{{0, 0}: c00})
		want, err := New([][]Element{{c00}})
		require.NoError(t, err)
		assert.Empty(t, tableDiff(want, got))
	})

	t.Run("plain cells only", func(t *testing.T) {
		c00 := NewCell(ing("0,0"))
		c01 := NewCell(ing("0,1"))
		c10 := NewCell(ing("1,0"))
		c11 := NewCell(ing("1,1"))
		got := mustFromMap(t, map[Pos]*Cell{
			{0, 0}: c00, {0, 1}: c01, {1, 0}: c10, {1, 1}: c11,
		})
		want, err := New([][]Element{{c00, c01}, {c10, c11}})
		require.NoError(t, err)
		assert.Empty(t, tableDiff(want, got))
	})

	t.Run("spanning cell fills extensions", func(t *testing.T) {
		cxx := spanned(ing("0,x"), 2, 3)
		got := mustFromMap(t, map[Pos]*Cell{{0, 0}: cxx})
		want, err := New([][]Element{
			{cxx, &ExtendedCell{Cell: cxx, DColumn: 1}, &ExtendedCell{Cell: cxx, DColumn: 2}},
			{
				&ExtendedCell{Cell: cxx, DRow: 1},
				&ExtendedCell{Cell: cxx, DRow: 1, DColumn: 1},
				&ExtendedCell{Cell: cxx, DRow: 1, DColumn: 2},
			},
		})
		require.NoError(t, err)
		assert.Empty(t, tableDiff(want, got))
	})

	t.Run("empty", func(t *testing.T) {
		_, err := FromMap(map[Pos]*Cell{})
		assert.ErrorIs(t, err, EmptyTableError{})
	})

	t.Run("missing cells", func(t *testing.T) {
		for _, pos := range []Pos{{2, 0}, {0, 2}, {2, 2}} {
			_, err := FromMap(map[Pos]*Cell{{0, 0}: NewCell(ing("a")), pos: NewCell(ing("b"))})
			var missing MissingCellError
			assert.ErrorAs(t, err, &missing)
		}
	})
}

func TestToMap(t *testing.T) {
	c10 := NewCell(ing("1,0"))
	c11 := NewCell(ing("1,1"))
	c0x := spanned(ing("0,x"), 1, 2)
	cells := map[Pos]*Cell{{0, 0}: c0x, {1, 0}: c10, {1, 1}: c11}
	assert.Equal(t, cells, mustFromMap(t, cells).ToMap())
}

func TestCombine(t *testing.T) {
	node := ing("dummy")

	t.Run("no tables", func(t *testing.T) {
		_, err := Combine(nil, Vertical)
		assert.ErrorIs(t, err, EmptyTableError{})
	})

	t.Run("single table", func(t *testing.T) {
		orig := mustFromMap(t, map[Pos]*Cell{{0, 0}: spanned(node, 1, 2)})
		for _, axis := range []Axis{Vertical, Horizontal} {
			got, err := Combine([]*Table{orig}, axis)
			require.NoError(t, err)
			assert.Empty(t, tableDiff(orig, got))
		}
	})

	t.Run("stacked vertically", func(t *testing.T) {
		t1 := mustFromMap(t, map[Pos]*Cell{{0, 0}: spanned(node, 1, 2)})
		t2 := mustFromMap(t, map[Pos]*Cell{{0, 0}: NewCell(node), {0, 1}: NewCell(node)})
		got, err := Combine([]*Table{t1, t2}, Vertical)
		require.NoError(t, err)
		want := mustFromMap(t, map[Pos]*Cell{
			{0, 0}: spanned(node, 1, 2),
			{1, 0}: NewCell(node),
			{1, 1}: NewCell(node),
		})
		assert.Empty(t, tableDiff(want, got))
	})

	t.Run("placed side by side", func(t *testing.T) {
		t1 := mustFromMap(t, map[Pos]*Cell{{0, 0}: spanned(node, 2, 1)})
		t2 := mustFromMap(t, map[Pos]*Cell{{0, 0}: NewCell(node), {1, 0}: NewCell(node)})
		got, err := Combine([]*Table{t1, t2}, Horizontal)
		require.NoError(t, err)
		want := mustFromMap(t, map[Pos]*Cell{
			{0, 0}: spanned(node, 2, 1),
			{0, 1}: NewCell(node),
			{1, 1}: NewCell(node),
		})
		assert.Empty(t, tableDiff(want, got))
	})

	t.Run("mismatched shapes", func(t *testing.T) {
		_, err := Combine([]*Table{
			mustFromMap(t, map[Pos]*Cell{{0, 0}: spanned(node, 1, 2)}),
			mustFromMap(t, map[Pos]*Cell{{0, 0}: NewCell(node)}),
		}, Vertical)
		var missing MissingCellError
		assert.ErrorAs(t, err, &missing)

		_, err = Combine([]*Table{
			mustFromMap(t, map[Pos]*Cell{{0, 0}: spanned(node, 2, 1)}),
			mustFromMap(t, map[Pos]*Cell{{0, 0}: NewCell(node)}),
		}, Horizontal)
		assert.ErrorAs(t, err, &missing)
	})
}

func TestRightPad(t *testing.T) {
	node := ing("dummy")

	t.Run("already wide enough", func(t *testing.T) {
		for _, table := range []*Table{
			mustFromMap(t, map[Pos]*Cell{{0, 0}: NewCell(node), {0, 1}: NewCell(node)}),
			mustFromMap(t, map[Pos]*Cell{{0, 0}: spanned(node, 1, 2)}),
			mustFromMap(t, map[Pos]*Cell{{0, 0}: spanned(node, 1, 3)}),
		} {
			got, err := RightPad(table, 2)
			require.NoError(t, err)
			assert.Empty(t, tableDiff(table, got))
		}
	})

	t.Run("expands single cell", func(t *testing.T) {
		got, err := RightPad(mustFromMap(t, map[Pos]*Cell{{0, 0}: NewCell(node)}), 2)
		require.NoError(t, err)
		assert.Empty(t, tableDiff(mustFromMap(t, map[Pos]*Cell{{0, 0}: spanned(node, 1, 2)}), got))

		got, err = RightPad(mustFromMap(t, map[Pos]*Cell{{0, 0}: spanned(node, 1, 2)}), 4)
		require.NoError(t, err)
		assert.Empty(t, tableDiff(mustFromMap(t, map[Pos]*Cell{{0, 0}: spanned(node, 1, 4)}), got))
	})

	t.Run("expands rows covered by spanning cells", func(t *testing.T) {
		table := mustFromMap(t, map[Pos]*Cell{
			{0, 0}: spanned(node, 2, 2),
			{2, 0}: NewCell(node),
			{2, 1}: NewCell(node),
		})
		got, err := RightPad(table, 4)
		require.NoError(t, err)
		want := mustFromMap(t, map[Pos]*Cell{
			{0, 0}: spanned(node, 2, 4),
			{2, 0}: NewCell(node),
			{2, 1}: spanned(node, 1, 3),
		})
		assert.Empty(t, tableDiff(want, got))
	})
}

func TestSetBorderAround(t *testing.T) {
	node := ing("dummy")
	table := mustFromMap(t, map[Pos]*Cell{
		{0, 0}: NewCell(node), {0, 1}: NewCell(node),
		{1, 0}: NewCell(node), {1, 1}: NewCell(node),
	})
	got, err := SetBorderAround(table, BorderSubRecipe)
	require.NoError(t, err)

	topLeft := got.At(0, 0).(*Cell)
	assert.Equal(t, BorderSubRecipe, topLeft.BorderTop)
	assert.Equal(t, BorderSubRecipe, topLeft.BorderLeft)
	assert.Equal(t, BorderNormal, topLeft.BorderRight)
	assert.Equal(t, BorderNormal, topLeft.BorderBottom)

	bottomRight := got.At(1, 1).(*Cell)
	assert.Equal(t, BorderSubRecipe, bottomRight.BorderBottom)
	assert.Equal(t, BorderSubRecipe, bottomRight.BorderRight)
	assert.Equal(t, BorderNormal, bottomRight.BorderTop)
	assert.Equal(t, BorderNormal, bottomRight.BorderLeft)

	// The input table keeps its normal borders.
	assert.Equal(t, BorderNormal, table.At(0, 0).(*Cell).BorderTop)
}
