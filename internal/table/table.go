// Package table lays recipe trees out as two dimensional grids of cells.
//
// A Table is a dense grid: every coordinate holds either a Cell or an
// ExtendedCell marking space covered by a spanning neighbour. Columns
// correspond to processing depth (leaves in column zero, the root step in the
// rightmost column) and rows to the leaves of the tree in source order.
package table

import (
	"fmt"

	"github.com/vk/recipegrid/internal/recipe"
)

// BorderType classifies one edge of a cell. The zero value is a normal
// border.
type BorderType int

const (
	BorderNormal BorderType = iota
	BorderNone
	BorderSubRecipe
)

func (b BorderType) String() string {
	switch b {
	case BorderNormal:
		return "normal"
	case BorderNone:
		return "none"
	case BorderSubRecipe:
		return "sub-recipe"
	}
	return fmt.Sprintf("BorderType(%d)", int(b))
}

// Element is one slot of a table grid: either a *Cell or an *ExtendedCell.
type Element interface {
	element()
}

// Cell is one cell of a laid out table.
//
// The node shown depends on its type. Ingredients, references and steps are
// shown as themselves. A sub recipe node appears for one of two purposes: a
// single output sub recipe becomes a header cell above its rows holding the
// output name, while a multiple output sub recipe becomes a cell to the right
// of its rows listing every output name stacked vertically.
type Cell struct {
	Node recipe.Node

	// Rows and Columns give the extent of the cell, downward and to the
	// right.
	Rows    int
	Columns int

	BorderLeft   BorderType
	BorderRight  BorderType
	BorderTop    BorderType
	BorderBottom BorderType
}

// NewCell returns a single span cell with normal borders.
func NewCell(n recipe.Node) *Cell {
	return &Cell{Node: n, Rows: 1, Columns: 1}
}

func (*Cell) element() {}

// ExtendedCell marks grid space filled not by a cell of its own but by the
// extension of a spanning neighbour.
type ExtendedCell struct {
	Cell *Cell

	// DRow and DColumn give the offset from the cell this extension belongs
	// to.
	DRow    int
	DColumn int
}

func (*ExtendedCell) element() {}

// Pos addresses one slot of a table.
type Pos struct {
	Row, Column int
}

// Layout errors report an inconsistent grid description.
type (
	// EmptyTableError reports a table with no cells at all.
	EmptyTableError struct{}

	// CellExpectedError reports an extension found where a cell must start.
	CellExpectedError struct{ Pos Pos }

	// ExtendedCellExpectedError reports a cell found inside another cell's
	// span.
	ExtendedCellExpectedError struct{ Pos Pos }

	// ExtendedCellReferenceError reports an extension pointing at the wrong
	// cell.
	ExtendedCellReferenceError struct{ Pos Pos }

	// ExtendedCellCoordinateError reports an extension whose offsets do not
	// match its position.
	ExtendedCellCoordinateError struct{ Pos Pos }

	// MissingCellError reports a coordinate covered by no cell.
	MissingCellError struct{ Pos Pos }
)

func (EmptyTableError) Error() string { return "the table has no cells" }
func (e CellExpectedError) Error() string {
	return fmt.Sprintf("a cell extension at row %d column %d is not covered by any cell", e.Pos.Row, e.Pos.Column)
}
func (e ExtendedCellExpectedError) Error() string {
	return fmt.Sprintf("the cell at row %d column %d overlaps another cell's span", e.Pos.Row, e.Pos.Column)
}
func (e ExtendedCellReferenceError) Error() string {
	return fmt.Sprintf("the extension at row %d column %d belongs to a different cell", e.Pos.Row, e.Pos.Column)
}
func (e ExtendedCellCoordinateError) Error() string {
	return fmt.Sprintf("the extension at row %d column %d carries the wrong offsets", e.Pos.Row, e.Pos.Column)
}
func (e MissingCellError) Error() string {
	return fmt.Sprintf("no cell covers row %d column %d", e.Pos.Row, e.Pos.Column)
}

// Table is a dense, validated grid of cells.
type Table struct {
	// Cells is indexed as Cells[row][column]. Space covered by a spanning
	// cell holds an *ExtendedCell pointing back at it.
	Cells [][]Element
}

// New builds a table from a dense grid, verifying that every span is
// consistently described by its extensions.
func New(cells [][]Element) (*Table, error) {
	t := &Table{Cells: cells}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// FromMap builds a table from cells placed at their top left coordinates,
// filling in the extensions their spans imply.
func FromMap(cells map[Pos]*Cell) (*Table, error) {
	rows, columns := 0, 0
	for pos, cell := range cells {
		rows = max(rows, pos.Row+cell.Rows)
		columns = max(columns, pos.Column+cell.Columns)
	}
	if rows == 0 || columns == 0 {
		return nil, EmptyTableError{}
	}

	grid := make([][]Element, rows)
	for r := range grid {
		grid[r] = make([]Element, columns)
	}
	for pos, cell := range cells {
		grid[pos.Row][pos.Column] = cell
		for dr := 0; dr < cell.Rows; dr++ {
			for dc := 0; dc < cell.Columns; dc++ {
				if dr != 0 || dc != 0 {
					grid[pos.Row+dr][pos.Column+dc] = &ExtendedCell{Cell: cell, DRow: dr, DColumn: dc}
				}
			}
		}
	}

	for r, row := range grid {
		for c, el := range row {
			if el == nil {
				return nil, MissingCellError{Pos{r, c}}
			}
		}
	}
	return &Table{Cells: grid}, nil
}

// ToMap returns the table's cells keyed by their top left coordinates.
func (t *Table) ToMap() map[Pos]*Cell {
	out := make(map[Pos]*Cell)
	for r, row := range t.Cells {
		for c, el := range row {
			if cell, ok := el.(*Cell); ok {
				out[Pos{r, c}] = cell
			}
		}
	}
	return out
}

func (t *Table) Rows() int    { return len(t.Cells) }
func (t *Table) Columns() int { return len(t.Cells[0]) }

// At returns the element at the given coordinate.
func (t *Table) At(row, column int) Element { return t.Cells[row][column] }

func (t *Table) validate() error {
	if len(t.Cells) == 0 || len(t.Cells[0]) == 0 {
		return EmptyTableError{}
	}

	columns := len(t.Cells[0])
	for r, row := range t.Cells {
		if len(row) != columns {
			return MissingCellError{Pos{r, min(len(row), columns)}}
		}
		for c, el := range row {
			if el == nil {
				return MissingCellError{Pos{r, c}}
			}
		}
	}

	covered := make(map[Pos]bool)
	for r, row := range t.Cells {
		for c, el := range row {
			pos := Pos{r, c}
			if covered[pos] {
				continue
			}

			cell, ok := el.(*Cell)
			if !ok {
				return CellExpectedError{pos}
			}
			covered[pos] = true

			for dr := 0; dr < cell.Rows; dr++ {
				for dc := 0; dc < cell.Columns; dc++ {
					if dr == 0 && dc == 0 {
						continue
					}
					epos := Pos{r + dr, c + dc}
					if epos.Row >= len(t.Cells) || epos.Column >= columns {
						return MissingCellError{epos}
					}
					ext, ok := t.Cells[epos.Row][epos.Column].(*ExtendedCell)
					if !ok {
						return ExtendedCellExpectedError{epos}
					}
					if ext.Cell != cell {
						return ExtendedCellReferenceError{epos}
					}
					if ext.DRow != dr || ext.DColumn != dc {
						return ExtendedCellCoordinateError{epos}
					}
					covered[epos] = true
				}
			}
		}
	}
	return nil
}

// Axis selects the direction tables are combined along.
type Axis int

const (
	// Vertical stacks tables top to bottom.
	Vertical Axis = iota
	// Horizontal places tables side by side, left to right.
	Horizontal
)

// Combine joins tables along the given axis. The tables must line up exactly
// along the other axis or the result has holes and a MissingCellError is
// returned.
func Combine(tables []*Table, axis Axis) (*Table, error) {
	out := make(map[Pos]*Cell)
	rowOffset, columnOffset := 0, 0
	for _, t := range tables {
		for pos, cell := range t.ToMap() {
			out[Pos{pos.Row + rowOffset, pos.Column + columnOffset}] = cell
		}
		switch axis {
		case Vertical:
			rowOffset += t.Rows()
		case Horizontal:
			columnOffset += t.Columns()
		}
	}
	return FromMap(out)
}

// RightPad widens a table to at least the given number of columns by
// stretching the rightmost cell of each row.
func RightPad(t *Table, columns int) (*Table, error) {
	extra := columns - t.Columns()
	if extra <= 0 {
		return t, nil
	}
	out := make(map[Pos]*Cell)
	for pos, cell := range t.ToMap() {
		if pos.Column+cell.Columns == t.Columns() {
			widened := *cell
			widened.Columns += extra
			out[pos] = &widened
		} else {
			out[pos] = cell
		}
	}
	return FromMap(out)
}

// SetBorderAround sets the outward facing edges of the table's outermost
// cells to the given border type.
func SetBorderAround(t *Table, border BorderType) (*Table, error) {
	out := make(map[Pos]*Cell)
	for pos, cell := range t.ToMap() {
		edged := *cell
		if pos.Row == 0 {
			edged.BorderTop = border
		}
		if pos.Column == 0 {
			edged.BorderLeft = border
		}
		if pos.Row+cell.Rows == t.Rows() {
			edged.BorderBottom = border
		}
		if pos.Column+cell.Columns == t.Columns() {
			edged.BorderRight = border
		}
		out[pos] = &edged
	}
	return FromMap(out)
}
