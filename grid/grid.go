// Package grid defines the raw spreadsheet model consumed by the analysis
// engine: a rectangular grid of untyped cells, the data range under analysis,
// and the roles assigned to columns.
package grid

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrEmptyGrid        = errors.New("grid has no rows")
	ErrNotRectangular   = errors.New("grid rows have unequal lengths")
	ErrRangeOutOfBounds = errors.New("data range outside grid bounds")
	ErrRangeInverted    = errors.New("data range start exceeds end")
)

// CellKind discriminates the three value shapes a spreadsheet cell can hold.
type CellKind int

const (
	KindEmpty CellKind = iota
	KindText
	KindNumber
)

// Cell is a single grid value: empty, free text, or a number.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
}

// Empty returns the empty cell.
func Empty() Cell { return Cell{Kind: KindEmpty} }

// Text returns a text cell.
func Text(s string) Cell { return Cell{Kind: KindText, Text: s} }

// Number returns a numeric cell.
func Number(v float64) Cell { return Cell{Kind: KindNumber, Number: v} }

// IsEmpty reports whether the cell holds no value.
func (c Cell) IsEmpty() bool { return c.Kind == KindEmpty }

// IsNumber reports whether the cell holds a numeric value.
func (c Cell) IsNumber() bool { return c.Kind == KindNumber }

// Float returns the numeric value and whether the cell is numeric.
func (c Cell) Float() (float64, bool) {
	if c.Kind == KindNumber {
		return c.Number, true
	}
	return 0, false
}

// String renders the cell for display and logging.
func (c Cell) String() string {
	switch c.Kind {
	case KindText:
		return c.Text
	case KindNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	default:
		return ""
	}
}

// Grid is an immutable rectangular sequence of cell rows. Construct one with
// New or one of the adapters in convert.go; the zero Grid is empty.
type Grid struct {
	rows [][]Cell
}

// New validates shape and wraps the given rows. The engine never mutates the
// rows after construction; callers must not either.
func New(rows [][]Cell) (Grid, error) {
	if len(rows) == 0 {
		return Grid{}, ErrEmptyGrid
	}
	width := len(rows[0])
	for i, row := range rows {
		if len(row) != width {
			return Grid{}, fmt.Errorf("row %d has %d cells, expected %d: %w", i, len(row), width, ErrNotRectangular)
		}
	}
	return Grid{rows: rows}, nil
}

// NumRows returns the row count.
func (g Grid) NumRows() int { return len(g.rows) }

// NumCols returns the column count.
func (g Grid) NumCols() int {
	if len(g.rows) == 0 {
		return 0
	}
	return len(g.rows[0])
}

// At returns the cell at (row, col), or the empty cell when out of bounds.
func (g Grid) At(row, col int) Cell {
	if row < 0 || row >= len(g.rows) {
		return Empty()
	}
	if col < 0 || col >= len(g.rows[row]) {
		return Empty()
	}
	return g.rows[row][col]
}

// Row returns a copy of the cells in the given row.
func (g Grid) Row(row int) []Cell {
	if row < 0 || row >= len(g.rows) {
		return nil
	}
	out := make([]Cell, len(g.rows[row]))
	copy(out, g.rows[row])
	return out
}

// ColumnRole is the inferred or user-assigned function of a column.
// A column holds at most one role at a time.
type ColumnRole string

const (
	RoleAccountCode  ColumnRole = "account_code"
	RoleAccountName  ColumnRole = "account_name"
	RolePeriod       ColumnRole = "period"
	RoleUnclassified ColumnRole = "unclassified"
)

// ValidRole reports whether r is one of the known column roles.
func ValidRole(r ColumnRole) bool {
	switch r {
	case RoleAccountCode, RoleAccountName, RolePeriod, RoleUnclassified:
		return true
	}
	return false
}

// DataRange delimits the rows and columns under analysis. All indices are
// inclusive, 0-based into the Grid.
type DataRange struct {
	StartRow int `json:"start_row"`
	EndRow   int `json:"end_row"`
	StartCol int `json:"start_col"`
	EndCol   int `json:"end_col"`
}

// Validate checks ordering and bounds against the grid.
func (r DataRange) Validate(g Grid) error {
	if r.StartRow > r.EndRow || r.StartCol > r.EndCol {
		return ErrRangeInverted
	}
	if r.StartRow < 0 || r.StartCol < 0 || r.EndRow >= g.NumRows() || r.EndCol >= g.NumCols() {
		return fmt.Errorf("rows %d-%d cols %d-%d in %dx%d grid: %w",
			r.StartRow, r.EndRow, r.StartCol, r.EndCol, g.NumRows(), g.NumCols(), ErrRangeOutOfBounds)
	}
	return nil
}

// ContainsRow reports whether row falls inside the range.
func (r DataRange) ContainsRow(row int) bool {
	return row >= r.StartRow && row <= r.EndRow
}

// Rows returns the number of rows in the range.
func (r DataRange) Rows() int { return r.EndRow - r.StartRow + 1 }
