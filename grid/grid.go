package grid

import "fmt"

// Grid is a rectangular table of cell text. A Grid is a value: every
// mutation returns a new Grid and leaves the receiver untouched. Rows that a
// mutation does not change are shared between the old and the new value, so
// row slices are never written in place.
//
// Cells hold plain text, numbers in their textual form, or formula text
// starting with "=". Formula text is stored as-is and is never evaluated on
// write.
type Grid struct {
	cells [][]string
	rows  int
	cols  int
}

// New returns a rows x cols grid of empty cells.
func New(rows, cols int) Grid {
	rows, cols = max(rows, 0), max(cols, 0)
	g := Grid{cells: make([][]string, rows), rows: rows, cols: cols}
	for i := range g.cells {
		g.cells[i] = make([]string, cols)
	}
	return g
}

// FromRows copies rows into a new grid. Ragged input is padded with empty
// cells up to the widest row.
func FromRows(rows [][]string) Grid {
	cols := 0
	for _, r := range rows {
		cols = max(cols, len(r))
	}
	g := New(len(rows), cols)
	for i, r := range rows {
		copy(g.cells[i], r)
	}
	return g
}

// Rows returns the row count.
func (g Grid) Rows() int { return g.rows }

// Cols returns the column count.
func (g Grid) Cols() int { return g.cols }

// Bounds returns the range covering every cell, and false for an empty grid.
func (g Grid) Bounds() (Range, bool) {
	if g.rows == 0 || g.cols == 0 {
		return Range{}, false
	}
	return Range{End: Address{Col: g.cols - 1, Row: g.rows - 1}}, true
}

func (g Grid) inBounds(row, col int) bool {
	return row >= 0 && row < g.rows && col >= 0 && col < g.cols
}

// Get returns the cell at (row, col).
func (g Grid) Get(row, col int) (string, error) {
	if !g.inBounds(row, col) {
		return "", fmt.Errorf("%w: cell (%d, %d) in %dx%d grid", ErrOutOfBounds, row, col, g.rows, g.cols)
	}
	return g.cells[row][col], nil
}

// Value is the lenient read used during evaluation: cells outside the grid
// read as empty and never fail.
func (g Grid) Value(row, col int) string {
	if !g.inBounds(row, col) {
		return ""
	}
	return g.cells[row][col]
}

// At is Value addressed by an Address.
func (g Grid) At(a Address) string {
	return g.Value(a.Row, a.Col)
}

// Set returns a grid with (row, col) set to value.
func (g Grid) Set(row, col int, value string) (Grid, error) {
	if !g.inBounds(row, col) {
		return g, fmt.Errorf("%w: cell (%d, %d) in %dx%d grid", ErrOutOfBounds, row, col, g.rows, g.cols)
	}
	out := g.shallowCopy()
	r := make([]string, g.cols)
	copy(r, g.cells[row])
	r[col] = value
	out.cells[row] = r
	return out, nil
}

// SetAt is Set addressed by an Address.
func (g Grid) SetAt(a Address, value string) (Grid, error) {
	return g.Set(a.Row, a.Col, value)
}

// AddRow appends a row of empty cells.
func (g Grid) AddRow() Grid {
	out := Grid{cells: make([][]string, g.rows, g.rows+1), rows: g.rows + 1, cols: g.cols}
	copy(out.cells, g.cells)
	out.cells = append(out.cells, make([]string, g.cols))
	return out
}

// AddColumn appends an empty cell to every row. Every row is rewritten.
func (g Grid) AddColumn() Grid {
	out := Grid{cells: make([][]string, g.rows), rows: g.rows, cols: g.cols + 1}
	for i, r := range g.cells {
		nr := make([]string, g.cols+1)
		copy(nr, r)
		out.cells[i] = nr
	}
	return out
}

// DeleteRow removes row index; later rows move up by one. Formulas that
// reference moved cells are not renumbered.
func (g Grid) DeleteRow(index int) (Grid, error) {
	if index < 0 || index >= g.rows {
		return g, fmt.Errorf("%w: row %d in grid with %d rows", ErrOutOfBounds, index, g.rows)
	}
	out := Grid{cells: make([][]string, 0, g.rows-1), rows: g.rows - 1, cols: g.cols}
	out.cells = append(out.cells, g.cells[:index]...)
	out.cells = append(out.cells, g.cells[index+1:]...)
	return out, nil
}

// DeleteColumn removes column index from every row; later columns move left
// by one. Formulas that reference moved cells are not renumbered.
func (g Grid) DeleteColumn(index int) (Grid, error) {
	if index < 0 || index >= g.cols {
		return g, fmt.Errorf("%w: column %d in grid with %d columns", ErrOutOfBounds, index, g.cols)
	}
	out := Grid{cells: make([][]string, g.rows), rows: g.rows, cols: g.cols - 1}
	for i, r := range g.cells {
		nr := make([]string, 0, g.cols-1)
		nr = append(nr, r[:index]...)
		nr = append(nr, r[index+1:]...)
		out.cells[i] = nr
	}
	return out, nil
}

// Snapshot returns a deep copy of the cells.
func (g Grid) Snapshot() [][]string {
	out := make([][]string, g.rows)
	for i, r := range g.cells {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// Equal reports whether both grids have the same shape and cell text.
func (g Grid) Equal(o Grid) bool {
	if g.rows != o.rows || g.cols != o.cols {
		return false
	}
	for i := range g.cells {
		for j := range g.cells[i] {
			if g.cells[i][j] != o.cells[i][j] {
				return false
			}
		}
	}
	return true
}

// Editor applies many cell writes to a private copy of a grid and hands the
// result back as a new Grid. Bulk operations use it so that one pass copies
// each touched row once.
type Editor struct {
	g      Grid
	copied map[int]bool
}

// Edit starts a batch of writes based on g.
func (g Grid) Edit() *Editor {
	return &Editor{g: g.shallowCopy(), copied: make(map[int]bool)}
}

// Set writes value at (row, col). Writes outside the grid are ignored and
// reported as false.
func (e *Editor) Set(row, col int, value string) bool {
	if !e.g.inBounds(row, col) {
		return false
	}
	if !e.copied[row] {
		e.g.cells[row] = append([]string(nil), e.g.cells[row]...)
		e.copied[row] = true
	}
	e.g.cells[row][col] = value
	return true
}

// Grid returns the edited grid. The editor must not be used afterwards.
func (e *Editor) Grid() Grid {
	out := e.g
	e.g = Grid{}
	return out
}

func (g Grid) shallowCopy() Grid {
	out := Grid{cells: make([][]string, g.rows), rows: g.rows, cols: g.cols}
	copy(out.cells, g.cells)
	return out
}
