// Package workbook is the editor's document: the grid, its styles, and the
// operations a front end performs on them, plus reading and writing
// documents as xlsx, csv or JSON snapshots.
package workbook

import (
	"fmt"

	"github.com/witanlabs/gridcalc/formula"
	"github.com/witanlabs/gridcalc/grid"
)

// Default dimensions of a new document.
const (
	DefaultRows = 10
	DefaultCols = 5
)

// Document is a grid with its style map. Methods replace the Grid and Styles
// fields with new values; values previously read from them stay valid.
// A Document is not safe for concurrent use.
type Document struct {
	Grid   grid.Grid
	Styles grid.Styles
}

// New returns an empty rows x cols document.
func New(rows, cols int) *Document {
	return &Document{Grid: grid.New(rows, cols), Styles: grid.Styles{}}
}

// FromGrid wraps g in a document without styles.
func FromGrid(g grid.Grid) *Document {
	return &Document{Grid: g, Styles: grid.Styles{}}
}

// Result is the outcome of Commit.
type Result struct {
	Value formula.Value
	// Replaced is set when a bulk operation swapped in a new grid before
	// the value was written.
	Replaced bool
}

// Commit evaluates text against the document and writes the displayed value
// into target, as when a formula is entered in the formula bar. A bulk
// operation first replaces the grid and then writes its status into target.
func (d *Document) Commit(target grid.Address, text string) (Result, error) {
	if _, err := d.Grid.Get(target.Row, target.Col); err != nil {
		return Result{}, fmt.Errorf("commit to %s: %w", target, err)
	}
	v, replacement := formula.Evaluate(text, d.Grid)
	g := d.Grid
	if replacement != nil {
		g = *replacement
	}
	g, err := g.SetAt(target, v.String())
	if err != nil {
		return Result{}, err
	}
	d.Grid = g
	return Result{Value: v, Replaced: replacement != nil}, nil
}

// EvaluateCell replaces the formula stored at a with its value, as when an
// edited cell loses focus. Cells that do not hold a formula are left alone
// and reported with ok false.
func (d *Document) EvaluateCell(a grid.Address) (res Result, ok bool, err error) {
	text, err := d.Grid.Get(a.Row, a.Col)
	if err != nil {
		return Result{}, false, err
	}
	if !formula.IsFormula(text) {
		return Result{}, false, nil
	}
	res, err = d.Commit(a, text)
	return res, err == nil, err
}

// Set writes raw text into a cell. Formula text is stored, not evaluated.
func (d *Document) Set(a grid.Address, text string) error {
	g, err := d.Grid.SetAt(a, text)
	if err != nil {
		return err
	}
	d.Grid = g
	return nil
}

// Fill drag-fills from the cell at from over the rectangle up to to.
func (d *Document) Fill(from, to grid.Address) error {
	g, err := formula.Fill(d.Grid, from, to)
	if err != nil {
		return err
	}
	d.Grid = g
	return nil
}

// AddRow appends an empty row.
func (d *Document) AddRow() { d.Grid = d.Grid.AddRow() }

// AddColumn appends an empty column.
func (d *Document) AddColumn() { d.Grid = d.Grid.AddColumn() }

// DeleteRow removes a row and moves the styles below it up with their cells.
func (d *Document) DeleteRow(index int) error {
	g, err := d.Grid.DeleteRow(index)
	if err != nil {
		return err
	}
	d.Grid, d.Styles = g, d.Styles.DeleteRow(index)
	return nil
}

// DeleteColumn removes a column and moves the styles right of it left.
func (d *Document) DeleteColumn(index int) error {
	g, err := d.Grid.DeleteColumn(index)
	if err != nil {
		return err
	}
	d.Grid, d.Styles = g, d.Styles.DeleteColumn(index)
	return nil
}

// ApplyStyle toggles a style attribute on an existing cell.
func (d *Document) ApplyStyle(a grid.Address, attr grid.Attribute, value string) error {
	if _, err := d.Grid.Get(a.Row, a.Col); err != nil {
		return fmt.Errorf("style %s: %w", a, err)
	}
	d.Styles = d.Styles.Apply(a, attr, value)
	return nil
}

// Clone returns a document that shares no mutable state with d.
func (d *Document) Clone() *Document {
	styles := make(grid.Styles, len(d.Styles))
	for a, s := range d.Styles {
		styles[a] = s
	}
	return &Document{Grid: d.Grid, Styles: styles}
}
