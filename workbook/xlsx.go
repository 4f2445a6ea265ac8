package workbook

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/witanlabs/gridcalc/formula"
	"github.com/witanlabs/gridcalc/grid"
)

// excelize gives every font this size when none is set.
const defaultFontSize = 11

// Limits on the grid a sheet may load into. A sheet whose cells reach past
// them is refused; a recorded dimension past them is ignored.
const (
	MaxColumns = 1024
	MaxCells   = 1 << 18
)

// ErrTooLarge is returned for sheets whose stored cells exceed MaxColumns
// or MaxCells.
var ErrTooLarge = errors.New("sheet too large")

func checkSize(rows, cols int) error {
	if cols > MaxColumns || rows > MaxCells || (cols > 0 && rows > MaxCells/cols) {
		return fmt.Errorf("%w: %d rows by %d columns (limit %d columns, %d cells)", ErrTooLarge, rows, cols, MaxColumns, MaxCells)
	}
	return nil
}

// decodeXLSX reads the first sheet of a workbook. Formula cells come back as
// their formula text, other cells as their raw value.
func decodeXLSX(r io.Reader) (*Document, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	sheet := sheets[0]

	stored, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	rows, cols := len(stored), 0
	for _, row := range stored {
		cols = max(cols, len(row))
	}
	if err := checkSize(rows, cols); err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheet, err)
	}

	// GetRows drops trailing empty rows and cells; the recorded dimension
	// keeps a blank grid its size.
	if dim, err := f.GetSheetDimension(sheet); err == nil {
		if r, err := grid.ParseRange(dim); err == nil {
			dimRows, dimCols := max(rows, r.End.Row+1), max(cols, r.End.Col+1)
			if checkSize(dimRows, dimCols) == nil {
				rows, cols = dimRows, dimCols
			}
		}
	}

	g := grid.New(rows, cols)
	ed := g.Edit()
	for row, cells := range stored {
		for col, v := range cells {
			if v != "" {
				ed.Set(row, col, v)
			}
			// formula cells are always stored, even with no cached value
			cell, err := excelize.CoordinatesToCellName(col+1, row+1)
			if err != nil {
				return nil, err
			}
			if text, err := f.GetCellFormula(sheet, cell); err == nil && text != "" {
				ed.Set(row, col, "="+text)
			}
		}
	}
	g = ed.Grid()

	styles := grid.Styles{}
	ids := map[int]grid.Style{}
	for row := 0; row < g.Rows(); row++ {
		for col := 0; col < g.Cols(); col++ {
			cell, err := excelize.CoordinatesToCellName(col+1, row+1)
			if err != nil {
				return nil, err
			}
			id, err := f.GetCellStyle(sheet, cell)
			if err != nil || id == 0 {
				continue
			}
			st, seen := ids[id]
			if !seen {
				xs, err := f.GetStyle(id)
				if err != nil {
					return nil, fmt.Errorf("reading style of %s: %w", cell, err)
				}
				st = fromExcelStyle(xs)
				ids[id] = st
			}
			if st != (grid.Style{}) {
				styles[grid.Address{Col: col, Row: row}] = st
			}
		}
	}
	return &Document{Grid: g, Styles: styles}, nil
}

// encodeXLSX writes the document as a single-sheet workbook. Numbers are
// stored as numbers and formula text as formulas.
func encodeXLSX(w io.Writer, d *Document) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	snap := d.Grid.Snapshot()
	for row, cells := range snap {
		for col, v := range cells {
			if v == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, row+1)
			if err != nil {
				return err
			}
			if err := setCell(f, sheet, cell, v); err != nil {
				return fmt.Errorf("writing %s: %w", cell, err)
			}
		}
	}

	ids := map[grid.Style]int{}
	for a, st := range d.Styles {
		id, ok := ids[st]
		if !ok {
			var err error
			if id, err = f.NewStyle(toExcelStyle(st)); err != nil {
				return fmt.Errorf("creating style for %s: %w", a, err)
			}
			ids[st] = id
		}
		cell := a.String()
		if err := f.SetCellStyle(sheet, cell, cell, id); err != nil {
			return fmt.Errorf("styling %s: %w", cell, err)
		}
	}

	if bounds, ok := d.Grid.Bounds(); ok {
		if err := f.SetSheetDimension(sheet, bounds.String()); err != nil {
			return err
		}
	}
	return f.Write(w)
}

func setCell(f *excelize.File, sheet, cell, v string) error {
	if formula.IsFormula(v) {
		return f.SetCellFormula(sheet, cell, v[1:])
	}
	if n, ok := grid.ParseNumber(v); ok && strings.TrimSpace(v) == v {
		return f.SetCellFloat(sheet, cell, n, -1, 64)
	}
	return f.SetCellStr(sheet, cell, v)
}

func toExcelStyle(s grid.Style) *excelize.Style {
	font := &excelize.Font{Bold: s.Bold(), Italic: s.Italic()}
	if size, ok := parseFontSize(s.FontSize); ok {
		font.Size = size
	}
	if c, ok := hexColor(s.Color); ok {
		font.Color = c
	}
	return &excelize.Style{Font: font}
}

func fromExcelStyle(xs *excelize.Style) grid.Style {
	var s grid.Style
	if xs == nil || xs.Font == nil {
		return s
	}
	if xs.Font.Bold {
		s.FontWeight = "bold"
	}
	if xs.Font.Italic {
		s.FontStyle = "italic"
	}
	if xs.Font.Size > 0 && xs.Font.Size != defaultFontSize {
		s.FontSize = strconv.FormatFloat(xs.Font.Size, 'f', -1, 64) + "px"
	}
	if c, ok := hexColor(xs.Font.Color); ok {
		s.Color = "#" + strings.ToLower(c)
	}
	return s
}

// parseFontSize reads sizes such as "18px", "12pt" or "14".
func parseFontSize(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimSuffix(s, "px"), "pt")
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// hexColor normalizes "#ff0000", "FF0000" and ARGB "FFFF0000" to RRGGBB.
func hexColor(s string) (string, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 8 {
		s = s[2:]
	}
	if len(s) != 6 {
		return "", false
	}
	if _, err := strconv.ParseUint(s, 16, 32); err != nil {
		return "", false
	}
	return strings.ToUpper(s), true
}
