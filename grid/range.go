package grid

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Range is an axis-aligned rectangle of cells, inclusive on both ends.
// Start is always the top-left corner.
type Range struct {
	Start Address
	End   Address
}

// NewRange builds a range from two corners, normalizing reversed bounds so
// that iteration is ascending on both axes.
func NewRange(a, b Address) Range {
	if a.Row > b.Row {
		a.Row, b.Row = b.Row, a.Row
	}
	if a.Col > b.Col {
		a.Col, b.Col = b.Col, a.Col
	}
	return Range{Start: a, End: b}
}

// ParseRange parses "A1:C3". Either side may carry $ markers. A reversed
// range such as "B2:A1" is normalized to "A1:B2".
func ParseRange(text string) (Range, error) {
	from, to, ok := strings.Cut(text, ":")
	if !ok {
		return Range{}, fmt.Errorf("%w: %q has no ':'", ErrMalformedRange, text)
	}
	start, err := ParseAddress(from)
	if err != nil {
		return Range{}, fmt.Errorf("%w: invalid start of range %q: %v", ErrMalformedRange, text, err)
	}
	end, err := ParseAddress(to)
	if err != nil {
		return Range{}, fmt.Errorf("%w: invalid end of range %q: %v", ErrMalformedRange, text, err)
	}
	return NewRange(start, end), nil
}

// String renders the range as "A1:C3".
func (r Range) String() string {
	return r.Start.String() + ":" + r.End.String()
}

// MarshalText renders the range as "A1:C3".
func (r Range) MarshalText() ([]byte, error) {
	if !r.Start.Valid() || !r.End.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRange, [2]Address{r.Start, r.End})
	}
	return []byte(r.String()), nil
}

// UnmarshalText parses "A1:C3".
func (r *Range) UnmarshalText(text []byte) error {
	parsed, err := ParseRange(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Rows returns the number of rows spanned.
func (r Range) Rows() int { return r.End.Row - r.Start.Row + 1 }

// Cols returns the number of columns spanned.
func (r Range) Cols() int { return r.End.Col - r.Start.Col + 1 }

// Contains reports whether a lies inside the range.
func (r Range) Contains(a Address) bool {
	return a.Row >= r.Start.Row && a.Row <= r.End.Row &&
		a.Col >= r.Start.Col && a.Col <= r.End.Col
}

// Cells lists the addresses of r in iteration order: rows outer, columns
// inner, both ascending.
func (r Range) Cells() []Address {
	cells := make([]Address, 0, r.Rows()*r.Cols())
	for row := r.Start.Row; row <= r.End.Row; row++ {
		for col := r.Start.Col; col <= r.End.Col; col++ {
			cells = append(cells, Address{Col: col, Row: row})
		}
	}
	return cells
}

// Clip restricts r to the cells that exist in g. ok is false when no cell
// of r lies inside the grid.
func (g Grid) Clip(r Range) (Range, bool) {
	if r.Start.Row >= g.rows || r.Start.Col >= g.cols || r.End.Row < 0 || r.End.Col < 0 {
		return Range{}, false
	}
	r.Start.Row = max(r.Start.Row, 0)
	r.Start.Col = max(r.Start.Col, 0)
	r.End.Row = min(r.End.Row, g.rows-1)
	r.End.Col = min(r.End.Col, g.cols-1)
	return r, true
}

// Resolve returns the raw values of r in row-major order: rows outer,
// columns inner, both ascending. Cells beyond the grid are empty and are not
// materialized.
func (g Grid) Resolve(r Range) []string {
	r, ok := g.Clip(r)
	if !ok {
		return nil
	}
	values := make([]string, 0, r.Rows()*r.Cols())
	for row := r.Start.Row; row <= r.End.Row; row++ {
		values = append(values, g.cells[row][r.Start.Col:r.End.Col+1]...)
	}
	return values
}

// ResolveRange parses text as a range and resolves it against g.
func ResolveRange(g Grid, text string) ([]string, error) {
	r, err := ParseRange(text)
	if err != nil {
		return nil, err
	}
	return g.Resolve(r), nil
}

// ParseNumber reports whether text holds a finite number and returns it.
// Surrounding whitespace is ignored; empty text is not a number.
func ParseNumber(text string) (float64, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Numbers keeps the values that parse as finite numbers, in order.
func Numbers(values []string) []float64 {
	nums := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := ParseNumber(v); ok {
			nums = append(nums, f)
		}
	}
	return nums
}
