package formula

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/witanlabs/gridcalc/grid"
)

// RefError replaces a reference that an adjustment moved off the sheet.
const RefError = "#REF!"

var adjustRe = regexp.MustCompile(`(\$?)([A-Za-z]+)(\$?)([0-9]+)`)

// Adjust shifts every cell reference in a formula by rowDelta rows and
// colDelta columns, as when the formula is copied to another cell. Text that
// is not a formula is returned unchanged, as is anything inside a quoted
// string argument.
//
// $ markers are kept in the output but do not pin the reference: "$A$1"
// shifted by one row becomes "$A$2".
func Adjust(text string, rowDelta, colDelta int) string {
	if !IsFormula(text) || (rowDelta == 0 && colDelta == 0) {
		return text
	}
	shift := func(tok string) string {
		m := adjustRe.FindStringSubmatch(tok)
		col, err := grid.ColumnNameToIndex(m[2])
		if err != nil {
			return tok
		}
		row, err := strconv.Atoi(m[4])
		if err != nil || row < 1 {
			return tok
		}
		a := grid.Address{Col: col, Row: row - 1}.Offset(rowDelta, colDelta)
		if !a.Valid() {
			return RefError
		}
		return m[1] + grid.ColumnIndexToName(a.Col) + m[3] + strconv.Itoa(a.Row+1)
	}
	// odd parts lie between quotes
	parts := strings.Split(text, `"`)
	for i := 0; i < len(parts); i += 2 {
		parts[i] = adjustRe.ReplaceAllStringFunc(parts[i], shift)
	}
	return strings.Join(parts, `"`)
}

// FillPolicy says how a seed cell propagates during a drag-fill.
type FillPolicy int

const (
	// FillNone copies nothing; plain text seeds are not filled.
	FillNone FillPolicy = iota
	// FillLinear writes the seed number plus the row offset.
	FillLinear
	// FillFormula writes the seed formula with its references adjusted.
	FillFormula
)

func (p FillPolicy) String() string {
	switch p {
	case FillLinear:
		return "linear"
	case FillFormula:
		return "formula"
	default:
		return "none"
	}
}

// PolicyFor picks the fill policy from the seed's content.
func PolicyFor(seed string) FillPolicy {
	switch {
	case IsFormula(seed):
		return FillFormula
	case seed == "":
		return FillNone
	default:
		if _, ok := grid.ParseNumber(seed); ok {
			return FillLinear
		}
		return FillNone
	}
}

// Fill propagates the cell at from over the rectangle spanned by from and to.
// The seed cell itself is left as is. Every target must lie inside g;
// otherwise nothing is written and the error wraps grid.ErrOutOfBounds.
func Fill(g grid.Grid, from, to grid.Address) (grid.Grid, error) {
	seed, err := g.Get(from.Row, from.Col)
	if err != nil {
		return g, fmt.Errorf("fill seed %s: %w", from, err)
	}
	r := grid.NewRange(from, to)
	if clipped, ok := g.Clip(r); !ok || clipped != r {
		return g, fmt.Errorf("%w: fill range %s exceeds %dx%d grid", grid.ErrOutOfBounds, r, g.Rows(), g.Cols())
	}

	policy := PolicyFor(seed)
	if policy == FillNone {
		return g, nil
	}
	base, _ := grid.ParseNumber(seed)

	ed := g.Edit()
	for _, a := range r.Cells() {
		if a == from {
			continue
		}
		dr, dc := a.Row-from.Row, a.Col-from.Col
		switch policy {
		case FillLinear:
			ed.Set(a.Row, a.Col, FormatNumber(base+float64(dr)))
		case FillFormula:
			ed.Set(a.Row, a.Col, Adjust(seed, dr, dc))
		}
	}
	return ed.Grid(), nil
}
