package internal

import (
	"fmt"
	"strings"

	"github.com/witanlabs/gridcalc/grid"
)

// CellChange is one cell whose text differs between two grids.
type CellChange struct {
	Cell   grid.Address `json:"cell"`
	Before string       `json:"before"`
	After  string       `json:"after"`
}

// DiffGrids compares two same-shaped grids cell by cell and returns the
// changed cells in row-major order.
func DiffGrids(before, after grid.Grid) ([]CellChange, error) {
	if before.Rows() != after.Rows() || before.Cols() != after.Cols() {
		return nil, fmt.Errorf(
			"grid dimensions differ: before is %d×%d, after is %d×%d",
			before.Rows(), before.Cols(), after.Rows(), after.Cols(),
		)
	}

	var changes []CellChange
	for row := 0; row < after.Rows(); row++ {
		for col := 0; col < after.Cols(); col++ {
			b, a := before.Value(row, col), after.Value(row, col)
			if b != a {
				changes = append(changes, CellChange{
					Cell:   grid.Address{Col: col, Row: row},
					Before: b,
					After:  a,
				})
			}
		}
	}
	return changes, nil
}

// FormatChanges renders one line per change: `B2: "x" -> ""`.
func FormatChanges(changes []CellChange) string {
	var b strings.Builder
	for _, c := range changes {
		fmt.Fprintf(&b, "%s: %q -> %q\n", c.Cell, c.Before, c.After)
	}
	return b.String()
}

// FormatDiffSummary returns a human-readable diff summary string.
func FormatDiffSummary(changed, total int) string {
	if changed == 0 {
		return "diff: no changes"
	}
	pct := float64(changed) / float64(total) * 100
	if pct < 0.1 {
		return fmt.Sprintf("diff: %d cells changed (<0.1%%)", changed)
	}
	return fmt.Sprintf("diff: %d cells changed (%.1f%%)", changed, pct)
}
