package formula

import (
	"strings"

	"github.com/xuri/efp"

	"github.com/witanlabs/gridcalc/grid"
)

// References lists the cells a formula reads, in the order they appear.
// Single cells come back as one-cell ranges. Operands that are not valid
// references are skipped, and text that is not a formula has none.
//
// This is for highlighting the inputs of a formula. It does not follow
// references into other formulas.
func References(text string) []grid.Range {
	if !IsFormula(text) {
		return nil
	}
	ps := efp.ExcelParser()
	tokens := ps.Parse(text)

	var refs []grid.Range
	seen := make(map[grid.Range]bool)
	for _, token := range tokens {
		if token.TType != efp.TokenTypeOperand || token.TSubType != efp.TokenSubTypeRange {
			continue
		}
		r, ok := parseOperand(token.TValue)
		if !ok || seen[r] {
			continue
		}
		seen[r] = true
		refs = append(refs, r)
	}
	return refs
}

func parseOperand(v string) (grid.Range, bool) {
	if strings.Contains(v, ":") {
		r, err := grid.ParseRange(v)
		return r, err == nil
	}
	a, err := grid.ParseAddress(v)
	if err != nil {
		return grid.Range{}, false
	}
	return grid.Range{Start: a, End: a}, true
}
