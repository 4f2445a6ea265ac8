// Package grid holds the cell-addressing arithmetic and the rectangular grid
// of cell text that formulas are evaluated against.
package grid

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// cellRefRe matches a cell reference like A1, $B$2, aa100
var cellRefRe = regexp.MustCompile(`^\$?([A-Za-z]+)\$?([0-9]+)$`)

// maxColumnLetters keeps column arithmetic well inside int range.
const maxColumnLetters = 12

// Address is a zero-based (column, row) coordinate.
type Address struct {
	Col int
	Row int
}

// String renders the address in A1 notation.
func (a Address) String() string {
	return ColumnIndexToName(a.Col) + strconv.Itoa(a.Row+1)
}

// Offset returns the address moved by the given number of rows and columns.
func (a Address) Offset(rows, cols int) Address {
	return Address{Col: a.Col + cols, Row: a.Row + rows}
}

// Valid reports whether both coordinates are non-negative.
func (a Address) Valid() bool {
	return a.Col >= 0 && a.Row >= 0
}

// ColumnIndexToName converts a 0-indexed column number to letters using
// bijective base-26: 0 is "A", 25 is "Z", 26 is "AA".
func ColumnIndexToName(index int) string {
	if index < 0 {
		return ""
	}
	var buf []byte
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		buf = append(buf, byte('A'+(n-1)%26))
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

// ColumnNameToIndex converts column letters (any case) to a 0-indexed column number.
func ColumnNameToIndex(name string) (int, error) {
	if name == "" {
		return 0, fmt.Errorf("%w: empty column name", ErrInvalidAddress)
	}
	if len(name) > maxColumnLetters {
		return 0, fmt.Errorf("%w: column %q too long", ErrInvalidAddress, name)
	}
	col := 0
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c < 'A' || c > 'Z' {
			return 0, fmt.Errorf("%w: column %q", ErrInvalidAddress, name)
		}
		col = col*26 + int(c-'A'+1)
	}
	return col - 1, nil
}

// ParseAddress parses a reference like "B3" or "$B$3". The $ markers are
// accepted and discarded.
func ParseAddress(ref string) (Address, error) {
	m := cellRefRe.FindStringSubmatch(strings.TrimSpace(ref))
	if m == nil {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, ref)
	}
	col, err := ColumnNameToIndex(m[1])
	if err != nil {
		return Address{}, err
	}
	row, err := strconv.Atoi(m[2])
	if err != nil || row < 1 {
		return Address{}, fmt.Errorf("%w: row in %q", ErrInvalidAddress, ref)
	}
	return Address{Col: col, Row: row - 1}, nil
}

// MustParseAddress is like ParseAddress but panics on error. Intended for tests
// and constant addresses.
func MustParseAddress(ref string) Address {
	a, err := ParseAddress(ref)
	if err != nil {
		panic(err)
	}
	return a
}

// MarshalText renders the address in A1 notation, which lets addresses key
// JSON objects.
func (a Address) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: (%d, %d)", ErrInvalidAddress, a.Col, a.Row)
	}
	return []byte(a.String()), nil
}

// UnmarshalText parses A1 notation.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
