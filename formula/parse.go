// Package formula parses and evaluates the grid's formula language and
// rewrites the references inside formulas when they are copied or filled.
//
// A formula is any cell text beginning with "=". The language is small and
// fixed: aggregates over a range, text functions over one cell, two bulk
// edits over a range and binary arithmetic between two cells.
package formula

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/witanlabs/gridcalc/grid"
)

// ErrEvaluation marks a formula that matched no known form, an operand that
// is not a number, or a result that is mathematically undefined.
var ErrEvaluation = errors.New("evaluation error")

// Patterns are tried in this order; the first match classifies the formula.
var (
	aggregateRe   = regexp.MustCompile(`(?i)^(SUM|AVERAGE|MAX|MIN|COUNT|MEDIAN|MODE)\((.*?)\)$`)
	textFuncRe    = regexp.MustCompile(`(?i)^(TRIM|UPPER|LOWER)\((.*?)\)$`)
	removeDupRe   = regexp.MustCompile(`(?i)^REMOVE_DUPLICATES\((.*?)\)$`)
	findReplaceRe = regexp.MustCompile(`(?i)^FIND_AND_REPLACE\((.*?)\)$`)
	arithmeticRe  = regexp.MustCompile(`(?i)^(\$?[A-Z]+\$?[0-9]+)\s*([-+*/])\s*(\$?[A-Z]+\$?[0-9]+)$`)

	// refRe finds a cell reference anywhere inside a text-function argument.
	refRe = regexp.MustCompile(`(?i)\$?[A-Z]+\$?[0-9]+`)
)

// AggregateFunc names an aggregate over a range.
type AggregateFunc string

const (
	Sum     AggregateFunc = "SUM"
	Average AggregateFunc = "AVERAGE"
	Max     AggregateFunc = "MAX"
	Min     AggregateFunc = "MIN"
	Count   AggregateFunc = "COUNT"
	Median  AggregateFunc = "MEDIAN"
	Mode    AggregateFunc = "MODE"
)

// TextOp names a text function over a single cell.
type TextOp string

const (
	Trim  TextOp = "TRIM"
	Upper TextOp = "UPPER"
	Lower TextOp = "LOWER"
)

// Formula is the parsed form of a cell's text. It is one of Literal,
// Aggregate, TextFunc, RemoveDuplicates, FindReplace, Arithmetic or
// Unrecognized.
type Formula interface {
	formula()
}

// Literal is text that is not a formula. It evaluates to itself.
type Literal struct {
	Text string
}

// Aggregate is FUNC(range).
type Aggregate struct {
	Func  AggregateFunc
	Range grid.Range
}

// TextFunc is FUNC(ref).
type TextFunc struct {
	Func TextOp
	Ref  grid.Address
}

// RemoveDuplicates is REMOVE_DUPLICATES(range).
type RemoveDuplicates struct {
	Range grid.Range
}

// FindReplace is FIND_AND_REPLACE(range, "find", "replace").
type FindReplace struct {
	Range   grid.Range
	Find    string
	Replace string
}

// Ref is a cell operand. The absolute markers are recorded but do not change
// what the operand reads.
type Ref struct {
	grid.Address
	AbsCol bool
	AbsRow bool
}

// Arithmetic is ref op ref.
type Arithmetic struct {
	Left  Ref
	Op    byte
	Right Ref
}

// Unrecognized is formula text that cannot be evaluated. Err says why.
type Unrecognized struct {
	Content string
	Err     error
}

func (Literal) formula()          {}
func (Aggregate) formula()        {}
func (TextFunc) formula()         {}
func (RemoveDuplicates) formula() {}
func (FindReplace) formula()      {}
func (Arithmetic) formula()       {}
func (Unrecognized) formula()     {}

// IsFormula reports whether cell text is a formula.
func IsFormula(text string) bool {
	return strings.HasPrefix(text, "=")
}

// Parse classifies text. It never fails: text that is not a formula is a
// Literal and formulas that cannot be evaluated are Unrecognized.
func Parse(text string) Formula {
	if !IsFormula(text) {
		return Literal{Text: text}
	}
	content := strings.TrimSpace(text[1:])

	if m := aggregateRe.FindStringSubmatch(content); m != nil {
		r, err := grid.ParseRange(strings.TrimSpace(m[2]))
		if err != nil {
			return Unrecognized{Content: content, Err: err}
		}
		return Aggregate{Func: AggregateFunc(strings.ToUpper(m[1])), Range: r}
	}

	if m := textFuncRe.FindStringSubmatch(content); m != nil {
		tok := refRe.FindString(m[2])
		if tok == "" {
			return Unrecognized{Content: content, Err: fmt.Errorf("%w: no cell reference in %q", grid.ErrInvalidAddress, m[2])}
		}
		a, err := grid.ParseAddress(tok)
		if err != nil {
			return Unrecognized{Content: content, Err: err}
		}
		return TextFunc{Func: TextOp(strings.ToUpper(m[1])), Ref: a}
	}

	if m := removeDupRe.FindStringSubmatch(content); m != nil {
		r, err := grid.ParseRange(strings.TrimSpace(m[1]))
		if err != nil {
			return Unrecognized{Content: content, Err: err}
		}
		return RemoveDuplicates{Range: r}
	}

	if m := findReplaceRe.FindStringSubmatch(content); m != nil {
		f, err := parseFindReplace(m[1])
		if err != nil {
			return Unrecognized{Content: content, Err: err}
		}
		return f
	}

	if m := arithmeticRe.FindStringSubmatch(content); m != nil {
		left, err := parseRef(m[1])
		if err != nil {
			return Unrecognized{Content: content, Err: err}
		}
		right, err := parseRef(m[3])
		if err != nil {
			return Unrecognized{Content: content, Err: err}
		}
		return Arithmetic{Left: left, Op: m[2][0], Right: right}
	}

	return Unrecognized{Content: content, Err: fmt.Errorf("%w: unrecognized formula %q", ErrEvaluation, content)}
}

func parseRef(tok string) (Ref, error) {
	a, err := grid.ParseAddress(tok)
	if err != nil {
		return Ref{}, err
	}
	// "$A$1": a marker before the letters pins the column, one before the
	// digits pins the row.
	digits := strings.IndexAny(tok, "0123456789")
	return Ref{
		Address: a,
		AbsCol:  strings.HasPrefix(tok, "$"),
		AbsRow:  digits > 0 && tok[digits-1] == '$',
	}, nil
}

func parseFindReplace(args string) (FindReplace, error) {
	parts := splitArgs(args)
	if len(parts) != 3 {
		return FindReplace{}, fmt.Errorf("%w: FIND_AND_REPLACE takes 3 arguments, got %d", ErrEvaluation, len(parts))
	}
	r, err := grid.ParseRange(strings.TrimSpace(parts[0]))
	if err != nil {
		return FindReplace{}, err
	}
	return FindReplace{
		Range:   r,
		Find:    unquote(strings.TrimSpace(parts[1])),
		Replace: unquote(strings.TrimSpace(parts[2])),
	}, nil
}

// splitArgs splits on commas outside double quotes.
func splitArgs(s string) []string {
	var (
		parts   []string
		start   int
		inQuote bool
	)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuote = !inQuote
		case ',':
			if !inQuote {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// unquote strips one pair of surrounding double quotes; "" inside a quoted
// argument stands for a single quote character.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
	}
	return s
}
