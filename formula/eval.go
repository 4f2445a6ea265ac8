package formula

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/witanlabs/gridcalc/grid"
)

// Evaluate computes text against g. It is total: every failure yields the
// ERROR value, never a panic or an error return.
//
// The returned grid is non-nil only for the bulk operations, REMOVE_DUPLICATES
// and FIND_AND_REPLACE. It is a full replacement for g; g itself is never
// modified.
func Evaluate(text string, g grid.Grid) (v Value, replacement *grid.Grid) {
	defer func() {
		if r := recover(); r != nil {
			v, replacement = Errorf("%w: evaluating %q: %v", ErrEvaluation, text, r), nil
		}
	}()
	return Eval(Parse(text), g)
}

// Eval evaluates an already parsed formula. See Evaluate.
func Eval(f Formula, g grid.Grid) (Value, *grid.Grid) {
	switch f := f.(type) {
	case Literal:
		return Text(f.Text), nil
	case Aggregate:
		return evalAggregate(f, g), nil
	case TextFunc:
		return evalTextFunc(f, g), nil
	case RemoveDuplicates:
		out := removeDuplicates(g, f.Range)
		return Status(StatusDuplicatesRemoved), &out
	case FindReplace:
		out := findAndReplace(g, f)
		return Status(StatusReplaced), &out
	case Arithmetic:
		return evalArithmetic(f, g), nil
	case Unrecognized:
		return Value{Kind: KindError, Err: f.Err}, nil
	default:
		return Errorf("%w: unhandled formula %T", ErrEvaluation, f), nil
	}
}

func evalAggregate(f Aggregate, g grid.Grid) Value {
	nums := grid.Numbers(g.Resolve(f.Range))
	var (
		n  float64
		ok = true
	)
	switch f.Func {
	case Sum:
		n = sum(nums)
	case Average:
		n = average(nums)
	case Max:
		n, ok = maximum(nums)
	case Min:
		n, ok = minimum(nums)
	case Count:
		n = float64(len(nums))
	case Median:
		n, ok = median(nums)
	case Mode:
		n, ok = mode(nums)
	default:
		return Errorf("%w: unknown function %s", ErrEvaluation, f.Func)
	}
	if !ok {
		return Errorf("%w: %s of %s has no numeric values", ErrEvaluation, f.Func, f.Range)
	}
	return finite(n)
}

func evalTextFunc(f TextFunc, g grid.Grid) Value {
	s := g.At(f.Ref)
	switch f.Func {
	case Trim:
		return Text(strings.TrimSpace(s))
	case Upper:
		return Text(cases.Upper(language.Und).String(s))
	case Lower:
		return Text(cases.Lower(language.Und).String(s))
	default:
		return Errorf("%w: unknown function %s", ErrEvaluation, f.Func)
	}
}

func evalArithmetic(f Arithmetic, g grid.Grid) Value {
	a, ok := grid.ParseNumber(g.At(f.Left.Address))
	if !ok {
		return Errorf("%w: %s is not a number", ErrEvaluation, f.Left.Address)
	}
	b, ok := grid.ParseNumber(g.At(f.Right.Address))
	if !ok {
		return Errorf("%w: %s is not a number", ErrEvaluation, f.Right.Address)
	}
	switch f.Op {
	case '+':
		return finite(a + b)
	case '-':
		return finite(a - b)
	case '*':
		return finite(a * b)
	case '/':
		if b == 0 {
			return Errorf("%w: division by zero", ErrEvaluation)
		}
		return finite(a / b)
	default:
		return Errorf("%w: unknown operator %q", ErrEvaluation, f.Op)
	}
}

func finite(n float64) Value {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return Errorf("%w: result %v is not finite", ErrEvaluation, n)
	}
	return Number(n)
}

// removeDuplicates blanks every row of r whose cells, within r's columns,
// repeat an earlier row of r. The first occurrence is kept.
func removeDuplicates(g grid.Grid, r grid.Range) grid.Grid {
	r, ok := g.Clip(r)
	if !ok {
		return g
	}
	seen := make(map[string]struct{})
	ed := g.Edit()
	for row := r.Start.Row; row <= r.End.Row; row++ {
		key := rowKey(g, row, r.Start.Col, r.End.Col)
		if _, dup := seen[key]; !dup {
			seen[key] = struct{}{}
			continue
		}
		for col := r.Start.Col; col <= r.End.Col; col++ {
			ed.Set(row, col, "")
		}
	}
	return ed.Grid()
}

// rowKey quotes each cell so that no two different rows share a key, whatever
// separators the cell text contains.
func rowKey(g grid.Grid, row, from, to int) string {
	var buf []byte
	for col := from; col <= to; col++ {
		buf = strconv.AppendQuote(buf, g.Value(row, col))
	}
	return string(buf)
}

func findAndReplace(g grid.Grid, f FindReplace) grid.Grid {
	r, ok := g.Clip(f.Range)
	if !ok {
		return g
	}
	ed := g.Edit()
	for _, a := range r.Cells() {
		if g.At(a) == f.Find {
			ed.Set(a.Row, a.Col, f.Replace)
		}
	}
	return ed.Grid()
}

// Describe renders a parsed formula for diagnostics.
func Describe(f Formula) string {
	switch f := f.(type) {
	case Literal:
		return fmt.Sprintf("literal %q", f.Text)
	case Aggregate:
		return fmt.Sprintf("%s over %s", f.Func, f.Range)
	case TextFunc:
		return fmt.Sprintf("%s of %s", f.Func, f.Ref)
	case RemoveDuplicates:
		return fmt.Sprintf("REMOVE_DUPLICATES over %s", f.Range)
	case FindReplace:
		return fmt.Sprintf("FIND_AND_REPLACE %q with %q over %s", f.Find, f.Replace, f.Range)
	case Arithmetic:
		return fmt.Sprintf("%s %c %s", f.Left.Address, f.Op, f.Right.Address)
	case Unrecognized:
		return fmt.Sprintf("unrecognized: %v", f.Err)
	default:
		return fmt.Sprintf("%T", f)
	}
}
