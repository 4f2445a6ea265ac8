package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/witanlabs/gridcalc/formula"
	"github.com/witanlabs/gridcalc/grid"
	"github.com/witanlabs/gridcalc/internal"
	"github.com/witanlabs/gridcalc/workbook"
)

var (
	evalCell   addressFlag
	evalAll    bool
	evalVerify bool
)

var evalCmd = &cobra.Command{
	Use:   "eval <file> [formula]",
	Short: "Evaluate a formula; use --verify for non-mutating checks",
	Long: `Evaluate a formula against the grid in <file>.

Behavior:
  - Without --cell, the value is printed and the grid is left alone, except
    that REMOVE_DUPLICATES and FIND_AND_REPLACE write their replacement grid.
  - With --cell, the displayed value is written into that cell.
  - With --all, every formula stored in the grid is replaced by its value,
    row by row, as if each cell were committed in turn.
  - With --verify, <file> is not modified.
  - Returns exit code 2 when an evaluation yields ERROR.
  - With --verify, also returns exit code 2 when any cell would change.

Examples:
  gridcalc sheet eval budget.xlsx "=SUM(A1:A10)"
  gridcalc sheet eval budget.xlsx "=A1/B1" --cell C1
  gridcalc sheet eval budget.xlsx '=FIND_AND_REPLACE(A1:C9, "n/a", "")'
  gridcalc sheet eval budget.xlsx --all --verify`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runEval,
}

func init() {
	evalCmd.Flags().Var(&evalCell, "cell", "Cell to write the result into")
	evalCmd.Flags().BoolVar(&evalAll, "all", false, "Evaluate every formula cell in place")
	evalCmd.Flags().BoolVar(&evalVerify, "verify", false, "Do not modify the file; exit 2 if errors exist or any cell would change")
	sheetCmd.AddCommand(evalCmd)
}

type evalResult struct {
	Formula string       `json:"formula"`
	Cell    string       `json:"cell,omitempty"`
	Value   string       `json:"value"`
	Kind    formula.Kind `json:"kind"`
	Detail  string       `json:"detail,omitempty"`
}

type evalOutput struct {
	Results []evalResult          `json:"results"`
	Changed []internal.CellChange `json:"changed"`
	Errors  int                   `json:"errors"`
	Written bool                  `json:"written"`
}

func newEvalResult(text string, cell *grid.Address, v formula.Value) evalResult {
	r := evalResult{Formula: text, Value: v.String(), Kind: v.Kind}
	if cell != nil {
		r.Cell = cell.String()
	}
	if v.IsError() && v.Err != nil {
		r.Detail = v.Err.Error()
	}
	return r
}

func runEval(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	filePath := args[0]

	if evalAll && len(args) == 2 {
		return fmt.Errorf("--all evaluates the stored formulas; do not pass a formula as well")
	}
	if !evalAll && len(args) < 2 {
		return fmt.Errorf("a formula argument or --all is required")
	}
	if evalAll && evalCell.set {
		return fmt.Errorf("--cell and --all are mutually exclusive")
	}

	d, err := loadDocument(filePath)
	if err != nil {
		return err
	}
	before := d.Grid

	var results []evalResult
	switch {
	case evalAll:
		results, err = evaluateAll(d)
	case evalCell.set:
		var res workbook.Result
		res, err = d.Commit(evalCell.addr, args[1])
		results = append(results, newEvalResult(args[1], &evalCell.addr, res.Value))
	default:
		v, replacement := formula.Evaluate(args[1], d.Grid)
		if replacement != nil {
			d.Grid = *replacement
		}
		results = append(results, newEvalResult(args[1], nil, v))
	}
	if err != nil {
		return err
	}

	changes, err := internal.DiffGrids(before, d.Grid)
	if err != nil {
		return err
	}
	out := evalOutput{Results: results, Changed: changes}
	for _, r := range results {
		if r.Kind == formula.KindError {
			out.Errors++
		}
	}

	if !evalVerify && len(changes) > 0 {
		if err := saveDocument(filePath, d); err != nil {
			return err
		}
		out.Written = true
	}
	log.Debug().Int("results", len(results)).Int("changed", len(changes)).Bool("written", out.Written).Msg("eval finished")

	if jsonOutput {
		if out.Changed == nil {
			out.Changed = []internal.CellChange{}
		}
		if err := jsonPrint(out); err != nil {
			return err
		}
	} else {
		printEvalOutput(out, before.Rows()*before.Cols())
	}

	if out.Errors > 0 || (evalVerify && len(changes) > 0) {
		return &ExitError{Code: 2}
	}
	return nil
}

// evaluateAll commits every formula cell in row-major order. Later cells see
// the values written by earlier ones.
func evaluateAll(d *workbook.Document) ([]evalResult, error) {
	var results []evalResult
	bounds, ok := d.Grid.Bounds()
	if !ok {
		return nil, nil
	}
	for _, a := range bounds.Cells() {
		text := d.Grid.At(a)
		res, evaluated, err := d.EvaluateCell(a)
		if err != nil {
			return nil, err
		}
		if evaluated {
			results = append(results, newEvalResult(text, &a, res.Value))
		}
	}
	return results, nil
}

func printEvalOutput(out evalOutput, total int) {
	if len(out.Results) == 1 && out.Results[0].Cell == "" {
		fmt.Println(out.Results[0].Value)
	} else {
		for _, r := range out.Results {
			detail := ""
			if r.Detail != "" {
				detail = " ← " + r.Detail
			}
			fmt.Printf("%-8s %-30s %s%s\n", r.Cell, r.Formula, r.Value, detail)
		}
		fmt.Printf("\n%s evaluated, %s\n", plural(len(out.Results), "formula"), plural(out.Errors, "error"))
	}
	if len(out.Changed) > 0 {
		fmt.Print(internal.FormatChanges(out.Changed))
	}
	if evalVerify {
		fmt.Println(internal.FormatDiffSummary(len(out.Changed), total))
	}
}
