package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/witanlabs/gridcalc/grid"
	"github.com/witanlabs/gridcalc/workbook"
)

var jsonOutput bool

var (
	_ pflag.Value = (*addressFlag)(nil)
	_ pflag.Value = (*rangeFlag)(nil)
)

var sheetCmd = &cobra.Command{
	Use:   "sheet",
	Short: "Grid commands",
	Long: `Operate on grids stored as .xlsx, .csv or .json snapshots.

Commands:
  new      Create an empty grid.
  show     Print the cells of a grid.
  eval     Evaluate a formula against a grid, optionally writing the result.
  edit     Set cell values or formulas.
  fill     Drag-fill a cell over a range.
  adjust   Shift the references in a formula.
  refs     List the cells a formula reads.
  row/col  Add or delete rows and columns.
  style    Toggle cell styles.
  columns  Convert between column numbers and letters.

Output:
  default  Human-friendly summaries
  --json   JSON for automation

Examples:
  gridcalc sheet new budget.xlsx
  gridcalc sheet edit budget.xlsx A1=10 A2=20 "A3==SUM(A1:A2)"
  gridcalc sheet eval budget.xlsx "=SUM(A1:A2)" --cell B1
  gridcalc sheet --json show budget.xlsx -r A1:C5`,
}

func init() {
	sheetCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-formatted summaries")
	rootCmd.AddCommand(sheetCmd)
}

// addressFlag is a pflag.Value holding one cell address.
type addressFlag struct {
	addr grid.Address
	set  bool
}

func (f *addressFlag) String() string {
	if !f.set {
		return ""
	}
	return f.addr.String()
}

func (f *addressFlag) Set(s string) error {
	a, err := grid.ParseAddress(s)
	if err != nil {
		return err
	}
	f.addr, f.set = a, true
	return nil
}

func (f *addressFlag) Type() string { return "address" }

// rangeFlag is a pflag.Value holding one range such as A1:C5.
type rangeFlag struct {
	r   grid.Range
	set bool
}

func (f *rangeFlag) String() string {
	if !f.set {
		return ""
	}
	return f.r.String()
}

func (f *rangeFlag) Set(s string) error {
	r, err := grid.ParseRange(s)
	if err != nil {
		return err
	}
	f.r, f.set = r, true
	return nil
}

func (f *rangeFlag) Type() string { return "range" }

func loadDocument(path string) (*workbook.Document, error) {
	d, err := workbook.Load(path)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("file", path).Int("rows", d.Grid.Rows()).Int("cols", d.Grid.Cols()).Msg("loaded grid")
	return d, nil
}

func saveDocument(path string, d *workbook.Document) error {
	if err := workbook.Save(path, d); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	log.Debug().Str("file", path).Msg("saved grid")
	return nil
}
