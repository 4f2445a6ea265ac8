package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/witanlabs/gridcalc/formula"
	"github.com/witanlabs/gridcalc/workbook"
)

var (
	newRows  int
	newCols  int
	newForce bool

	showRange  rangeFlag
	showValues bool
)

var newCmd = &cobra.Command{
	Use:   "new <file>",
	Short: "Create an empty grid",
	Long: `Create an empty grid file. The format follows the extension (.xlsx, .csv, .json).

The size defaults to the [sheet] section of the config file (10 rows by 5
columns unless configured).`,
	Args: cobra.ExactArgs(1),
	RunE: runNew,
}

var showCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Print the cells of a grid",
	Long: `Print the cells of a grid as a table.

Stored text is printed as-is. With --values, formula cells show the value
they would evaluate to; the file is never modified.

Examples:
  gridcalc sheet show budget.xlsx
  gridcalc sheet show budget.xlsx -r B2:D10 --values`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	newCmd.Flags().IntVar(&newRows, "rows", 0, "Number of rows (default from config)")
	newCmd.Flags().IntVar(&newCols, "cols", 0, "Number of columns (default from config)")
	newCmd.Flags().BoolVar(&newForce, "force", false, "Overwrite an existing file")
	showCmd.Flags().VarP(&showRange, "range", "r", "Range to print, e.g. A1:C5")
	showCmd.Flags().BoolVar(&showValues, "values", false, "Show evaluated values instead of formula text")
	sheetCmd.AddCommand(newCmd, showCmd)
}

func runNew(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	filePath := args[0]

	if _, err := os.Stat(filePath); err == nil && !newForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", filePath)
	}
	cfg := loadConfig()
	rows, cols := cfg.Sheet.Rows, cfg.Sheet.Cols
	if newRows > 0 {
		rows = newRows
	}
	if newCols > 0 {
		cols = newCols
	}
	if err := saveDocument(filePath, workbook.New(rows, cols)); err != nil {
		return err
	}
	if jsonOutput {
		return jsonPrint(map[string]any{"file": filePath, "rows": rows, "cols": cols})
	}
	fmt.Printf("Created %s (%d×%d).\n", filePath, rows, cols)
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	d, err := loadDocument(args[0])
	if err != nil {
		return err
	}
	g := d.Grid
	if showValues {
		ed := g.Edit()
		bounds, _ := g.Bounds()
		for _, a := range bounds.Cells() {
			if text := g.At(a); formula.IsFormula(text) {
				v, _ := formula.Evaluate(text, g)
				ed.Set(a.Row, a.Col, v.String())
			}
		}
		g = ed.Grid()
	}

	r, ok := g.Bounds()
	if showRange.set {
		r, ok = g.Clip(showRange.r)
	}

	if jsonOutput {
		snap := workbook.FromGrid(g).Snapshot()
		snap.Styles = d.Styles
		if showRange.set {
			rows := [][]string{}
			for row := r.Start.Row; ok && row <= r.End.Row; row++ {
				rows = append(rows, snap.Rows[row][r.Start.Col:r.End.Col+1])
			}
			snap.Rows = rows
		}
		return jsonPrint(snap)
	}
	if !ok {
		fmt.Println("(empty)")
		return nil
	}
	return printGrid(os.Stdout, g, r)
}
