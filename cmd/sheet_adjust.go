package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/witanlabs/gridcalc/formula"
	"github.com/witanlabs/gridcalc/grid"
)

var (
	adjustRows int
	adjustCols int
)

var adjustCmd = &cobra.Command{
	Use:   "adjust <formula>",
	Short: "Shift the references in a formula",
	Long: `Shift every cell reference in a formula by --rows and --cols, as when a
formula is copied to another cell. References pushed above row 1 or left of
column A become #REF!.

Examples:
  gridcalc sheet adjust "=A1+B1" --rows 1         # =A2+B2
  gridcalc sheet adjust "=SUM(B2:B9)" --cols -1   # =SUM(A2:A9)`,
	Args: cobra.ExactArgs(1),
	RunE: runAdjust,
}

var refsCmd = &cobra.Command{
	Use:   "refs <formula>",
	Short: "List the cells a formula reads",
	Long: `List the cells and ranges a formula reads, in the order they appear.

Examples:
  gridcalc sheet refs "=SUM(A1:A10)+B2"`,
	Args: cobra.ExactArgs(1),
	RunE: runRefs,
}

func init() {
	adjustCmd.Flags().IntVar(&adjustRows, "rows", 0, "Rows to shift by (negative moves up)")
	adjustCmd.Flags().IntVar(&adjustCols, "cols", 0, "Columns to shift by (negative moves left)")
	sheetCmd.AddCommand(adjustCmd, refsCmd)
}

func runAdjust(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	out := formula.Adjust(args[0], adjustRows, adjustCols)
	if jsonOutput {
		return jsonPrint(map[string]string{"formula": out})
	}
	fmt.Println(out)
	return nil
}

func runRefs(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	refs := formula.References(args[0])
	if jsonOutput {
		if refs == nil {
			refs = []grid.Range{}
		}
		return jsonPrint(map[string]any{"refs": refs})
	}
	if len(refs) == 0 {
		fmt.Println("No references.")
		return nil
	}
	for _, r := range refs {
		fmt.Println(r)
	}
	return nil
}
