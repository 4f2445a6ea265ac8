package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/witanlabs/gridcalc/formula"
	"github.com/witanlabs/gridcalc/internal"
)

var (
	fillFrom addressFlag
	fillTo   addressFlag
)

var fillCmd = &cobra.Command{
	Use:   "fill <file> --from <cell> --to <cell>",
	Short: "Drag-fill a cell over a range",
	Long: `Drag-fill the content of --from over the rectangle spanning --from and --to.

Fill policy is chosen by the seed cell:
  number   Each cell gets seed + row offset (A1=10 filled to A3 gives 10, 11, 12).
  formula  References are shifted by each cell's offset from the seed.
  text     Nothing is written.

The seed cell itself is left alone. Either every cell in the range is
written or, when the range leaves the grid, none is.

Examples:
  gridcalc sheet fill budget.xlsx --from A1 --to A10
  gridcalc sheet fill budget.xlsx --from C2 --to E2`,
	Args: cobra.ExactArgs(1),
	RunE: runFill,
}

func init() {
	fillCmd.Flags().Var(&fillFrom, "from", "Seed cell")
	fillCmd.Flags().Var(&fillTo, "to", "Opposite corner of the fill range")
	_ = fillCmd.MarkFlagRequired("from")
	_ = fillCmd.MarkFlagRequired("to")
	sheetCmd.AddCommand(fillCmd)
}

func runFill(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	filePath := args[0]

	d, err := loadDocument(filePath)
	if err != nil {
		return err
	}
	before := d.Grid
	seed := before.At(fillFrom.addr)
	if err := d.Fill(fillFrom.addr, fillTo.addr); err != nil {
		return fmt.Errorf("fill %s:%s: %w", fillFrom.addr, fillTo.addr, err)
	}
	changes, err := internal.DiffGrids(before, d.Grid)
	if err != nil {
		return err
	}
	if err := saveDocument(filePath, d); err != nil {
		return err
	}

	policy := formula.PolicyFor(seed)
	if jsonOutput {
		return jsonPrint(map[string]any{"policy": policy.String(), "changed": changes})
	}
	fmt.Printf("Filled %s to %s (%s). %s changed.\n", fillFrom.addr, fillTo.addr, policy, plural(len(changes), "cell"))
	return nil
}
