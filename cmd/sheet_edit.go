package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/witanlabs/gridcalc/grid"
	"github.com/witanlabs/gridcalc/internal"
)

var editCells string

var editCmd = &cobra.Command{
	Use:   "edit <file> [address=value ...] [flags]",
	Short: "Set cell values and formulas",
	Long: `Set cell values or formulas in a grid and save the result.

Each edit is specified as address=value. Use a leading = for formulas (double =).
Formulas are stored as text and are not evaluated; use "sheet eval" for that.

Use --cells to pass a JSON array of edits. Positional edit args are not allowed
with --cells.

Examples:
  gridcalc sheet edit budget.xlsx A1=42
  gridcalc sheet edit budget.xlsx A1=42 B2=hello
  gridcalc sheet edit budget.xlsx "A3==SUM(A1:A2)"   # formula (double =)
  gridcalc sheet edit budget.xlsx D4=null            # clear cell
  gridcalc sheet edit budget.xlsx --cells '[{"address":"A1","value":"42"}]'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEdit,
}

func init() {
	editCmd.Flags().StringVar(&editCells, "cells", "", "JSON array of cell edits")
	sheetCmd.AddCommand(editCmd)
}

// editCell is one cell write.
type editCell struct {
	Address string `json:"address"`
	Value   string `json:"value"`
}

// parseEditCell parses "A1=42" into an edit. A value starting with "=" is a
// formula and keeps its leading "="; "null" clears the cell.
func parseEditCell(arg string) (grid.Address, string, error) {
	ref, value, ok := strings.Cut(arg, "=")
	if !ok {
		return grid.Address{}, "", fmt.Errorf("invalid edit %q: expected address=value", arg)
	}
	if ref == "" {
		return grid.Address{}, "", fmt.Errorf("invalid edit %q: empty address", arg)
	}
	a, err := grid.ParseAddress(ref)
	if err != nil {
		return grid.Address{}, "", fmt.Errorf("invalid edit %q: %w", arg, err)
	}
	if strings.EqualFold(value, "null") {
		value = ""
	}
	return a, value, nil
}

func runEdit(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	filePath := args[0]

	var cells []editCell
	if editCells != "" {
		if len(args) > 1 {
			return fmt.Errorf("positional edit args are not allowed with --cells")
		}
		if err := json.Unmarshal([]byte(editCells), &cells); err != nil {
			return fmt.Errorf("invalid --cells JSON: %w", err)
		}
		if len(cells) == 0 {
			return fmt.Errorf("--cells array must not be empty")
		}
	} else {
		if len(args) < 2 {
			return fmt.Errorf("at least one edit argument is required")
		}
		for _, arg := range args[1:] {
			a, value, err := parseEditCell(arg)
			if err != nil {
				return err
			}
			cells = append(cells, editCell{Address: a.String(), Value: value})
		}
	}

	d, err := loadDocument(filePath)
	if err != nil {
		return err
	}
	before := d.Grid
	for _, c := range cells {
		a, err := grid.ParseAddress(c.Address)
		if err != nil {
			return err
		}
		if err := d.Set(a, c.Value); err != nil {
			return fmt.Errorf("editing %s: %w", c.Address, err)
		}
	}
	changes, err := internal.DiffGrids(before, d.Grid)
	if err != nil {
		return err
	}
	if err := saveDocument(filePath, d); err != nil {
		return err
	}

	if jsonOutput {
		if changes == nil {
			changes = []internal.CellChange{}
		}
		return jsonPrint(map[string]any{"changed": changes})
	}
	fmt.Printf("Edit applied. %s changed.\n", plural(len(changes), "cell"))
	return nil
}
