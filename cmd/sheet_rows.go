package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/witanlabs/gridcalc/grid"
	"github.com/witanlabs/gridcalc/workbook"
)

var rowCmd = &cobra.Command{
	Use:   "row",
	Short: "Add or delete rows",
}

var colCmd = &cobra.Command{
	Use:   "col",
	Short: "Add or delete columns",
}

var rowAddCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Append an empty row",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return resize(cmd, args[0], func(d *workbook.Document) (string, error) {
			d.AddRow()
			return fmt.Sprintf("Added row %d.", d.Grid.Rows()), nil
		})
	},
}

var rowDeleteCmd = &cobra.Command{
	Use:   "delete <file> <row>",
	Short: "Delete a row; rows below move up",
	Long: `Delete a row by its 1-based number. Rows below it move up along with their
styles. Formula text in other cells is not rewritten.

A .csv file cannot record a grid with columns but no rows, so deleting the
last row of a .csv grid fails to save.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid row number %q", args[1])
		}
		return resize(cmd, args[0], func(d *workbook.Document) (string, error) {
			if err := d.DeleteRow(n - 1); err != nil {
				return "", fmt.Errorf("delete row %d: %w", n, err)
			}
			return fmt.Sprintf("Deleted row %d.", n), nil
		})
	},
}

var colAddCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Append an empty column",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return resize(cmd, args[0], func(d *workbook.Document) (string, error) {
			d.AddColumn()
			return fmt.Sprintf("Added column %s.", grid.ColumnIndexToName(d.Grid.Cols()-1)), nil
		})
	},
}

var colDeleteCmd = &cobra.Command{
	Use:   "delete <file> <column>",
	Short: "Delete a column; columns to the right move left",
	Long: `Delete a column given by letters (C) or 1-based number (3). Columns to its
right move left along with their styles.

Deleting the last column of a .csv grid fails to save for the same reason
as deleting its last row.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := parseColumn(args[1])
		if err != nil {
			return err
		}
		return resize(cmd, args[0], func(d *workbook.Document) (string, error) {
			name := grid.ColumnIndexToName(index)
			if err := d.DeleteColumn(index); err != nil {
				return "", fmt.Errorf("delete column %s: %w", name, err)
			}
			return fmt.Sprintf("Deleted column %s.", name), nil
		})
	},
}

func init() {
	rowCmd.AddCommand(rowAddCmd, rowDeleteCmd)
	colCmd.AddCommand(colAddCmd, colDeleteCmd)
	sheetCmd.AddCommand(rowCmd, colCmd)
}

// parseColumn accepts column letters or a 1-based column number and returns
// the 0-based index.
func parseColumn(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 {
			return 0, fmt.Errorf("invalid column number %d", n)
		}
		return n - 1, nil
	}
	return grid.ColumnNameToIndex(s)
}

// resize loads a document, applies op and saves it back.
func resize(cmd *cobra.Command, filePath string, op func(*workbook.Document) (string, error)) error {
	cmd.SilenceUsage = true
	d, err := loadDocument(filePath)
	if err != nil {
		return err
	}
	msg, err := op(d)
	if err != nil {
		return err
	}
	if err := saveDocument(filePath, d); err != nil {
		return err
	}
	if jsonOutput {
		return jsonPrint(map[string]int{"rows": d.Grid.Rows(), "cols": d.Grid.Cols()})
	}
	fmt.Printf("%s Grid is now %d×%d.\n", msg, d.Grid.Rows(), d.Grid.Cols())
	return nil
}
