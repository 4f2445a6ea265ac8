package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/witanlabs/gridcalc/grid"
)

var columnsCmd = &cobra.Command{
	Use:   "columns <number|letters>...",
	Short: "Convert between column numbers and letters",
	Long: `Convert 0-based column numbers to letters and letters back to numbers.

Examples:
  gridcalc sheet columns 0 25 26 701   # A Z AA ZZ
  gridcalc sheet columns AA zz         # 26 701`,
	Args: cobra.MinimumNArgs(1),
	RunE: runColumns,
}

func init() {
	sheetCmd.AddCommand(columnsCmd)
}

type columnResult struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

func convertColumn(arg string) (columnResult, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 0 {
			return columnResult{}, fmt.Errorf("%w: negative column index %d", grid.ErrInvalidAddress, n)
		}
		return columnResult{Index: n, Name: grid.ColumnIndexToName(n)}, nil
	}
	n, err := grid.ColumnNameToIndex(arg)
	if err != nil {
		return columnResult{}, err
	}
	return columnResult{Index: n, Name: grid.ColumnIndexToName(n)}, nil
}

func runColumns(cmd *cobra.Command, args []string) error {
	var results []columnResult
	for _, arg := range args {
		r, err := convertColumn(arg)
		if err != nil {
			return err
		}
		results = append(results, r)
	}
	cmd.SilenceUsage = true
	if jsonOutput {
		return jsonPrint(results)
	}
	for i, r := range results {
		if _, err := strconv.Atoi(args[i]); err == nil {
			fmt.Println(r.Name)
		} else {
			fmt.Println(r.Index)
		}
	}
	return nil
}
