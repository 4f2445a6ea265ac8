package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/witanlabs/gridcalc/grid"
)

// ExitError signals a non-zero exit code without printing an error message.
type ExitError struct{ Code int }

func (e *ExitError) Error() string { return "" }

func jsonPrint(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printGrid writes the cells of r as a table with column letters across the
// top and row numbers down the side.
func printGrid(w io.Writer, g grid.Grid, r grid.Range) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := []string{""}
	for col := r.Start.Col; col <= r.End.Col; col++ {
		header = append(header, grid.ColumnIndexToName(col))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for row := r.Start.Row; row <= r.End.Row; row++ {
		line := []string{fmt.Sprint(row + 1)}
		for col := r.Start.Col; col <= r.End.Col; col++ {
			line = append(line, g.Value(row, col))
		}
		fmt.Fprintln(tw, strings.Join(line, "\t"))
	}
	return tw.Flush()
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
