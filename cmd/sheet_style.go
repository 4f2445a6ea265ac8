package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/witanlabs/gridcalc/grid"
)

var (
	styleBold   bool
	styleItalic bool
	styleSize   string
	styleColor  string
	styleSet    []string
)

var styleCmd = &cobra.Command{
	Use:   "style <file> <cell|range>",
	Short: "Toggle cell styles",
	Long: `Toggle presentation attributes on a cell or every cell of a range.

Applying a value a cell already has turns the attribute back to "normal",
the way a toolbar bold button does. Styles are kept in .xlsx and .json
files; .csv files cannot hold them.

Examples:
  gridcalc sheet style budget.xlsx A1 --bold
  gridcalc sheet style budget.xlsx A1:C1 --bold --color "#1f4e79"
  gridcalc sheet style budget.json B2 --set fontSize=18px`,
	Args: cobra.ExactArgs(2),
	RunE: runStyle,
}

func init() {
	styleCmd.Flags().BoolVar(&styleBold, "bold", false, "Toggle bold")
	styleCmd.Flags().BoolVar(&styleItalic, "italic", false, "Toggle italic")
	styleCmd.Flags().StringVar(&styleSize, "size", "", "Font size, e.g. 18px")
	styleCmd.Flags().StringVar(&styleColor, "color", "", "Text color, e.g. #ff0000")
	styleCmd.Flags().StringArrayVar(&styleSet, "set", nil, "Attribute as name=value (fontWeight, fontStyle, fontSize, color); repeatable")
	sheetCmd.AddCommand(styleCmd)
}

type styleChange struct {
	attr  grid.Attribute
	value string
}

func styleChanges() ([]styleChange, error) {
	var changes []styleChange
	if styleBold {
		changes = append(changes, styleChange{grid.FontWeight, "bold"})
	}
	if styleItalic {
		changes = append(changes, styleChange{grid.FontStyle, "italic"})
	}
	if styleSize != "" {
		changes = append(changes, styleChange{grid.FontSize, styleSize})
	}
	if styleColor != "" {
		changes = append(changes, styleChange{grid.Color, styleColor})
	}
	for _, kv := range styleSet {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || value == "" {
			return nil, fmt.Errorf("invalid --set %q: expected name=value", kv)
		}
		attr, err := grid.ParseAttribute(name)
		if err != nil {
			return nil, err
		}
		changes = append(changes, styleChange{attr, value})
	}
	if len(changes) == 0 {
		return nil, fmt.Errorf("no style given (use --bold, --italic, --size, --color or --set)")
	}
	return changes, nil
}

// parseTarget reads a single cell or a range.
func parseTarget(s string) (grid.Range, error) {
	if strings.Contains(s, ":") {
		return grid.ParseRange(s)
	}
	a, err := grid.ParseAddress(s)
	if err != nil {
		return grid.Range{}, err
	}
	return grid.NewRange(a, a), nil
}

func runStyle(cmd *cobra.Command, args []string) error {
	filePath := args[0]
	target, err := parseTarget(args[1])
	if err != nil {
		return err
	}
	changes, err := styleChanges()
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	d, err := loadDocument(filePath)
	if err != nil {
		return err
	}
	for _, a := range target.Cells() {
		for _, c := range changes {
			if err := d.ApplyStyle(a, c.attr, c.value); err != nil {
				return err
			}
		}
	}
	if err := saveDocument(filePath, d); err != nil {
		return err
	}

	if jsonOutput {
		styles := grid.Styles{}
		for _, a := range target.Cells() {
			if st, ok := d.Styles[a]; ok {
				styles[a] = st
			}
		}
		return jsonPrint(map[string]any{"styles": styles})
	}
	fmt.Printf("Styled %s.\n", plural(len(target.Cells()), "cell"))
	return nil
}
