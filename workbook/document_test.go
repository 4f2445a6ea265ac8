package workbook

import (
	"errors"
	"testing"

	"github.com/witanlabs/gridcalc/formula"
	"github.com/witanlabs/gridcalc/grid"
)

func TestCommit(t *testing.T) {
	d := FromGrid(grid.FromRows([][]string{{"1", ""}, {"2", ""}, {"3", ""}}))
	res, err := d.Commit(grid.MustParseAddress("B1"), "=SUM(A1:A3)")
	if err != nil {
		t.Fatal(err)
	}
	if res.Value.String() != "6" || res.Replaced {
		t.Errorf("result = %+v", res)
	}
	if got := d.Grid.Value(0, 1); got != "6" {
		t.Errorf("B1 = %q, want 6", got)
	}
}

func TestCommitBulk(t *testing.T) {
	d := FromGrid(grid.FromRows([][]string{{"x", ""}, {"x", ""}, {"y", ""}}))
	res, err := d.Commit(grid.MustParseAddress("B1"), "=REMOVE_DUPLICATES(A1:A3)")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Replaced {
		t.Errorf("expected a replaced grid")
	}
	want := grid.FromRows([][]string{{"x", formula.StatusDuplicatesRemoved}, {"", ""}, {"y", ""}})
	if !d.Grid.Equal(want) {
		t.Errorf("grid = %q, want %q", d.Grid.Snapshot(), want.Snapshot())
	}
}

func TestCommitError(t *testing.T) {
	d := FromGrid(grid.FromRows([][]string{{"1", "0", ""}}))
	res, err := d.Commit(grid.MustParseAddress("C1"), "=A1/B1")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Value.IsError() || d.Grid.Value(0, 2) != formula.ErrorText {
		t.Errorf("C1 = %q, result %+v", d.Grid.Value(0, 2), res)
	}
	if _, err := d.Commit(grid.MustParseAddress("Z9"), "=A1"); !errors.Is(err, grid.ErrOutOfBounds) {
		t.Errorf("commit outside grid: err = %v", err)
	}
}

func TestEvaluateCell(t *testing.T) {
	d := FromGrid(grid.FromRows([][]string{{"4", "5", "=A1*B1", "text"}}))
	res, ok, err := d.EvaluateCell(grid.MustParseAddress("C1"))
	if err != nil || !ok {
		t.Fatalf("EvaluateCell = %v, %v", ok, err)
	}
	if res.Value.Number != 20 || d.Grid.Value(0, 2) != "20" {
		t.Errorf("C1 = %q", d.Grid.Value(0, 2))
	}
	if _, ok, err := d.EvaluateCell(grid.MustParseAddress("D1")); ok || err != nil {
		t.Errorf("plain text cell: ok=%v err=%v", ok, err)
	}
}

func TestDocumentDeleteRowMovesStyles(t *testing.T) {
	d := New(3, 2)
	if err := d.ApplyStyle(grid.MustParseAddress("A3"), grid.FontWeight, "bold"); err != nil {
		t.Fatal(err)
	}
	if err := d.DeleteRow(0); err != nil {
		t.Fatal(err)
	}
	if d.Grid.Rows() != 2 {
		t.Errorf("rows = %d", d.Grid.Rows())
	}
	if !d.Styles[grid.MustParseAddress("A2")].Bold() {
		t.Errorf("style did not follow its cell: %v", d.Styles)
	}
	if err := d.DeleteRow(5); !errors.Is(err, grid.ErrOutOfBounds) {
		t.Errorf("DeleteRow(5) err = %v", err)
	}
}

func TestDocumentDeleteColumnMovesStyles(t *testing.T) {
	d := New(1, 3)
	if err := d.ApplyStyle(grid.MustParseAddress("C1"), grid.Color, "#00ff00"); err != nil {
		t.Fatal(err)
	}
	if err := d.DeleteColumn(1); err != nil {
		t.Fatal(err)
	}
	if got := d.Styles[grid.MustParseAddress("B1")].Color; got != "#00ff00" {
		t.Errorf("style did not follow its cell: %v", d.Styles)
	}
}

func TestDocumentFill(t *testing.T) {
	d := FromGrid(grid.FromRows([][]string{{"10"}, {""}, {""}}))
	if err := d.Fill(grid.MustParseAddress("A1"), grid.MustParseAddress("A3")); err != nil {
		t.Fatal(err)
	}
	if got := d.Grid.Value(2, 0); got != "12" {
		t.Errorf("A3 = %q, want 12", got)
	}
}

func TestApplyStyleOutsideGrid(t *testing.T) {
	d := New(DefaultRows, DefaultCols)
	if err := d.ApplyStyle(grid.MustParseAddress("F1"), grid.FontWeight, "bold"); !errors.Is(err, grid.ErrOutOfBounds) {
		t.Errorf("err = %v, want ErrOutOfBounds", err)
	}
}

func TestClone(t *testing.T) {
	d := New(2, 2)
	_ = d.ApplyStyle(grid.MustParseAddress("A1"), grid.FontStyle, "italic")
	c := d.Clone()
	_ = c.Set(grid.MustParseAddress("A1"), "changed")
	c.Styles[grid.MustParseAddress("B2")] = grid.Style{Color: "red"}
	if d.Grid.Value(0, 0) != "" || len(d.Styles) != 1 {
		t.Errorf("clone shares state with original")
	}
}
