package cmd

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/witanlabs/gridcalc/grid"
	"github.com/witanlabs/gridcalc/workbook"
)

// resetSheetTestGlobals restores every flag variable the sheet commands read.
func resetSheetTestGlobals(t *testing.T) {
	origJSONOutput := jsonOutput
	origEvalCell, origEvalAll, origEvalVerify := evalCell, evalAll, evalVerify
	origEditCells := editCells
	origFillFrom, origFillTo := fillFrom, fillTo
	origAdjustRows, origAdjustCols := adjustRows, adjustCols
	origShowRange, origShowValues := showRange, showValues
	origNewRows, origNewCols, origNewForce := newRows, newCols, newForce
	origStyleBold, origStyleItalic, origStyleSize, origStyleColor, origStyleSet := styleBold, styleItalic, styleSize, styleColor, styleSet

	t.Cleanup(func() {
		jsonOutput = origJSONOutput
		evalCell, evalAll, evalVerify = origEvalCell, origEvalAll, origEvalVerify
		editCells = origEditCells
		fillFrom, fillTo = origFillFrom, origFillTo
		adjustRows, adjustCols = origAdjustRows, origAdjustCols
		showRange, showValues = origShowRange, origShowValues
		newRows, newCols, newForce = origNewRows, origNewCols, origNewForce
		styleBold, styleItalic, styleSize, styleColor, styleSet = origStyleBold, origStyleItalic, origStyleSize, origStyleColor, origStyleSet
	})

	jsonOutput = false
	evalCell, evalAll, evalVerify = addressFlag{}, false, false
	editCells = ""
	fillFrom, fillTo = addressFlag{}, addressFlag{}
	adjustRows, adjustCols = 0, 0
	showRange, showValues = rangeFlag{}, false
	newRows, newCols, newForce = 0, 0, false
	styleBold, styleItalic, styleSize, styleColor, styleSet = false, false, "", "", nil

	t.Setenv("GRIDCALC_CONFIG_DIR", t.TempDir())
}

func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()
	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("creating stdout pipe: %v", err)
	}
	os.Stdout = w

	runErr := fn()

	if closeErr := w.Close(); closeErr != nil {
		t.Fatalf("closing write pipe: %v", closeErr)
	}
	os.Stdout = orig

	out, readErr := io.ReadAll(r)
	if readErr != nil {
		t.Fatalf("reading captured stdout: %v", readErr)
	}
	if closeErr := r.Close(); closeErr != nil {
		t.Fatalf("closing read pipe: %v", closeErr)
	}
	return string(out), runErr
}

// writeGrid saves rows as a JSON snapshot in a temp dir and returns its path.
func writeGrid(t *testing.T, rows ...[]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grid.json")
	if err := workbook.Save(path, workbook.FromGrid(grid.FromRows(rows))); err != nil {
		t.Fatalf("writing grid: %v", err)
	}
	return path
}

func readGrid(t *testing.T, path string) [][]string {
	t.Helper()
	d, err := workbook.Load(path)
	if err != nil {
		t.Fatalf("reading grid: %v", err)
	}
	return d.Grid.Snapshot()
}

func exitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if err != nil {
		return 1
	}
	return 0
}

func TestAddressFlag(t *testing.T) {
	var f addressFlag
	if f.String() != "" {
		t.Errorf("unset flag String() = %q", f.String())
	}
	if err := f.Set("$c$12"); err != nil {
		t.Fatal(err)
	}
	if !f.set || f.String() != "C12" {
		t.Errorf("flag = %+v", f)
	}
	if err := f.Set("12C"); !errors.Is(err, grid.ErrInvalidAddress) {
		t.Errorf("Set(12C) err = %v", err)
	}

	var r rangeFlag
	if err := r.Set("B3:A1"); err != nil {
		t.Fatal(err)
	}
	if r.String() != "A1:B3" {
		t.Errorf("range = %s, want A1:B3", r.String())
	}
	if err := r.Set("A1"); !errors.Is(err, grid.ErrMalformedRange) {
		t.Errorf("Set(A1) err = %v", err)
	}
}

func TestRunEval_PrintsValueWithoutWriting(t *testing.T) {
	resetSheetTestGlobals(t)
	path := writeGrid(t, []string{"1"}, []string{"2"}, []string{"3"})

	out, err := captureStdout(t, func() error {
		return runEval(&cobra.Command{}, []string{path, "=SUM(A1:A3)"})
	})
	if err != nil {
		t.Fatalf("runEval: %v", err)
	}
	if strings.TrimSpace(out) != "6" {
		t.Errorf("output = %q, want 6", out)
	}
	if got := readGrid(t, path); got[0][0] != "1" || len(got) != 3 {
		t.Errorf("grid changed: %q", got)
	}
}

func TestRunEval_CellWritesResult(t *testing.T) {
	resetSheetTestGlobals(t)
	path := writeGrid(t, []string{"4", "5", ""})
	if err := evalCell.Set("C1"); err != nil {
		t.Fatal(err)
	}
	jsonOutput = true

	out, err := captureStdout(t, func() error {
		return runEval(&cobra.Command{}, []string{path, "=A1*B1"})
	})
	if err != nil {
		t.Fatalf("runEval: %v", err)
	}
	var got evalOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	if !got.Written || len(got.Changed) != 1 || got.Results[0].Value != "20" {
		t.Errorf("output = %+v", got)
	}
	if c := readGrid(t, path)[0][2]; c != "20" {
		t.Errorf("C1 = %q, want 20", c)
	}
}

func TestRunEval_ErrorExitsTwo(t *testing.T) {
	resetSheetTestGlobals(t)
	path := writeGrid(t, []string{"1", "0"})

	out, err := captureStdout(t, func() error {
		return runEval(&cobra.Command{}, []string{path, "=A1/B1"})
	})
	if code := exitCode(err); code != 2 {
		t.Fatalf("exit code = %d (%v), want 2", code, err)
	}
	if strings.TrimSpace(out) != "ERROR" {
		t.Errorf("output = %q", out)
	}
}

func TestRunEval_BulkOperationWritesGrid(t *testing.T) {
	resetSheetTestGlobals(t)
	path := writeGrid(t, []string{"n/a", "1"}, []string{"2", "n/a"})

	_, err := captureStdout(t, func() error {
		return runEval(&cobra.Command{}, []string{path, `=FIND_AND_REPLACE(A1:B2, "n/a", "0")`})
	})
	if err != nil {
		t.Fatalf("runEval: %v", err)
	}
	want := [][]string{{"0", "1"}, {"2", "0"}}
	if got := readGrid(t, path); !reflect.DeepEqual(got, want) {
		t.Errorf("grid = %q, want %q", got, want)
	}
}

func TestRunEval_AllVerify(t *testing.T) {
	resetSheetTestGlobals(t)
	path := writeGrid(t, []string{"2", "3", "=A1+B1"}, []string{"=SUM(A1:C1)", "", ""})
	evalAll, evalVerify = true, true

	out, err := captureStdout(t, func() error {
		return runEval(&cobra.Command{}, []string{path})
	})
	if code := exitCode(err); code != 2 {
		t.Fatalf("exit code = %d (%v), want 2 because cells would change", code, err)
	}
	if !strings.Contains(out, "2 formulas evaluated, 0 errors") {
		t.Errorf("output = %q", out)
	}
	// the second formula sees the value committed by the first
	if !strings.Contains(out, `A2: "=SUM(A1:C1)" -> "10"`) {
		t.Errorf("output = %q", out)
	}
	if got := readGrid(t, path); got[0][2] != "=A1+B1" {
		t.Errorf("--verify wrote the file: %q", got)
	}
}

func TestRunEval_ArgumentErrors(t *testing.T) {
	resetSheetTestGlobals(t)
	path := writeGrid(t, []string{"1"})
	if err := runEval(&cobra.Command{}, []string{path}); err == nil {
		t.Error("expected error without formula or --all")
	}
	evalAll = true
	if err := runEval(&cobra.Command{}, []string{path, "=A1"}); err == nil {
		t.Error("expected error for --all with a formula")
	}
}

func TestRunEdit(t *testing.T) {
	resetSheetTestGlobals(t)
	path := writeGrid(t, []string{"old", "x"}, []string{"", ""})

	out, err := captureStdout(t, func() error {
		return runEdit(&cobra.Command{}, []string{path, "A1=42", "B1=null", "A2==SUM(A1:A1)"})
	})
	if err != nil {
		t.Fatalf("runEdit: %v", err)
	}
	if !strings.Contains(out, "3 cells changed") {
		t.Errorf("output = %q", out)
	}
	want := [][]string{{"42", ""}, {"=SUM(A1:A1)", ""}}
	if got := readGrid(t, path); !reflect.DeepEqual(got, want) {
		t.Errorf("grid = %q, want %q", got, want)
	}
}

func TestRunEdit_CellsJSON(t *testing.T) {
	resetSheetTestGlobals(t)
	path := writeGrid(t, []string{"", ""})
	editCells = `[{"address":"B1","value":"=A1"}]`

	if _, err := captureStdout(t, func() error {
		return runEdit(&cobra.Command{}, []string{path})
	}); err != nil {
		t.Fatalf("runEdit: %v", err)
	}
	if got := readGrid(t, path)[0][1]; got != "=A1" {
		t.Errorf("B1 = %q", got)
	}

	if err := runEdit(&cobra.Command{}, []string{path, "A1=1"}); err == nil {
		t.Error("expected error mixing --cells and positional edits")
	}
}

func TestRunEdit_OutsideGrid(t *testing.T) {
	resetSheetTestGlobals(t)
	path := writeGrid(t, []string{""})
	err := runEdit(&cobra.Command{}, []string{path, "C3=1"})
	if !errors.Is(err, grid.ErrOutOfBounds) {
		t.Errorf("err = %v, want ErrOutOfBounds", err)
	}
}

func TestRunFill(t *testing.T) {
	resetSheetTestGlobals(t)
	path := writeGrid(t, []string{"=A2*2", "7"}, []string{"", ""}, []string{"", ""})
	_ = fillFrom.Set("B1")
	_ = fillTo.Set("B3")

	out, err := captureStdout(t, func() error {
		return runFill(&cobra.Command{}, []string{path})
	})
	if err != nil {
		t.Fatalf("runFill: %v", err)
	}
	if !strings.Contains(out, "(linear)") {
		t.Errorf("output = %q", out)
	}
	got := readGrid(t, path)
	if got[1][1] != "8" || got[2][1] != "9" {
		t.Errorf("grid = %q", got)
	}

	_ = fillFrom.Set("A1")
	_ = fillTo.Set("A3")
	if _, err := captureStdout(t, func() error {
		return runFill(&cobra.Command{}, []string{path})
	}); err != nil {
		t.Fatalf("runFill: %v", err)
	}
	got = readGrid(t, path)
	if got[1][0] != "=A3*2" || got[2][0] != "=A4*2" {
		t.Errorf("grid = %q", got)
	}

	_ = fillTo.Set("A9")
	if err := runFill(&cobra.Command{}, []string{path}); !errors.Is(err, grid.ErrOutOfBounds) {
		t.Errorf("err = %v, want ErrOutOfBounds", err)
	}
}

func TestRunAdjustAndRefs(t *testing.T) {
	resetSheetTestGlobals(t)
	adjustRows, adjustCols = 1, 1
	out, err := captureStdout(t, func() error {
		return runAdjust(&cobra.Command{}, []string{"=A1+B2"})
	})
	if err != nil || strings.TrimSpace(out) != "=B2+C3" {
		t.Errorf("adjust = %q, %v", out, err)
	}

	jsonOutput = true
	out, err = captureStdout(t, func() error {
		return runRefs(&cobra.Command{}, []string{"=SUM(A1:B3)/C1"})
	})
	if err != nil {
		t.Fatal(err)
	}
	var got struct{ Refs []string }
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	if want := []string{"A1:B3", "C1:C1"}; !reflect.DeepEqual(got.Refs, want) {
		t.Errorf("refs = %q, want %q", got.Refs, want)
	}
}

func TestRunNewAndShow(t *testing.T) {
	resetSheetTestGlobals(t)
	path := filepath.Join(t.TempDir(), "fresh.json")
	newRows, newCols = 2, 3

	if _, err := captureStdout(t, func() error {
		return runNew(&cobra.Command{}, []string{path})
	}); err != nil {
		t.Fatalf("runNew: %v", err)
	}
	got := readGrid(t, path)
	if len(got) != 2 || len(got[0]) != 3 {
		t.Fatalf("grid = %q, want 2x3", got)
	}
	if err := runNew(&cobra.Command{}, []string{path}); err == nil {
		t.Error("expected error when the file exists")
	}

	showPath := writeGrid(t, []string{"1", "2"}, []string{"=A1+B1", "x"})
	showValues = true
	out, err := captureStdout(t, func() error {
		return runShow(&cobra.Command{}, []string{showPath})
	})
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 || strings.Fields(lines[0])[0] != "A" || strings.Fields(lines[2])[1] != "3" {
		t.Errorf("output:\n%s", out)
	}
	if got := readGrid(t, showPath)[1][0]; got != "=A1+B1" {
		t.Errorf("show modified the file: %q", got)
	}

	jsonOutput, showValues = true, false
	_ = showRange.Set("B1:B2")
	out, err = captureStdout(t, func() error {
		return runShow(&cobra.Command{}, []string{showPath})
	})
	if err != nil {
		t.Fatal(err)
	}
	var snap workbook.Snapshot
	if err := json.Unmarshal([]byte(out), &snap); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	if want := [][]string{{"2"}, {"x"}}; !reflect.DeepEqual(snap.Rows, want) {
		t.Errorf("rows = %q, want %q", snap.Rows, want)
	}
}

func TestNewUsesConfiguredSize(t *testing.T) {
	resetSheetTestGlobals(t)
	dir := t.TempDir()
	t.Setenv("GRIDCALC_CONFIG_DIR", dir)
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[sheet]\nrows = 4\ncols = 2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "sized.json")
	if _, err := captureStdout(t, func() error {
		return runNew(&cobra.Command{}, []string{path})
	}); err != nil {
		t.Fatal(err)
	}
	if got := readGrid(t, path); len(got) != 4 || len(got[0]) != 2 {
		t.Errorf("grid = %dx%d, want 4x2", len(got), len(got[0]))
	}
}

func TestRunStyle(t *testing.T) {
	resetSheetTestGlobals(t)
	path := writeGrid(t, []string{"a", "b"}, []string{"c", "d"})
	styleBold = true
	styleSet = []string{"color=#ff0000"}

	if _, err := captureStdout(t, func() error {
		return runStyle(&cobra.Command{}, []string{path, "A1:B1"})
	}); err != nil {
		t.Fatalf("runStyle: %v", err)
	}
	d, err := workbook.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, ref := range []string{"A1", "B1"} {
		st := d.Styles[grid.MustParseAddress(ref)]
		if !st.Bold() || st.Color != "#ff0000" {
			t.Errorf("%s style = %+v", ref, st)
		}
	}
	if _, ok := d.Styles[grid.MustParseAddress("A2")]; ok {
		t.Error("A2 was styled")
	}

	// applying bold again toggles it off
	styleSet = nil
	if _, err := captureStdout(t, func() error {
		return runStyle(&cobra.Command{}, []string{path, "A1"})
	}); err != nil {
		t.Fatal(err)
	}
	d, _ = workbook.Load(path)
	if st := d.Styles[grid.MustParseAddress("A1")]; st.FontWeight != "normal" {
		t.Errorf("A1 weight = %q, want normal", st.FontWeight)
	}

	styleBold = false
	if err := runStyle(&cobra.Command{}, []string{path, "A1"}); err == nil {
		t.Error("expected error without any style flag")
	}
	styleSet = []string{"border=1px"}
	if err := runStyle(&cobra.Command{}, []string{path, "A1"}); err == nil {
		t.Error("expected error for unknown attribute")
	}
}

func TestResizeCommands(t *testing.T) {
	resetSheetTestGlobals(t)
	path := writeGrid(t, []string{"a", "b", "c"}, []string{"d", "e", "f"})

	run := func(c *cobra.Command, args ...string) error {
		_, err := captureStdout(t, func() error { return c.RunE(c, args) })
		return err
	}
	if err := run(rowAddCmd, path); err != nil {
		t.Fatal(err)
	}
	if err := run(colDeleteCmd, path, "B"); err != nil {
		t.Fatal(err)
	}
	if err := run(rowDeleteCmd, path, "1"); err != nil {
		t.Fatal(err)
	}
	if err := run(colAddCmd, path); err != nil {
		t.Fatal(err)
	}
	want := [][]string{{"d", "f", ""}, {"", "", ""}}
	if got := readGrid(t, path); !reflect.DeepEqual(got, want) {
		t.Errorf("grid = %q, want %q", got, want)
	}

	if err := run(rowDeleteCmd, path, "0"); err == nil {
		t.Error("expected error for row 0")
	}
	if err := run(colDeleteCmd, path, "Z"); !errors.Is(err, grid.ErrOutOfBounds) {
		t.Errorf("err = %v, want ErrOutOfBounds", err)
	}
}

func TestConvertColumn(t *testing.T) {
	tests := []struct {
		arg     string
		want    columnResult
		wantErr bool
	}{
		{"0", columnResult{0, "A"}, false},
		{"25", columnResult{25, "Z"}, false},
		{"26", columnResult{26, "AA"}, false},
		{"701", columnResult{701, "ZZ"}, false},
		{"aa", columnResult{26, "AA"}, false},
		{"-1", columnResult{}, true},
		{"A1", columnResult{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := convertColumn(tt.arg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("convertColumn(%q) = %+v, want %+v", tt.arg, got, tt.want)
			}
		})
	}
}
