package workbook

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/witanlabs/gridcalc/grid"
)

// Snapshot is the JSON form of a document. It is also the shape the session
// server sends to front ends.
type Snapshot struct {
	Rows   [][]string  `json:"rows"`
	Styles grid.Styles `json:"styles,omitempty"`
}

// Snapshot returns a deep copy of the document in its JSON form.
func (d *Document) Snapshot() Snapshot {
	return Snapshot{Rows: d.Grid.Snapshot(), Styles: d.Clone().Styles}
}

// FromSnapshot builds a document from its JSON form. Ragged rows are padded.
func FromSnapshot(s Snapshot) *Document {
	d := FromGrid(grid.FromRows(s.Rows))
	for a, st := range s.Styles {
		d.Styles[a] = st
	}
	return d
}

// Decode reads a document in the given format.
func Decode(r io.Reader, format Format) (*Document, error) {
	switch format {
	case FormatXLSX:
		return decodeXLSX(r)
	case FormatCSV:
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		rows, err := cr.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		return FromGrid(grid.FromRows(rows)), nil
	case FormatJSON:
		var s Snapshot
		if err := json.NewDecoder(r).Decode(&s); err != nil {
			return nil, fmt.Errorf("reading snapshot: %w", err)
		}
		return FromSnapshot(s), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

// Encode writes a document in the given format. CSV carries no styles.
func Encode(w io.Writer, d *Document, format Format) error {
	switch format {
	case FormatXLSX:
		return encodeXLSX(w, d)
	case FormatCSV:
		return encodeCSV(w, d.Grid)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(d.Snapshot())
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

// encodeCSV writes one record per row. A row holding a single empty cell
// is written as "" since csv readers skip blank lines.
func encodeCSV(w io.Writer, g grid.Grid) error {
	if (g.Rows() == 0) != (g.Cols() == 0) {
		return fmt.Errorf("%w: csv cannot hold a %d×%d grid", ErrShapeLost, g.Rows(), g.Cols())
	}
	cw := csv.NewWriter(w)
	for _, record := range g.Snapshot() {
		if len(record) == 1 && record[0] == "" {
			cw.Flush()
			if _, err := io.WriteString(w, "\"\"\n"); err != nil {
				return fmt.Errorf("writing csv: %w", err)
			}
			continue
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing csv: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}

// Load reads the document at path, detecting its format from content and
// extension.
func Load(path string) (*Document, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	d, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return d, nil
}

// Save writes the document to path in the format its extension names. The
// file is replaced atomically: readers see either the old or the new
// content.
func Save(path string, d *Document) error {
	format, err := FormatForPath(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".gridcalc-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := Encode(tmp, d, format); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
