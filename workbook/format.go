package workbook

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for files that are neither xlsx, csv nor a
// JSON snapshot, including legacy binary .xls workbooks.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrShapeLost is returned when a format cannot record the grid's size,
// such as csv for a grid with columns but no rows.
var ErrShapeLost = errors.New("format cannot keep the grid size")

// Format is an interchange format for a Document.
type Format int

const (
	FormatUnknown Format = iota
	FormatXLSX           // ZIP-based OOXML workbook (magic: 504b0304)
	FormatCSV
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatXLSX:
		return "xlsx"
	case FormatCSV:
		return "csv"
	case FormatJSON:
		return "json"
	default:
		return "unknown"
	}
}

// ParseFormat maps a format name such as "xlsx" to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "xlsx", "xlsm":
		return FormatXLSX, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	}
	return FormatUnknown, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// FormatForPath picks the format from the file extension.
func FormatForPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

var (
	zipMagic  = []byte{0x50, 0x4b, 0x03, 0x04}
	ole2Magic = []byte{0xd0, 0xcf, 0x11, 0xe0}
)

// sniff classifies the first bytes of a file. It only recognizes the binary
// containers; text formats come back as FormatUnknown.
func sniff(header []byte) (Format, error) {
	if len(header) < 4 {
		return FormatUnknown, nil
	}
	switch {
	case string(header[:4]) == string(zipMagic):
		return FormatXLSX, nil
	case string(header[:4]) == string(ole2Magic):
		return FormatUnknown, fmt.Errorf("%w: legacy binary .xls workbook, save it as .xlsx", ErrUnsupportedFormat)
	}
	return FormatUnknown, nil
}

// DetectFormat returns the format of the file at path. The content wins over
// the extension when they disagree, so an .xls that is really OOXML opens as
// xlsx.
func DetectFormat(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, err
	}
	defer f.Close()

	buf := make([]byte, 8)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return FormatUnknown, err
	}

	format, err := sniff(buf[:n])
	if err != nil || format != FormatUnknown {
		return format, err
	}
	byExt, err := FormatForPath(path)
	if err != nil {
		return FormatUnknown, err
	}
	if byExt == FormatXLSX {
		return FormatUnknown, fmt.Errorf("%w: %s is not a zip-based workbook", ErrUnsupportedFormat, filepath.Base(path))
	}
	return byExt, nil
}
