package formula

import (
	"fmt"
	"math"
	"strconv"
)

// ErrorText is what every failed evaluation displays as.
const ErrorText = "ERROR"

// Status strings returned by the bulk operations.
const (
	StatusDuplicatesRemoved = "Duplicates Removed"
	StatusReplaced          = "Find and Replace Completed"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindText Kind = iota
	KindNumber
	KindStatus
	KindError
)

var kindNames = map[Kind]string{
	KindText:   "text",
	KindNumber: "number",
	KindStatus: "status",
	KindError:  "error",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// MarshalText encodes the kind by name for JSON replies.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name written by MarshalText.
func (k *Kind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown value kind %q", text)
}

// Value is the scalar result of one evaluation.
type Value struct {
	Kind   Kind
	Number float64
	Text   string
	// Err explains a KindError value. It is never shown to users, who only
	// see ErrorText.
	Err error
}

// Number wraps a numeric result.
func Number(f float64) Value { return Value{Kind: KindNumber, Number: f} }

// Text wraps a text result.
func Text(s string) Value { return Value{Kind: KindText, Text: s} }

// Status wraps the fixed message of a bulk operation.
func Status(s string) Value { return Value{Kind: KindStatus, Text: s} }

// Errorf builds an error value. The cause should wrap ErrEvaluation or one
// of the grid errors.
func Errorf(format string, args ...any) Value {
	return Value{Kind: KindError, Err: fmt.Errorf(format, args...)}
}

// IsError reports whether v is the ERROR sentinel.
func (v Value) IsError() bool { return v.Kind == KindError }

// String is the text a cell displays for v.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return FormatNumber(v.Number)
	case KindError:
		return ErrorText
	default:
		return v.Text
	}
}

// FormatNumber renders f in its shortest decimal form: 6, 2.5, -0.125.
// Very large and very small magnitudes use exponent notation.
func FormatNumber(f float64) string {
	if f == 0 {
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
