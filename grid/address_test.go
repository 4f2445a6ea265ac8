package grid

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestColumnIndexToName(t *testing.T) {
	tests := []struct {
		col  int
		want string
	}{
		{0, "A"},
		{25, "Z"},
		{26, "AA"},
		{51, "AZ"},
		{701, "ZZ"},
		{702, "AAA"},
		{16383, "XFD"},
	}
	for _, tt := range tests {
		if got := ColumnIndexToName(tt.col); got != tt.want {
			t.Errorf("ColumnIndexToName(%d) = %q, want %q", tt.col, got, tt.want)
		}
	}
}

func TestColumnNameToIndex(t *testing.T) {
	tests := []struct {
		name    string
		want    int
		wantErr bool
	}{
		{"A", 0, false},
		{"z", 25, false},
		{"AA", 26, false},
		{"aZ", 51, false},
		{"XFD", 16383, false},
		{"", 0, true},
		{"A1", 0, true},
		{"$A", 0, true},
		{"ÄB", 0, true},
		{strings.Repeat("A", 13), 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ColumnNameToIndex(tt.name)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAddress) {
					t.Fatalf("ColumnNameToIndex(%q) error = %v, want ErrInvalidAddress", tt.name, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", tt.name, err)
			}
			if got != tt.want {
				t.Errorf("ColumnNameToIndex(%q) = %d, want %d", tt.name, got, tt.want)
			}
		})
	}
}

func TestColumnRoundTrip(t *testing.T) {
	for n := 0; n < 20000; n++ {
		got, err := ColumnNameToIndex(ColumnIndexToName(n))
		if err != nil || got != n {
			t.Fatalf("round trip of %d gave %d, %v", n, got, err)
		}
	}
	for _, s := range []string{"a", "Ab", "zz", "ZzZ", "xfd", "BCDE"} {
		n, err := ColumnNameToIndex(s)
		if err != nil {
			t.Fatalf("ColumnNameToIndex(%q): %v", s, err)
		}
		if got := ColumnIndexToName(n); got != strings.ToUpper(s) {
			t.Errorf("round trip of %q gave %q", s, got)
		}
	}
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		input   string
		want    Address
		wantErr bool
	}{
		{"A1", Address{Col: 0, Row: 0}, false},
		{"b3", Address{Col: 1, Row: 2}, false},
		{"$C$10", Address{Col: 2, Row: 9}, false},
		{"AA$2", Address{Col: 26, Row: 1}, false},
		{" D4 ", Address{Col: 3, Row: 3}, false},
		{"A0", Address{}, true},
		{"1A", Address{}, true},
		{"A", Address{}, true},
		{"A1B", Address{}, true},
		{"", Address{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAddress(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAddress) {
					t.Fatalf("expected ErrInvalidAddress for %q, got %v", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseAddress(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestAddressString(t *testing.T) {
	a := Address{Col: 27, Row: 99}
	if got, want := a.String(), "AB100"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got, want := a.Offset(-1, 1).String(), "AC99"; got != want {
		t.Errorf("Offset String() = %q, want %q", got, want)
	}
}

func TestAddressJSONKey(t *testing.T) {
	in := map[Address]int{MustParseAddress("B2"): 1}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), `{"B2":1}`; got != want {
		t.Fatalf("Marshal = %s, want %s", got, want)
	}
	var out map[Address]int
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out[Address{Col: 1, Row: 1}] != 1 {
		t.Errorf("Unmarshal lost key: %v", out)
	}
}
