package server

import (
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/witanlabs/gridcalc/formula"
	"github.com/witanlabs/gridcalc/grid"
	"github.com/witanlabs/gridcalc/workbook"
)

func addr(ref string) *grid.Address {
	a := grid.MustParseAddress(ref)
	return &a
}

func newTestSession(rows ...[]string) *Session {
	return NewSession(workbook.FromGrid(grid.FromRows(rows)))
}

func TestSessionOps(t *testing.T) {
	tests := []struct {
		name  string
		req   Request
		check func(t *testing.T, r Reply)
	}{
		{
			name: "get",
			req:  Request{Op: OpGet, Cell: addr("B1")},
			check: func(t *testing.T, r Reply) {
				if r.Value != "2" {
					t.Errorf("value = %q, want 2", r.Value)
				}
			},
		},
		{
			name: "evaluate without cell",
			req:  Request{Op: OpEvaluate, Formula: "=SUM(A1:B2)"},
			check: func(t *testing.T, r Reply) {
				if r.Value != "10" || r.Kind != "number" || len(r.Changed) != 0 {
					t.Errorf("reply = %+v", r)
				}
			},
		},
		{
			name: "evaluate into cell",
			req:  Request{Op: OpEvaluate, Cell: addr("C1"), Formula: "=A1*B2"},
			check: func(t *testing.T, r Reply) {
				if r.Value != "4" || len(r.Changed) != 1 || r.Changed[0].Cell.String() != "C1" {
					t.Errorf("reply = %+v", r)
				}
			},
		},
		{
			name: "stored formula",
			req:  Request{Op: OpEvaluate, Cell: addr("C2")},
			check: func(t *testing.T, r Reply) {
				if r.Value != "7" || len(r.Changed) != 1 {
					t.Errorf("reply = %+v", r)
				}
			},
		},
		{
			name: "plain cell left alone",
			req:  Request{Op: OpEvaluate, Cell: addr("A1")},
			check: func(t *testing.T, r Reply) {
				if r.Value != "1" || r.Kind != "text" || r.Changed != nil {
					t.Errorf("reply = %+v", r)
				}
			},
		},
		{
			name: "adjust",
			req:  Request{Op: OpAdjust, Formula: "=A1+B2", Rows: 1, Cols: 1},
			check: func(t *testing.T, r Reply) {
				if r.Formula != "=B2+C3" {
					t.Errorf("formula = %q", r.Formula)
				}
			},
		},
		{
			name: "references",
			req:  Request{Op: OpReferences, Formula: "=SUM(A1:B2)+C1"},
			check: func(t *testing.T, r Reply) {
				want := []grid.Range{
					{Start: grid.MustParseAddress("A1"), End: grid.MustParseAddress("B2")},
					{Start: grid.MustParseAddress("C1"), End: grid.MustParseAddress("C1")},
				}
				if !reflect.DeepEqual(r.Refs, want) {
					t.Errorf("refs = %v, want %v", r.Refs, want)
				}
			},
		},
		{
			name: "add row",
			req:  Request{Op: OpAddRow},
			check: func(t *testing.T, r Reply) {
				if len(r.Rows) != 3 {
					t.Errorf("rows = %d, want 3", len(r.Rows))
				}
			},
		},
		{
			name: "delete column",
			req:  Request{Op: OpDeleteColumn, Index: 0},
			check: func(t *testing.T, r Reply) {
				if len(r.Rows[0]) != 2 || r.Rows[0][0] != "2" {
					t.Errorf("rows = %q", r.Rows)
				}
			},
		},
		{
			name: "style",
			req:  Request{Op: OpStyle, Cell: addr("A1"), Attribute: "fontWeight", Value: "bold"},
			check: func(t *testing.T, r Reply) {
				if !r.Styles[grid.MustParseAddress("A1")].Bold() {
					t.Errorf("styles = %v", r.Styles)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession([]string{"1", "2", ""}, []string{"3", "4", "=A2+B2"})
			tt.req.ID = 7
			r := s.Handle(tt.req)
			if !r.OK || r.ID != 7 {
				t.Fatalf("reply = %+v", r)
			}
			tt.check(t, r)
		})
	}
}

func TestSessionErrors(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{"unknown op", Request{Op: "explode"}, "unknown op"},
		{"get without cell", Request{Op: OpGet}, "missing cell"},
		{"set outside grid", Request{Op: OpSet, Cell: addr("Z9"), Value: "x"}, "out of bounds"},
		{"delete missing row", Request{Op: OpDeleteRow, Index: 5}, "out of bounds"},
		{"fill outside grid", Request{Op: OpFill, From: addr("A1"), To: addr("A9")}, "out of bounds"},
		{"fill without target", Request{Op: OpFill, From: addr("A1")}, "needs from and to"},
		{"bad attribute", Request{Op: OpStyle, Cell: addr("A1"), Attribute: "border"}, "unknown style attribute"},
		{"commit outside grid", Request{Op: OpEvaluate, Cell: addr("Z9"), Formula: "=A1"}, "out of bounds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession([]string{"1", "2"})
			before := s.Snapshot()
			r := s.Handle(tt.req)
			if r.OK {
				t.Fatalf("expected failure, got %+v", r)
			}
			if !strings.Contains(r.Error, tt.want) {
				t.Errorf("error = %q, want it to contain %q", r.Error, tt.want)
			}
			if after := s.Snapshot(); !reflect.DeepEqual(after, before) {
				t.Errorf("document changed: %v -> %v", before, after)
			}
		})
	}
}

func TestSessionBulkEvaluate(t *testing.T) {
	s := newTestSession([]string{"x", ""}, []string{"x", ""}, []string{"y", ""})
	r := s.Handle(Request{Op: OpEvaluate, Cell: addr("B1"), Formula: "=REMOVE_DUPLICATES(A1:A3)"})
	if !r.OK || !r.Replaced || r.Value != formula.StatusDuplicatesRemoved {
		t.Fatalf("reply = %+v", r)
	}
	want := [][]string{{"x", formula.StatusDuplicatesRemoved}, {"", ""}, {"y", ""}}
	if got := s.Snapshot().Rows; !reflect.DeepEqual(got, want) {
		t.Errorf("rows = %q, want %q", got, want)
	}
	if len(r.Changed) != 2 {
		t.Errorf("changed = %+v, want A2 and B1", r.Changed)
	}
}

func TestSessionIsolatedFromSeed(t *testing.T) {
	seed := workbook.New(2, 2)
	a := NewSession(seed)
	b := NewSession(seed)
	if a.ID == b.ID {
		t.Fatal("sessions share an ID")
	}
	a.Handle(Request{Op: OpSet, Cell: addr("A1"), Value: "mine"})
	if got := b.Snapshot().Rows[0][0]; got != "" {
		t.Errorf("other session sees %q", got)
	}
	if got := seed.Grid.Value(0, 0); got != "" {
		t.Errorf("seed changed to %q", got)
	}
}

func TestSessionConcurrentSets(t *testing.T) {
	s := NewSession(workbook.New(1, 1))
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Handle(Request{ID: int64(i), Op: OpAddRow})
		}()
	}
	wg.Wait()
	if got := len(s.Snapshot().Rows); got != 51 {
		t.Errorf("rows = %d, want 51", got)
	}
}
