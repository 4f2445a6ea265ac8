package server

import (
	"github.com/witanlabs/gridcalc/grid"
	"github.com/witanlabs/gridcalc/internal"
)

// Websocket operations.
const (
	OpSnapshot     = "snapshot"
	OpGet          = "get"
	OpSet          = "set"
	OpEvaluate     = "evaluate"
	OpAdjust       = "adjust"
	OpFill         = "fill"
	OpAddRow       = "add_row"
	OpDeleteRow    = "delete_row"
	OpAddColumn    = "add_column"
	OpDeleteColumn = "delete_column"
	OpStyle        = "style"
	OpReferences   = "references"
)

// Request is one message from a front end. Which fields are read depends on
// Op:
//
//	snapshot                   (none)
//	get                        Cell
//	set                        Cell, Value
//	evaluate                   Formula, optional Cell; with Cell and no
//	                           Formula the stored formula at Cell is evaluated
//	adjust                     Formula, Rows, Cols
//	fill                       From, To
//	add_row, add_column        (none)
//	delete_row, delete_column  Index (0-based)
//	style                      Cell, Attribute, Value
//	references                 Formula
type Request struct {
	ID        int64         `json:"id"`
	Op        string        `json:"op"`
	Cell      *grid.Address `json:"cell,omitempty"`
	From      *grid.Address `json:"from,omitempty"`
	To        *grid.Address `json:"to,omitempty"`
	Value     string        `json:"value,omitempty"`
	Formula   string        `json:"formula,omitempty"`
	Rows      int           `json:"rows,omitempty"`
	Cols      int           `json:"cols,omitempty"`
	Index     int           `json:"index,omitempty"`
	Attribute string        `json:"attribute,omitempty"`
}

// Reply answers the Request with the same ID. ID 0 is the greeting sent when
// a session opens; it carries the session ID and the initial snapshot.
type Reply struct {
	ID      int64  `json:"id"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Session string `json:"session,omitempty"`

	Value    string                `json:"value,omitempty"`
	Kind     string                `json:"kind,omitempty"`
	Formula  string                `json:"formula,omitempty"`
	Replaced bool                  `json:"replaced,omitempty"`
	Rows     [][]string            `json:"rows,omitempty"`
	Styles   grid.Styles           `json:"styles,omitempty"`
	Refs     []grid.Range          `json:"refs,omitempty"`
	Changed  []internal.CellChange `json:"changed,omitempty"`
}
