package server

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/witanlabs/gridcalc/formula"
	"github.com/witanlabs/gridcalc/grid"
	"github.com/witanlabs/gridcalc/internal"
	"github.com/witanlabs/gridcalc/workbook"
)

var errMissingCell = errors.New("missing cell")

// Session is the document behind one websocket connection. Handle may be
// called from several goroutines; operations are applied one at a time.
type Session struct {
	ID uuid.UUID

	mu  sync.Mutex
	doc *workbook.Document
}

// NewSession starts a session on its own copy of seed.
func NewSession(seed *workbook.Document) *Session {
	return &Session{ID: uuid.New(), doc: seed.Clone()}
}

// Snapshot returns the current document.
func (s *Session) Snapshot() workbook.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Snapshot()
}

// Greeting is the first message of a session.
func (s *Session) Greeting() Reply {
	snap := s.Snapshot()
	return Reply{OK: true, Session: s.ID.String(), Rows: snap.Rows, Styles: snap.Styles}
}

// Handle applies one request and builds its reply. Failures are reported in
// the reply, never as a Go error, and leave the document unchanged.
func (s *Session) Handle(req Request) Reply {
	s.mu.Lock()
	defer s.mu.Unlock()

	reply, err := s.apply(req)
	reply.ID = req.ID
	if err != nil {
		return Reply{ID: req.ID, Error: err.Error()}
	}
	reply.OK = true
	return reply
}

func (s *Session) apply(req Request) (Reply, error) {
	d := s.doc
	before := d.Grid

	switch req.Op {
	case OpSnapshot:
		return s.snapshotReply(), nil

	case OpGet:
		if req.Cell == nil {
			return Reply{}, errMissingCell
		}
		text, err := d.Grid.Get(req.Cell.Row, req.Cell.Col)
		if err != nil {
			return Reply{}, fmt.Errorf("get %s: %w", req.Cell, err)
		}
		return Reply{Value: text}, nil

	case OpSet:
		if req.Cell == nil {
			return Reply{}, errMissingCell
		}
		if err := d.Set(*req.Cell, req.Value); err != nil {
			return Reply{}, fmt.Errorf("set %s: %w", req.Cell, err)
		}
		return s.changedReply(before, Reply{Value: req.Value})

	case OpEvaluate:
		return s.evaluate(req, before)

	case OpAdjust:
		return Reply{Formula: formula.Adjust(req.Formula, req.Rows, req.Cols)}, nil

	case OpFill:
		if req.From == nil || req.To == nil {
			return Reply{}, errors.New("fill needs from and to")
		}
		if err := d.Fill(*req.From, *req.To); err != nil {
			return Reply{}, err
		}
		return s.changedReply(before, Reply{})

	case OpAddRow:
		d.AddRow()
		return s.snapshotReply(), nil

	case OpAddColumn:
		d.AddColumn()
		return s.snapshotReply(), nil

	case OpDeleteRow:
		if err := d.DeleteRow(req.Index); err != nil {
			return Reply{}, fmt.Errorf("delete row %d: %w", req.Index, err)
		}
		return s.snapshotReply(), nil

	case OpDeleteColumn:
		if err := d.DeleteColumn(req.Index); err != nil {
			return Reply{}, fmt.Errorf("delete column %d: %w", req.Index, err)
		}
		return s.snapshotReply(), nil

	case OpStyle:
		if req.Cell == nil {
			return Reply{}, errMissingCell
		}
		attr, err := grid.ParseAttribute(req.Attribute)
		if err != nil {
			return Reply{}, err
		}
		if err := d.ApplyStyle(*req.Cell, attr, req.Value); err != nil {
			return Reply{}, err
		}
		return Reply{Styles: grid.Styles{*req.Cell: d.Styles[*req.Cell]}}, nil

	case OpReferences:
		refs := formula.References(req.Formula)
		if refs == nil {
			refs = []grid.Range{}
		}
		return Reply{Refs: refs}, nil
	}
	return Reply{}, fmt.Errorf("unknown op %q", req.Op)
}

// evaluate handles the evaluate op. Without a cell the value is only
// reported, although a bulk operation still replaces the grid.
func (s *Session) evaluate(req Request, before grid.Grid) (Reply, error) {
	d := s.doc
	var (
		res workbook.Result
		err error
	)
	switch {
	case req.Cell == nil:
		v, replacement := formula.Evaluate(req.Formula, d.Grid)
		if replacement != nil {
			d.Grid = *replacement
		}
		res = workbook.Result{Value: v, Replaced: replacement != nil}
	case req.Formula == "":
		var ok bool
		res, ok, err = d.EvaluateCell(*req.Cell)
		if err == nil && !ok {
			text := d.Grid.At(*req.Cell)
			return Reply{Value: text, Kind: formula.KindText.String()}, nil
		}
	default:
		res, err = d.Commit(*req.Cell, req.Formula)
	}
	if err != nil {
		return Reply{}, err
	}
	return s.changedReply(before, Reply{
		Value:    res.Value.String(),
		Kind:     res.Value.Kind.String(),
		Replaced: res.Replaced,
	})
}

// changedReply adds the cells that differ from before to r.
func (s *Session) changedReply(before grid.Grid, r Reply) (Reply, error) {
	changes, err := internal.DiffGrids(before, s.doc.Grid)
	if err != nil {
		return Reply{}, err
	}
	r.Changed = changes
	return r, nil
}

func (s *Session) snapshotReply() Reply {
	snap := s.doc.Snapshot()
	return Reply{Rows: snap.Rows, Styles: snap.Styles}
}
