package client

import (
	"context"

	"github.com/witanlabs/gridcalc/grid"
	"github.com/witanlabs/gridcalc/internal"
	"github.com/witanlabs/gridcalc/server"
	"github.com/witanlabs/gridcalc/workbook"
)

// Snapshot fetches the whole document.
func (c *Client) Snapshot(ctx context.Context) (workbook.Snapshot, error) {
	r, err := c.Do(ctx, server.Request{Op: server.OpSnapshot})
	if err != nil {
		return workbook.Snapshot{}, err
	}
	return workbook.Snapshot{Rows: r.Rows, Styles: r.Styles}, nil
}

// Get returns the stored text of a cell.
func (c *Client) Get(ctx context.Context, a grid.Address) (string, error) {
	r, err := c.Do(ctx, server.Request{Op: server.OpGet, Cell: &a})
	if err != nil {
		return "", err
	}
	return r.Value, nil
}

// Set stores text in a cell without evaluating it.
func (c *Client) Set(ctx context.Context, a grid.Address, text string) ([]internal.CellChange, error) {
	r, err := c.Do(ctx, server.Request{Op: server.OpSet, Cell: &a, Value: text})
	if err != nil {
		return nil, err
	}
	return r.Changed, nil
}

// Evaluate evaluates a formula against the session's grid. Only bulk
// operations change the grid.
func (c *Client) Evaluate(ctx context.Context, formula string) (*server.Reply, error) {
	return c.Do(ctx, server.Request{Op: server.OpEvaluate, Formula: formula})
}

// Commit evaluates a formula and writes its value into a, as the formula bar
// does on Enter.
func (c *Client) Commit(ctx context.Context, a grid.Address, formula string) (*server.Reply, error) {
	return c.Do(ctx, server.Request{Op: server.OpEvaluate, Cell: &a, Formula: formula})
}

// EvaluateCell replaces the formula stored at a with its value.
func (c *Client) EvaluateCell(ctx context.Context, a grid.Address) (*server.Reply, error) {
	return c.Do(ctx, server.Request{Op: server.OpEvaluate, Cell: &a})
}

// Adjust shifts the references of a formula.
func (c *Client) Adjust(ctx context.Context, formula string, rows, cols int) (string, error) {
	r, err := c.Do(ctx, server.Request{Op: server.OpAdjust, Formula: formula, Rows: rows, Cols: cols})
	if err != nil {
		return "", err
	}
	return r.Formula, nil
}

// Fill drag-fills from over the rectangle up to to.
func (c *Client) Fill(ctx context.Context, from, to grid.Address) ([]internal.CellChange, error) {
	r, err := c.Do(ctx, server.Request{Op: server.OpFill, From: &from, To: &to})
	if err != nil {
		return nil, err
	}
	return r.Changed, nil
}

// AddRow appends a row and returns the new document.
func (c *Client) AddRow(ctx context.Context) (workbook.Snapshot, error) {
	return c.resize(ctx, server.Request{Op: server.OpAddRow})
}

// AddColumn appends a column and returns the new document.
func (c *Client) AddColumn(ctx context.Context) (workbook.Snapshot, error) {
	return c.resize(ctx, server.Request{Op: server.OpAddColumn})
}

// DeleteRow removes the 0-based row and returns the new document.
func (c *Client) DeleteRow(ctx context.Context, index int) (workbook.Snapshot, error) {
	return c.resize(ctx, server.Request{Op: server.OpDeleteRow, Index: index})
}

// DeleteColumn removes the 0-based column and returns the new document.
func (c *Client) DeleteColumn(ctx context.Context, index int) (workbook.Snapshot, error) {
	return c.resize(ctx, server.Request{Op: server.OpDeleteColumn, Index: index})
}

func (c *Client) resize(ctx context.Context, req server.Request) (workbook.Snapshot, error) {
	r, err := c.Do(ctx, req)
	if err != nil {
		return workbook.Snapshot{}, err
	}
	return workbook.Snapshot{Rows: r.Rows, Styles: r.Styles}, nil
}

// Style toggles one style attribute of a cell and returns the cell's style.
func (c *Client) Style(ctx context.Context, a grid.Address, attr grid.Attribute, value string) (grid.Style, error) {
	r, err := c.Do(ctx, server.Request{Op: server.OpStyle, Cell: &a, Attribute: string(attr), Value: value})
	if err != nil {
		return grid.Style{}, err
	}
	return r.Styles[a], nil
}

// References lists the ranges a formula reads.
func (c *Client) References(ctx context.Context, formula string) ([]grid.Range, error) {
	r, err := c.Do(ctx, server.Request{Op: server.OpReferences, Formula: formula})
	if err != nil {
		return nil, err
	}
	return r.Refs, nil
}
