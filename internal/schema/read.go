// Package schema reads a normalized snapshot of tables and columns from a
// live database handle.
package schema

import (
	"context"
	"errors"
)

// Handle is the introspection surface a connection must expose.
type Handle interface {
	ListTables(ctx context.Context) ([]string, error)
	DescribeTable(ctx context.Context, table string) ([]RawColumnRow, error)
}

// Read enumerates every table visible to h and describes each one. Nothing
// is cached: every call reflects the current state of the database. On any
// failure the partially built schema is discarded.
func Read(ctx context.Context, h Handle) (*Schema, error) {
	names, err := h.ListTables(ctx)
	if err != nil {
		return nil, &ConnectivityError{Err: err}
	}

	tables := make([]Table, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			return nil, &ReadError{Table: name, Err: errors.New("table listed more than once")}
		}
		seen[name] = true
		rows, err := h.DescribeTable(ctx, name)
		if err != nil {
			return nil, &ReadError{Table: name, Err: err}
		}
		cols := make([]Column, 0, len(rows))
		for _, row := range rows {
			col, err := NewColumn(row)
			if err != nil {
				return nil, &ReadError{Table: name, Err: err}
			}
			cols = append(cols, col)
		}
		t, err := NewTable(name, cols...)
		if err != nil {
			return nil, &ReadError{Table: name, Err: err}
		}
		tables = append(tables, t)
	}

	s, err := New(tables...)
	if err != nil {
		return nil, &ReadError{Err: err}
	}
	return s, nil
}
