package schema

import (
	"database/sql"
	"fmt"
)

// Column describes a single column as reported by the engine.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Default  sql.NullString
	Extra    string
}

// Table is an ordered set of columns. The order is the engine's native
// column order.
type Table struct {
	name    string
	order   []string
	columns map[string]Column
}

// NewTable builds a table from columns in the given order. Duplicate
// column names are rejected.
func NewTable(name string, cols ...Column) (Table, error) {
	t := Table{
		name:    name,
		order:   make([]string, 0, len(cols)),
		columns: make(map[string]Column, len(cols)),
	}
	for _, c := range cols {
		if _, dup := t.columns[c.Name]; dup {
			return Table{}, fmt.Errorf("table %s: duplicate column %s", name, c.Name)
		}
		t.order = append(t.order, c.Name)
		t.columns[c.Name] = c
	}
	return t, nil
}

// Name returns the table name.
func (t Table) Name() string { return t.name }

// Len returns the number of columns.
func (t Table) Len() int { return len(t.order) }

// Column looks up a column by name.
func (t Table) Column(name string) (Column, bool) {
	c, ok := t.columns[name]
	return c, ok
}

// Columns returns the columns in native order.
func (t Table) Columns() []Column {
	out := make([]Column, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.columns[name])
	}
	return out
}

// Schema is a point-in-time snapshot of every table visible through a
// handle. It is never mutated after construction.
type Schema struct {
	order  []string
	tables map[string]Table
}

// New builds a schema from tables in the given order.
func New(tables ...Table) (*Schema, error) {
	s := &Schema{
		order:  make([]string, 0, len(tables)),
		tables: make(map[string]Table, len(tables)),
	}
	for _, t := range tables {
		if _, dup := s.tables[t.name]; dup {
			return nil, fmt.Errorf("duplicate table %s", t.name)
		}
		s.order = append(s.order, t.name)
		s.tables[t.name] = t
	}
	return s, nil
}

// Len returns the number of tables.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// TableNames returns table names in the order they were read.
func (s *Schema) TableNames() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.order...)
}

// Table looks up a table by name. Names are matched exactly; case
// sensitivity is whatever the engine reported.
func (s *Schema) Table(name string) (Table, bool) {
	if s == nil {
		return Table{}, false
	}
	t, ok := s.tables[name]
	return t, ok
}

// Tables returns all tables in read order.
func (s *Schema) Tables() []Table {
	if s == nil {
		return nil
	}
	out := make([]Table, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.tables[name])
	}
	return out
}
