// Package diff compares two schema snapshots and decides which corrective
// actions bring the target in line with the source.
package diff

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"db_schema_syncer/internal/schema"
)

// Kind identifies a corrective action.
type Kind int

const (
	CreateTable Kind = iota + 1
	AddColumn
	ModifyColumn
)

func (k Kind) String() string {
	switch k {
	case CreateTable:
		return "create_table"
	case AddColumn:
		return "add_column"
	case ModifyColumn:
		return "modify_column"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText lets kinds appear as readable strings in JSON output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Action is one corrective step. Column is set for AddColumn and
// ModifyColumn; CreateStatement is set for CreateTable.
type Action struct {
	Kind            Kind          `json:"kind"`
	Table           string        `json:"table"`
	Column          schema.Column `json:"-"`
	CreateStatement string        `json:"create_statement,omitempty"`
}

// CreateStatementFunc returns the engine's own CREATE TABLE text for a
// source table.
type CreateStatementFunc func(ctx context.Context, table string) (string, error)

// Compute walks the source schema in read order and returns the actions
// needed on target. Tables and columns that only exist in target are never
// visited, so nothing is ever dropped.
func Compute(ctx context.Context, source, target *schema.Schema, createStmt CreateStatementFunc) ([]Action, error) {
	var actions []Action
	for _, srcTable := range source.Tables() {
		name := srcTable.Name()
		dstTable, ok := target.Table(name)
		if !ok {
			stmt, err := createStmt(ctx, name)
			if err != nil {
				return nil, &schema.ReadError{Table: name, Err: fmt.Errorf("create statement: %w", err)}
			}
			actions = append(actions, Action{Kind: CreateTable, Table: name, CreateStatement: stmt})
			continue
		}

		for _, col := range srcTable.Columns() {
			dstCol, ok := dstTable.Column(col.Name)
			switch {
			case !ok:
				actions = append(actions, Action{Kind: AddColumn, Table: name, Column: col})
			case Differs(col, dstCol):
				actions = append(actions, Action{Kind: ModifyColumn, Table: name, Column: col})
			}
		}
	}
	return actions, nil
}

// Summary counts actions by kind.
type Summary struct {
	CreateTables  int `json:"create_tables"`
	AddColumns    int `json:"add_columns"`
	ModifyColumns int `json:"modify_columns"`
}

// Total returns the number of actions summarized.
func (s Summary) Total() int {
	return s.CreateTables + s.AddColumns + s.ModifyColumns
}

// Summarize counts the actions in a plan.
func Summarize(actions []Action) Summary {
	var s Summary
	for _, a := range actions {
		switch a.Kind {
		case CreateTable:
			s.CreateTables++
		case AddColumn:
			s.AddColumns++
		case ModifyColumn:
			s.ModifyColumns++
		}
	}
	return s
}

// Describe returns a human-readable summary of the actions, grouped by
// table in alphabetical order.
func Describe(actions []Action) string {
	if len(actions) == 0 {
		return "databases are synchronized"
	}

	byTable := map[string][]string{}
	for _, a := range actions {
		var line string
		switch a.Kind {
		case CreateTable:
			line = "missing on target"
		case AddColumn:
			line = fmt.Sprintf("column %s missing on target", a.Column.Name)
		case ModifyColumn:
			line = fmt.Sprintf("column %s differs (source: %s)", a.Column.Name, RenderDefinition(a.Column))
		}
		byTable[a.Table] = append(byTable[a.Table], line)
	}

	tableNames := make([]string, 0, len(byTable))
	for name := range byTable {
		tableNames = append(tableNames, name)
	}
	sort.Strings(tableNames)

	var lines []string
	for _, name := range tableNames {
		for _, l := range byTable[name] {
			lines = append(lines, fmt.Sprintf("Table %s: %s", name, l))
		}
	}
	return strings.Join(lines, "\n")
}
