package schema

import (
	"database/sql"
	"fmt"
	"strings"
)

// RawColumnRow is the fixed row shape returned by the engine's column
// introspection (SHOW COLUMNS / DESCRIBE).
type RawColumnRow struct {
	Field   string
	Type    string
	Null    string
	Key     string
	Default sql.NullString
	Extra   string
}

// NewColumn validates a raw row and converts it into a Column.
func NewColumn(row RawColumnRow) (Column, error) {
	if row.Field == "" {
		return Column{}, fmt.Errorf("%w: missing field name", ErrInvalidColumn)
	}
	if row.Type == "" {
		return Column{}, fmt.Errorf("%w: column %s has no type", ErrInvalidColumn, row.Field)
	}
	var nullable bool
	switch strings.ToUpper(row.Null) {
	case "YES":
		nullable = true
	case "NO":
		nullable = false
	default:
		return Column{}, fmt.Errorf("%w: column %s has null flag %q", ErrInvalidColumn, row.Field, row.Null)
	}
	return Column{
		Name:     row.Field,
		Type:     row.Type,
		Nullable: nullable,
		Default:  row.Default,
		Extra:    row.Extra,
	}, nil
}
