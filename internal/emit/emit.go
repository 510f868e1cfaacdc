// Package emit turns corrective actions into MySQL statement text.
package emit

import (
	"fmt"
	"strings"

	"db_schema_syncer/internal/diff"
)

const terminator = ";"

// Render returns the statement for a single action. It has no side effects.
// An action of unknown kind is a programming error and panics.
func Render(a diff.Action) string {
	switch a.Kind {
	case diff.CreateTable:
		return a.CreateStatement + terminator
	case diff.AddColumn:
		return fmt.Sprintf("ALTER TABLE `%s` ADD COLUMN %s%s", a.Table, diff.RenderDefinition(a.Column), terminator)
	case diff.ModifyColumn:
		return fmt.Sprintf("ALTER TABLE `%s` MODIFY COLUMN %s%s", a.Table, diff.RenderDefinition(a.Column), terminator)
	default:
		panic(fmt.Sprintf("emit: unsupported action %s for table %s", a.Kind, a.Table))
	}
}

// RenderAll renders actions in order.
func RenderAll(actions []diff.Action) []string {
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		out = append(out, Render(a))
	}
	return out
}

// Script joins rendered statements into a single newline-separated script.
func Script(statements []string) string {
	if len(statements) == 0 {
		return ""
	}
	return strings.Join(statements, "\n") + "\n"
}
