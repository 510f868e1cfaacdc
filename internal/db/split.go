package db

import "strings"

// SplitStatements breaks a script into individual statements on ';',
// ignoring separators inside quoted strings and quoted identifiers. Inside
// string literals a backslash escapes the next character.
func SplitStatements(sqlText string) []string {
	var (
		out      []string
		current  strings.Builder
		inSingle bool
		inDouble bool
		inBack   bool
		escaped  bool
	)

	flush := func() {
		stmt := strings.TrimSpace(current.String())
		if stmt != "" {
			out = append(out, stmt)
		}
		current.Reset()
	}

	for _, r := range sqlText {
		if escaped {
			escaped = false
			current.WriteRune(r)
			continue
		}
		switch r {
		case '\\':
			if inSingle || inDouble {
				escaped = true
			}
		case '\'':
			if !inDouble && !inBack {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle && !inBack {
				inDouble = !inDouble
			}
		case '`':
			if !inSingle && !inDouble {
				inBack = !inBack
			}
		case ';':
			if !inSingle && !inDouble && !inBack {
				flush()
				continue
			}
		}
		current.WriteRune(r)
	}
	flush()
	return out
}
