package diff

import (
	"strings"

	"db_schema_syncer/internal/schema"
)

// defaultGeneratedMarker is reported in Extra by MySQL 8 for expression
// defaults. It is not valid DDL.
const defaultGeneratedMarker = "DEFAULT_GENERATED"

// Differs reports whether two same-named columns need a corrective
// statement. Type, nullability, default and extra are compared exactly.
func Differs(a, b schema.Column) bool {
	return a.Type != b.Type ||
		a.Nullable != b.Nullable ||
		a.Default != b.Default ||
		a.Extra != b.Extra
}

// RenderDefinition builds the column definition used by both ADD COLUMN and
// MODIFY COLUMN. A missing default omits the DEFAULT clause entirely, which
// is not the same as DEFAULT ''. Extra is appended as reported, minus the
// DEFAULT_GENERATED marker, which MySQL rejects in DDL.
func RenderDefinition(c schema.Column) string {
	parts := []string{quoteIdent(c.Name), c.Type}
	if c.Nullable {
		parts = append(parts, "NULL")
	} else {
		parts = append(parts, "NOT NULL")
	}

	if c.Default.Valid {
		if isExpressionDefault(c) {
			parts = append(parts, "DEFAULT "+c.Default.String)
		} else {
			parts = append(parts, "DEFAULT "+quoteLiteral(c.Default.String))
		}
	}
	extra := strings.Join(strings.Fields(strings.ReplaceAll(c.Extra, defaultGeneratedMarker, "")), " ")
	if extra != "" {
		parts = append(parts, extra)
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

func isExpressionDefault(c schema.Column) bool {
	if strings.Contains(c.Extra, defaultGeneratedMarker) {
		return true
	}
	v := strings.ToUpper(strings.TrimSpace(c.Default.String))
	for _, kw := range []string{"CURRENT_TIMESTAMP", "NOW()", "LOCALTIME", "LOCALTIMESTAMP"} {
		if v == kw || strings.HasPrefix(v, kw+"(") {
			return true
		}
	}
	return false
}

// quoteIdent wraps a name in backticks. Names containing a backtick are not
// escaped.
func quoteIdent(name string) string {
	return "`" + name + "`"
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, "'", "''")

// quoteLiteral escapes backslashes as well as quotes: under the default
// sql_mode a backslash inside a string literal starts an escape sequence.
func quoteLiteral(v string) string {
	return "'" + literalEscaper.Replace(v) + "'"
}
