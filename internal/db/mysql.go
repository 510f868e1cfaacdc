package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"db_schema_syncer/internal/schema"
)

type MySQLAdapter struct {
	db *sql.DB
}

// NewMySQLAdapter wraps an already opened MySQL pool.
func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) Provider() string { return "mysql" }

func (m *MySQLAdapter) Close() error { return m.db.Close() }

func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// ListTables returns base tables in the order the server reports them.
// Views are skipped since SHOW CREATE TABLE does not describe them as tables.
func (m *MySQLAdapter) ListTables(ctx context.Context) ([]string, error) {
	rows, err := m.db.QueryContext(ctx, "SHOW FULL TABLES WHERE Table_type = 'BASE TABLE'")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name, kind string
		if err := rows.Scan(&name, &kind); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (m *MySQLAdapter) DescribeTable(ctx context.Context, table string) ([]schema.RawColumnRow, error) {
	rows, err := m.db.QueryContext(ctx, "SHOW COLUMNS FROM "+quoteIdent(table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []schema.RawColumnRow
	for rows.Next() {
		var r schema.RawColumnRow
		var key, extra sql.NullString
		if err := rows.Scan(&r.Field, &r.Type, &r.Null, &key, &r.Default, &extra); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		r.Key = key.String
		r.Extra = extra.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func (m *MySQLAdapter) CreateStatement(ctx context.Context, table string) (string, error) {
	var name, stmt string
	if err := m.db.QueryRowContext(ctx, "SHOW CREATE TABLE "+quoteIdent(table)).Scan(&name, &stmt); err != nil {
		return "", err
	}
	return stmt, nil
}

func (m *MySQLAdapter) ExecStatement(ctx context.Context, stmt string) error {
	_, err := m.db.ExecContext(ctx, stmt)
	return err
}

func (m *MySQLAdapter) EnsureMigrationTable(ctx context.Context, table string) error {
	stmt := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id bigint AUTO_INCREMENT PRIMARY KEY,
	migration_name varchar(255) NOT NULL,
	script_file varchar(255) NOT NULL,
	status varchar(32) NOT NULL,
	statements int NOT NULL DEFAULT 0,
	executed int NOT NULL DEFAULT 0,
	checksum varchar(128),
	applied_at timestamp NOT NULL DEFAULT CURRENT_TIMESTAMP,
	error text,
	INDEX sync_status_name_idx (migration_name)
) ENGINE=InnoDB`, quoteIdent(table))
	_, err := m.db.ExecContext(ctx, stmt)
	return err
}

func (m *MySQLAdapter) InsertStatus(ctx context.Context, table string, entry MigrationEntry) error {
	stmt := fmt.Sprintf(`INSERT INTO %s
		(migration_name, script_file, status, statements, executed, checksum, applied_at, error)
		VALUES (?,?,?,?,?,?,?,?)`, quoteIdent(table))
	_, err := m.db.ExecContext(ctx, stmt,
		entry.MigrationName,
		entry.ScriptFile,
		entry.Status,
		entry.Statements,
		entry.Executed,
		entry.Checksum,
		entry.AppliedAt,
		nullString(entry.Error),
	)
	return err
}

func (m *MySQLAdapter) UpdateStatus(ctx context.Context, table string, entry MigrationEntry) error {
	stmt := fmt.Sprintf(`
UPDATE %s SET status=?, executed=?, applied_at=?, error=?
WHERE migration_name=?
ORDER BY applied_at DESC, id DESC
LIMIT 1`, quoteIdent(table))
	_, err := m.db.ExecContext(ctx, stmt,
		entry.Status,
		entry.Executed,
		entry.AppliedAt,
		nullString(entry.Error),
		entry.MigrationName,
	)
	return err
}

func (m *MySQLAdapter) FetchStatuses(ctx context.Context, table string, limit int) ([]MigrationEntry, error) {
	stmt := fmt.Sprintf(`SELECT migration_name, script_file, status, statements, executed, checksum, applied_at, error
FROM %s
ORDER BY applied_at DESC, id DESC
LIMIT ?`, quoteIdent(table))
	rows, err := m.db.QueryContext(ctx, stmt, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MigrationEntry
	for rows.Next() {
		var e MigrationEntry
		var checksum sql.NullString
		if err := rows.Scan(&e.MigrationName, &e.ScriptFile, &e.Status, &e.Statements, &e.Executed, &checksum, &e.AppliedAt, &e.Error); err != nil {
			return nil, err
		}
		e.Checksum = checksum.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullString(s sql.NullString) any {
	if s.Valid {
		return s.String
	}
	return nil
}
