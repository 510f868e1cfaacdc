package history

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type migrationFile struct {
	version int64
	name    string
	path    string
}

// Bootstrap applies embedded schema migrations that have not run yet. Each
// migration runs in its own transaction together with its bookkeeping row.
func Bootstrap(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS, logger Logger) error {
	if _, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version BIGINT PRIMARY KEY,
  name    TEXT NOT NULL,
  applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied, err := appliedVersions(ctx, pool)
	if err != nil {
		return err
	}
	todo, err := pending(fsys, applied)
	if err != nil {
		return err
	}

	for _, m := range todo {
		body, err := fs.ReadFile(fsys, m.path)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", m.path, err)
		}
		if err := apply(ctx, pool, m, string(body)); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.path, err)
		}
		if logger != nil {
			logger.Info("history migration applied", "version", m.version, "name", m.name)
		}
	}
	return nil
}

func apply(ctx context.Context, pool *pgxpool.Pool, m migrationFile, body string) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, body); err != nil {
		return fmt.Errorf("execute migration: %w", err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations(version, name) VALUES ($1, $2)`, m.version, m.name); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}
	return tx.Commit(ctx)
}

func appliedVersions(ctx context.Context, pool *pgxpool.Pool) (map[int64]bool, error) {
	rows, err := pool.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("query schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int64]bool)
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan applied version: %w", err)
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// pending lists migrations not yet applied, ordered by version.
func pending(fsys fs.FS, applied map[int64]bool) ([]migrationFile, error) {
	files, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	var out []migrationFile
	seen := map[int64]string{}
	for _, file := range files {
		version, name, err := parseVersion(file)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("duplicate migration version %d: %s and %s", version, prev, file)
		}
		seen[version] = file
		if applied[version] {
			continue
		}
		out = append(out, migrationFile{version: version, name: name, path: file})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

func parseVersion(path string) (int64, string, error) {
	base := filepath.Base(path)
	parts := strings.SplitN(base, "_", 2)
	if len(parts) < 2 {
		return 0, "", fmt.Errorf("invalid migration filename: %s", base)
	}
	version, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid migration version in %s: %w", base, err)
	}
	name := strings.TrimSuffix(parts[1], ".sql")
	return version, name, nil
}
