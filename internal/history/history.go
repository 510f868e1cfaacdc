// Package history records plan and apply runs in a Postgres database.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"db_schema_syncer/migrations"
)

var ErrDisabled = errors.New("history store is not configured")

const (
	KindPlan  = "plan"
	KindApply = "apply"

	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

type Run struct {
	ID            uuid.UUID `json:"id"`
	Kind          string    `json:"kind"`
	Source        string    `json:"source"`
	Target        string    `json:"target"`
	ScriptName    *string   `json:"script_name,omitempty"`
	Statements    int       `json:"statements"`
	Executed      int       `json:"executed"`
	CreateTables  int       `json:"create_tables"`
	AddColumns    int       `json:"add_columns"`
	ModifyColumns int       `json:"modify_columns"`
	Checksum      *string   `json:"checksum,omitempty"`
	Status        string    `json:"status"`
	Error         *string   `json:"error,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}

// NewRun starts a run record with a fresh id.
func NewRun(kind, source, target string, startedAt time.Time) Run {
	return Run{
		ID:        uuid.New(),
		Kind:      kind,
		Source:    source,
		Target:    target,
		Status:    StatusSucceeded,
		StartedAt: startedAt.UTC(),
	}
}

// Finish stamps the end time and, when err is non-nil, marks the run failed.
func (r *Run) Finish(err error, finishedAt time.Time) {
	r.FinishedAt = finishedAt.UTC()
	if err != nil {
		msg := err.Error()
		r.Status = StatusFailed
		r.Error = &msg
	}
}

// Recorder persists runs.
type Recorder interface {
	Record(ctx context.Context, run Run) error
	Recent(ctx context.Context, limit int) ([]Run, error)
	Close()
}

// Nop is used when no history database is configured.
type Nop struct{}

func (Nop) Record(context.Context, Run) error { return nil }

func (Nop) Recent(context.Context, int) ([]Run, error) { return nil, ErrDisabled }

func (Nop) Close() {}

// Connect opens the history database and brings its schema up to date. An
// empty DSN yields a Nop recorder.
func Connect(ctx context.Context, dsn string, logger Logger) (Recorder, error) {
	if dsn == "" {
		return Nop{}, nil
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse history dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create history pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping history db: %w", err)
	}
	if err := Bootstrap(ctx, pool, migrations.FS(), logger); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Store is the Postgres-backed Recorder.
type Store struct {
	pool   *pgxpool.Pool
	logger Logger
}

func (s *Store) Close() { s.pool.Close() }

func (s *Store) Record(ctx context.Context, run Run) error {
	if _, err := s.pool.Exec(ctx, `
INSERT INTO sync_runs (id, kind, source, target, script_name, statements, executed,
  create_tables, add_columns, modify_columns, checksum, status, error, started_at, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
`, run.ID, run.Kind, run.Source, run.Target, run.ScriptName, run.Statements, run.Executed,
		run.CreateTables, run.AddColumns, run.ModifyColumns, run.Checksum, run.Status, run.Error,
		run.StartedAt, run.FinishedAt); err != nil {
		if s.logger != nil {
			s.logger.Error("history record failed", "run_id", run.ID, "error", err)
		}
		return fmt.Errorf("insert sync run: %w", err)
	}
	return nil
}

func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
SELECT id, kind, source, target, script_name, statements, executed,
  create_tables, add_columns, modify_columns, checksum, status, error, started_at, finished_at
FROM sync_runs
ORDER BY started_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sync runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Kind, &r.Source, &r.Target, &r.ScriptName, &r.Statements, &r.Executed,
			&r.CreateTables, &r.AddColumns, &r.ModifyColumns, &r.Checksum, &r.Status, &r.Error,
			&r.StartedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan sync run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
