// Package migrate applies planned statements to a target database and keeps
// the target's status table up to date.
package migrate

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"db_schema_syncer/internal/db"
)

// Target is the part of a database adapter the runner needs.
type Target interface {
	ExecStatement(ctx context.Context, stmt string) error
	EnsureMigrationTable(ctx context.Context, table string) error
	InsertStatus(ctx context.Context, table string, entry db.MigrationEntry) error
	UpdateStatus(ctx context.Context, table string, entry db.MigrationEntry) error
}

type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// StatementError reports which statement failed and how many ran before it.
type StatementError struct {
	Index     int
	Statement string
	Err       error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("statement %d (%s): %v", e.Index+1, e.Statement, e.Err)
}

func (e *StatementError) Unwrap() error { return e.Err }

// Result describes one Apply call.
type Result struct {
	Name     string
	Executed int
	Total    int
	Checksum string
}

// Runner executes statements one by one. There is no transaction around the
// script: statements that ran before a failure stay applied, and a fresh
// plan will simply not include them again.
type Runner struct {
	Target Target
	Table  string
	Logger Logger
	Now    func() time.Time
}

// Apply records an "applying" row, executes statements in order and marks
// the row applied or failed. It stops at the first failing statement.
func (r Runner) Apply(ctx context.Context, name, scriptFile string, statements []string) (Result, error) {
	res := Result{Name: name, Total: len(statements), Checksum: Checksum(statements...)}
	if name == "" {
		return res, errors.New("migration name is required")
	}

	if err := r.Target.EnsureMigrationTable(ctx, r.Table); err != nil {
		return res, fmt.Errorf("ensure status table: %w", err)
	}

	entry := db.MigrationEntry{
		MigrationName: name,
		ScriptFile:    scriptFile,
		Status:        db.StatusApplying,
		Statements:    len(statements),
		Checksum:      res.Checksum,
		AppliedAt:     r.now(),
	}
	if err := r.Target.InsertStatus(ctx, r.Table, entry); err != nil {
		return res, fmt.Errorf("record status: %w", err)
	}

	for i, stmt := range statements {
		if err := r.Target.ExecStatement(ctx, stmt); err != nil {
			stmtErr := &StatementError{Index: i, Statement: stmt, Err: err}
			entry.Status = db.StatusFailed
			entry.Executed = res.Executed
			entry.Error = sql.NullString{Valid: true, String: stmtErr.Error()}
			entry.AppliedAt = r.now()
			if uerr := r.Target.UpdateStatus(ctx, r.Table, entry); uerr != nil {
				r.logError("status update failed", "migration", name, "error", uerr)
			}
			r.logError("statement failed", "migration", name, "index", i, "error", err)
			return res, stmtErr
		}
		res.Executed++
		r.logInfo("statement applied", "migration", name, "index", i)
	}

	entry.Status = db.StatusApplied
	entry.Executed = res.Executed
	entry.AppliedAt = r.now()
	entry.Error = sql.NullString{}
	if err := r.Target.UpdateStatus(ctx, r.Table, entry); err != nil {
		return res, fmt.Errorf("record status: %w", err)
	}
	return res, nil
}

// Checksum fingerprints a script so stored and applied runs can be matched.
func Checksum(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (r Runner) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

func (r Runner) logInfo(msg string, args ...any) {
	if r.Logger != nil {
		r.Logger.Info(msg, args...)
	}
}

func (r Runner) logError(msg string, args ...any) {
	if r.Logger != nil {
		r.Logger.Error(msg, args...)
	}
}
