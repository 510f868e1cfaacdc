package db

import (
	"database/sql"
	"time"
)

// Migration status values recorded in the target's status table.
const (
	StatusApplying = "applying"
	StatusApplied  = "applied"
	StatusFailed   = "failed"
)

// MigrationEntry represents a migration status row stored in the database.
type MigrationEntry struct {
	MigrationName string
	ScriptFile    string
	Status        string
	Statements    int
	Executed      int
	Checksum      string
	AppliedAt     time.Time
	Error         sql.NullString
}
