package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"db_schema_syncer/internal/config"
	"db_schema_syncer/internal/schema"
)

// Adapter abstracts provider-specific behavior.
type Adapter interface {
	schema.Handle
	Provider() string
	Close() error
	CreateStatement(ctx context.Context, table string) (string, error)
	ExecStatement(ctx context.Context, stmt string) error
	EnsureMigrationTable(ctx context.Context, table string) error
	InsertStatus(ctx context.Context, table string, entry MigrationEntry) error
	UpdateStatus(ctx context.Context, table string, entry MigrationEntry) error
	FetchStatuses(ctx context.Context, table string, limit int) ([]MigrationEntry, error)
}

// Open builds an adapter for the given configuration. The caller owns the
// returned adapter and must Close it.
func Open(cfg config.DBConfig) (Adapter, error) {
	provider := strings.ToLower(cfg.Provider)
	switch provider {
	case "", "mysql":
		dsn, err := cfg.DataSourceName()
		if err != nil {
			return nil, err
		}
		// Validate DSN early to provide actionable errors.
		parsed, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("invalid mysql dsn: %w", err)
		}
		// Status rows are scanned into time.Time.
		parsed.ParseTime = true
		db, err := sql.Open("mysql", parsed.FormatDSN())
		if err != nil {
			return nil, err
		}
		db.SetConnMaxIdleTime(5 * time.Minute)
		db.SetMaxOpenConns(5)
		return NewMySQLAdapter(db), nil
	default:
		return nil, fmt.Errorf("unsupported provider %s", cfg.Provider)
	}
}
