package migrate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"db_schema_syncer/internal/db"
)

type fakeTarget struct {
	executed []string
	failOn   string
	inserted []db.MigrationEntry
	updated  []db.MigrationEntry
	ensured  string
}

func (f *fakeTarget) ExecStatement(_ context.Context, stmt string) error {
	if stmt == f.failOn {
		return errors.New("Duplicate column name 'email'")
	}
	f.executed = append(f.executed, stmt)
	return nil
}

func (f *fakeTarget) EnsureMigrationTable(_ context.Context, table string) error {
	f.ensured = table
	return nil
}

func (f *fakeTarget) InsertStatus(_ context.Context, _ string, e db.MigrationEntry) error {
	f.inserted = append(f.inserted, e)
	return nil
}

func (f *fakeTarget) UpdateStatus(_ context.Context, _ string, e db.MigrationEntry) error {
	f.updated = append(f.updated, e)
	return nil
}

var fixedNow = func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) }

func TestApplySuccess(t *testing.T) {
	target := &fakeTarget{}
	r := Runner{Target: target, Table: "schema_sync_status", Now: fixedNow}
	stmts := []string{
		"CREATE TABLE `orders` (`id` int);",
		"ALTER TABLE `users` ADD COLUMN `email` varchar(255) NULL;",
	}

	res, err := r.Apply(context.Background(), "sync-1", "live", stmts)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Executed)
	assert.Equal(t, stmts, target.executed)
	assert.Equal(t, "schema_sync_status", target.ensured)

	require.Len(t, target.inserted, 1)
	assert.Equal(t, db.StatusApplying, target.inserted[0].Status)
	assert.Equal(t, 2, target.inserted[0].Statements)
	require.Len(t, target.updated, 1)
	assert.Equal(t, db.StatusApplied, target.updated[0].Status)
	assert.Equal(t, 2, target.updated[0].Executed)
	assert.False(t, target.updated[0].Error.Valid)
	assert.Equal(t, res.Checksum, target.updated[0].Checksum)
}

func TestApplyStopsAtFirstFailure(t *testing.T) {
	bad := "ALTER TABLE `users` ADD COLUMN `email` varchar(255) NULL;"
	target := &fakeTarget{failOn: bad}
	r := Runner{Target: target, Table: "schema_sync_status", Now: fixedNow}
	stmts := []string{"CREATE TABLE `orders` (`id` int);", bad, "ALTER TABLE `users` MODIFY COLUMN `id` bigint NOT NULL;"}

	res, err := r.Apply(context.Background(), "sync-2", "live", stmts)
	require.Error(t, err)

	var stmtErr *StatementError
	require.ErrorAs(t, err, &stmtErr)
	assert.Equal(t, 1, stmtErr.Index)
	assert.Equal(t, 1, res.Executed)
	assert.Equal(t, stmts[:1], target.executed)

	require.Len(t, target.updated, 1)
	assert.Equal(t, db.StatusFailed, target.updated[0].Status)
	assert.Equal(t, 1, target.updated[0].Executed)
	assert.Contains(t, target.updated[0].Error.String, "Duplicate column name")
}

func TestApplyRequiresName(t *testing.T) {
	_, err := Runner{Target: &fakeTarget{}}.Apply(context.Background(), "", "", nil)
	assert.Error(t, err)
}

func TestChecksumIsOrderSensitive(t *testing.T) {
	assert.Equal(t, Checksum("a", "b"), Checksum("a", "b"))
	assert.NotEqual(t, Checksum("a", "b"), Checksum("b", "a"))
	assert.NotEqual(t, Checksum("ab"), Checksum("a", "b"))
}
