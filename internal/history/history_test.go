package history

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"db_schema_syncer/migrations"
)

func TestParseVersion(t *testing.T) {
	v, name, err := parseVersion("0002_sync_runs_summary.sql")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
	assert.Equal(t, "sync_runs_summary", name)

	_, _, err = parseVersion("nounderscore.sql")
	assert.Error(t, err)
	_, _, err = parseVersion("abc_name.sql")
	assert.Error(t, err)
}

func TestPendingSkipsAppliedAndSorts(t *testing.T) {
	fsys := fstest.MapFS{
		"0010_later.sql":  {Data: []byte("SELECT 1")},
		"0002_second.sql": {Data: []byte("SELECT 1")},
		"0001_first.sql":  {Data: []byte("SELECT 1")},
		"README.md":       {Data: []byte("ignored")},
	}

	todo, err := pending(fsys, map[int64]bool{1: true})
	require.NoError(t, err)
	require.Len(t, todo, 2)
	assert.Equal(t, int64(2), todo[0].version)
	assert.Equal(t, int64(10), todo[1].version)
	assert.Equal(t, "later", todo[1].name)
}

func TestPendingRejectsDuplicateVersions(t *testing.T) {
	fsys := fstest.MapFS{
		"0001_a.sql": {Data: []byte("SELECT 1")},
		"1_b.sql":    {Data: []byte("SELECT 1")},
	}
	_, err := pending(fsys, nil)
	assert.ErrorContains(t, err, "duplicate migration version")
}

func TestEmbeddedMigrationsParse(t *testing.T) {
	todo, err := pending(migrations.FS(), nil)
	require.NoError(t, err)
	require.NotEmpty(t, todo)
	assert.Equal(t, int64(1), todo[0].version)
}

func TestRunFinish(t *testing.T) {
	start := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	ok := NewRun(KindPlan, "a", "b", start)
	assert.NotEqual(t, uuid.Nil, ok.ID)
	ok.Finish(nil, start.Add(time.Second))
	assert.Equal(t, StatusSucceeded, ok.Status)
	assert.Nil(t, ok.Error)

	failed := NewRun(KindApply, "a", "b", start)
	failed.Finish(errors.New("boom"), start.Add(time.Second))
	assert.Equal(t, StatusFailed, failed.Status)
	require.NotNil(t, failed.Error)
	assert.Equal(t, "boom", *failed.Error)
}

func TestConnectWithoutDSNIsNop(t *testing.T) {
	rec, err := Connect(context.Background(), "", nil)
	require.NoError(t, err)
	require.NoError(t, rec.Record(context.Background(), Run{}))
	_, err = rec.Recent(context.Background(), 5)
	assert.ErrorIs(t, err, ErrDisabled)
	rec.Close()
}

func TestConnectRejectsBadDSN(t *testing.T) {
	_, err := Connect(context.Background(), "postgres://%zz", nil)
	assert.ErrorContains(t, err, "parse history dsn")
}
