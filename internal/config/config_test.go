package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useMemFs(t *testing.T) afero.Fs {
	t.Helper()
	prev := AppFs
	fs := afero.NewMemMapFs()
	AppFs = fs
	t.Cleanup(func() { AppFs = prev })
	return fs
}

func TestLoadFromFile(t *testing.T) {
	fs := useMemFs(t)
	require.NoError(t, afero.WriteFile(fs, "/etc/sync.yaml", []byte(`
log_level: debug
concurrent_reads: true
storage:
  path: /var/lib/sync
source:
  host: db1
  user: root
  password: secret
  database: test_project
target:
  dsn: root:@tcp(db2:3306)/prod_project
`), 0o644))

	cfg, err := Load("/etc/sync.yaml")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.ConcurrentReads)
	assert.Equal(t, "/var/lib/sync", cfg.Storage.Path)
	assert.Equal(t, "schema_sync_status", cfg.MigrationTable)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 3306, cfg.Source.Port)
	assert.Equal(t, "db1:3306/test_project", cfg.Source.Label())
	assert.Equal(t, "db2:3306/prod_project", cfg.Target.Label())
}

func TestLoadEnvOverride(t *testing.T) {
	fs := useMemFs(t)
	require.NoError(t, afero.WriteFile(fs, "/sync.yaml", []byte(`
source:
  database: a
target:
  database: b
`), 0o644))
	t.Setenv("SCHEMASYNC_TARGET_DATABASE", "c")
	t.Setenv("SCHEMASYNC_HISTORY_DSN", "postgres://localhost/history")

	cfg, err := Load("/sync.yaml")
	require.NoError(t, err)
	assert.Equal(t, "c", cfg.Target.Database)
	assert.Equal(t, "postgres://localhost/history", cfg.History.DSN)
}

func TestLoadMissingFile(t *testing.T) {
	useMemFs(t)
	_, err := Load("/nope.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{
		MigrationTable: "schema_sync_status",
		Source:         DBConfig{Database: "a"},
		Target:         DBConfig{DSN: "root@tcp(localhost:3306)/b"},
	}
	assert.NoError(t, valid.Validate())

	noTarget := valid
	noTarget.Target = DBConfig{}
	assert.ErrorContains(t, noTarget.Validate(), "target")

	postgres := valid
	postgres.Source.Provider = "postgres"
	assert.ErrorContains(t, postgres.Validate(), "unsupported provider")

	noTable := valid
	noTable.MigrationTable = ""
	assert.Error(t, noTable.Validate())
}

func TestDataSourceName(t *testing.T) {
	dsn, err := DBConfig{User: "root", Password: "pw", Database: "app"}.DataSourceName()
	require.NoError(t, err)
	assert.Equal(t, "root:pw@tcp(localhost:3306)/app?parseTime=true", dsn)

	dsn, err = DBConfig{DSN: "u@tcp(h:1)/d", Database: "ignored"}.DataSourceName()
	require.NoError(t, err)
	assert.Equal(t, "u@tcp(h:1)/d", dsn)

	_, err = DBConfig{}.DataSourceName()
	assert.Error(t, err)
	assert.Equal(t, "unknown", DBConfig{}.Label())
}

func TestWriteSample(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, WriteSample(fs, "/cfg.yaml", "./scripts"))

	data, err := afero.ReadFile(fs, "/cfg.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "path: ./scripts")

	assert.ErrorContains(t, WriteSample(fs, "/cfg.yaml", "./scripts"), "already exists")
}
