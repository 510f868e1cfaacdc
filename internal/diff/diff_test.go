package diff

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"db_schema_syncer/internal/schema"
)

const usersDDL = "CREATE TABLE `users` (\n  `id` int NOT NULL AUTO_INCREMENT,\n  `name` varchar(255) DEFAULT NULL,\n  PRIMARY KEY (`id`)\n) ENGINE=InnoDB"

var (
	colID    = schema.Column{Name: "id", Type: "int", Extra: "auto_increment"}
	colName  = schema.Column{Name: "name", Type: "varchar(255)", Nullable: true}
	colEmail = schema.Column{Name: "email", Type: "varchar(255)", Nullable: true}
)

func mustTable(t *testing.T, name string, cols ...schema.Column) schema.Table {
	t.Helper()
	tbl, err := schema.NewTable(name, cols...)
	require.NoError(t, err)
	return tbl
}

func mustSchema(t *testing.T, tables ...schema.Table) *schema.Schema {
	t.Helper()
	s, err := schema.New(tables...)
	require.NoError(t, err)
	return s
}

type createStmts map[string]string

func (c createStmts) provide(_ context.Context, table string) (string, error) {
	stmt, ok := c[table]
	if !ok {
		return "", errors.New("no such table")
	}
	return stmt, nil
}

func noCreate(t *testing.T) CreateStatementFunc {
	return func(context.Context, string) (string, error) {
		t.Fatal("create statement must not be requested")
		return "", nil
	}
}

func TestComputeEmptyTarget(t *testing.T) {
	source := mustSchema(t, mustTable(t, "users", colID, colName))
	target := mustSchema(t)

	actions, err := Compute(context.Background(), source, target, createStmts{"users": usersDDL}.provide)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, Action{Kind: CreateTable, Table: "users", CreateStatement: usersDDL}, actions[0])
}

func TestComputeMissingColumn(t *testing.T) {
	source := mustSchema(t, mustTable(t, "users", colID, colName, colEmail))
	target := mustSchema(t, mustTable(t, "users", colID, colName))

	actions, err := Compute(context.Background(), source, target, noCreate(t))
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, AddColumn, actions[0].Kind)
	assert.Equal(t, "users", actions[0].Table)
	assert.Equal(t, colEmail, actions[0].Column)
}

func TestComputeTypeChange(t *testing.T) {
	srcID := colID
	dstID := colID
	dstID.Type = "bigint"
	source := mustSchema(t, mustTable(t, "users", srcID, colName))
	target := mustSchema(t, mustTable(t, "users", dstID, colName))

	actions, err := Compute(context.Background(), source, target, noCreate(t))
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, ModifyColumn, actions[0].Kind)
	assert.Equal(t, srcID, actions[0].Column)
}

func TestComputeSynchronized(t *testing.T) {
	source := mustSchema(t, mustTable(t, "users", colID, colName), mustTable(t, "orders", colID))
	target := mustSchema(t, mustTable(t, "orders", colID), mustTable(t, "users", colName, colID))

	actions, err := Compute(context.Background(), source, target, noCreate(t))
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestComputeNeverTouchesTargetOnlyObjects(t *testing.T) {
	legacy := schema.Column{Name: "legacy_flag", Type: "tinyint(1)"}
	source := mustSchema(t, mustTable(t, "users", colID, colName))
	target := mustSchema(t,
		mustTable(t, "users", colID, colName, legacy),
		mustTable(t, "audit_log", colID),
	)

	actions, err := Compute(context.Background(), source, target, noCreate(t))
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestComputeTableActionSupersedesColumns(t *testing.T) {
	source := mustSchema(t,
		mustTable(t, "users", colID, colName, colEmail),
		mustTable(t, "orders", colID),
	)
	target := mustSchema(t, mustTable(t, "orders", colID))

	actions, err := Compute(context.Background(), source, target, createStmts{"users": usersDDL}.provide)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, CreateTable, actions[0].Kind)
}

func TestComputeOrderFollowsSource(t *testing.T) {
	changed := colName
	changed.Nullable = false
	source := mustSchema(t,
		mustTable(t, "zeta", colID),
		mustTable(t, "users", colEmail, colName, colID),
		mustTable(t, "alpha", colID),
	)
	target := mustSchema(t,
		mustTable(t, "users", colID, changed),
		mustTable(t, "alpha", colID),
	)
	stmts := createStmts{"zeta": "CREATE TABLE `zeta` (`id` int)"}

	first, err := Compute(context.Background(), source, target, stmts.provide)
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Equal(t, []Kind{CreateTable, AddColumn, ModifyColumn}, []Kind{first[0].Kind, first[1].Kind, first[2].Kind})
	assert.Equal(t, "zeta", first[0].Table)
	assert.Equal(t, "email", first[1].Column.Name)
	assert.Equal(t, "name", first[2].Column.Name)

	for i := 0; i < 5; i++ {
		again, err := Compute(context.Background(), source, target, stmts.provide)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestComputeOnlyReferencesSourceObjects(t *testing.T) {
	source := mustSchema(t,
		mustTable(t, "users", colID, colName, colEmail),
		mustTable(t, "orders", colID, colName),
	)
	target := mustSchema(t,
		mustTable(t, "users", schema.Column{Name: "id", Type: "bigint"}, schema.Column{Name: "extra", Type: "int"}),
		mustTable(t, "ghosts", colID),
	)

	actions, err := Compute(context.Background(), source, target, createStmts{"orders": "CREATE TABLE `orders` (`id` int)"}.provide)
	require.NoError(t, err)
	require.NotEmpty(t, actions)
	for _, a := range actions {
		src, ok := source.Table(a.Table)
		require.True(t, ok, "table %s not in source", a.Table)
		if a.Kind != CreateTable {
			_, ok := src.Column(a.Column.Name)
			assert.True(t, ok, "column %s not in source", a.Column.Name)
		}
		assert.NotEqual(t, "ghosts", a.Table)
		assert.NotEqual(t, "extra", a.Column.Name)
	}
}

func TestComputeCreateStatementFailure(t *testing.T) {
	source := mustSchema(t, mustTable(t, "users", colID))
	target := mustSchema(t)

	actions, err := Compute(context.Background(), source, target, createStmts{}.provide)
	require.Error(t, err)
	assert.Nil(t, actions)
	assert.ErrorIs(t, err, schema.ErrSchemaRead)
}

func TestSummarizeAndDescribe(t *testing.T) {
	actions := []Action{
		{Kind: CreateTable, Table: "zeta", CreateStatement: "CREATE TABLE `zeta` (`id` int)"},
		{Kind: AddColumn, Table: "users", Column: colEmail},
		{Kind: ModifyColumn, Table: "users", Column: colID},
	}

	s := Summarize(actions)
	assert.Equal(t, Summary{CreateTables: 1, AddColumns: 1, ModifyColumns: 1}, s)
	assert.Equal(t, 3, s.Total())

	assert.Equal(t, "databases are synchronized", Describe(nil))
	want := "Table users: column email missing on target\n" +
		"Table users: column id differs (source: `id` int NOT NULL auto_increment)\n" +
		"Table zeta: missing on target"
	assert.Equal(t, want, Describe(actions))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "create_table", CreateTable.String())
	assert.Equal(t, "add_column", AddColumn.String())
	assert.Equal(t, "modify_column", ModifyColumn.String())
	assert.Equal(t, "kind(0)", Kind(0).String())
}
