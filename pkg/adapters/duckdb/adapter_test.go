//go:build integration

package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forge-data/crmforge/pkg/core"
)

func newConnected(t *testing.T) *Adapter {
	t.Helper()
	a := New()
	require.NoError(t, a.Connect(context.Background(), core.AdapterConfig{Type: "duckdb"}))
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestConnectInMemory(t *testing.T) {
	a := newConnected(t)
	assert.True(t, a.IsConnected())
	require.NoError(t, a.Exec(context.Background(), "SELECT 1"))
}

func TestExecAndQuery(t *testing.T) {
	ctx := context.Background()
	a := newConnected(t)

	require.NoError(t, a.Exec(ctx, "CREATE TABLE t (id VARCHAR, n INTEGER)"))
	require.NoError(t, a.Exec(ctx, "INSERT INTO t VALUES ('a', 1), ('b', 2)"))

	rows, err := a.Query(ctx, "SELECT COUNT(*) FROM t")
	require.NoError(t, err)
	defer rows.Close()
	require.True(t, rows.Next())
	var count int64
	require.NoError(t, rows.Scan(&count))
	assert.EqualValues(t, 2, count)
}

func TestGetTableMetadata(t *testing.T) {
	ctx := context.Background()
	a := newConnected(t)

	require.NoError(t, a.Exec(ctx, "CREATE SCHEMA marts"))
	require.NoError(t, a.Exec(ctx,
		"CREATE TABLE marts.dim_accounts (account_id VARCHAR NOT NULL, account_name VARCHAR)"))
	require.NoError(t, a.Exec(ctx, "INSERT INTO marts.dim_accounts VALUES ('acc_1', 'Acme')"))

	meta, err := a.GetTableMetadata(ctx, "marts.dim_accounts")
	require.NoError(t, err)
	assert.Equal(t, "marts", meta.Schema)
	assert.Equal(t, "dim_accounts", meta.Name)
	assert.EqualValues(t, 1, meta.RowCount)
	require.Len(t, meta.Columns, 2)
	assert.Equal(t, "account_id", meta.Columns[0].Name)
	assert.False(t, meta.Columns[0].Nullable)
	assert.True(t, meta.Columns[1].Nullable)

	_, err = a.GetTableMetadata(ctx, "marts.missing")
	assert.Error(t, err)
}

func TestLoadCSVWithDeclaredTypes(t *testing.T) {
	ctx := context.Background()
	a := newConnected(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "accounts.csv")
	require.NoError(t, os.WriteFile(path,
		[]byte("id,annual_revenue,created_date\nacc_1,5000000,2023-02-01\n"), 0o600))

	require.NoError(t, a.Exec(ctx, "CREATE SCHEMA raw"))
	cols := []core.ColumnDef{
		{Name: "id", Type: "VARCHAR"},
		{Name: "annual_revenue", Type: "DOUBLE"},
		{Name: "created_date", Type: "DATE"},
	}
	require.NoError(t, a.LoadCSV(ctx, "raw.accounts", path, cols))

	meta, err := a.GetTableMetadata(ctx, "raw.accounts")
	require.NoError(t, err)
	assert.EqualValues(t, 1, meta.RowCount)
	assert.Equal(t, "DOUBLE", meta.Columns[1].Type)
	assert.Equal(t, "DATE", meta.Columns[2].Type)
}

func TestLoadCSVReplacesExisting(t *testing.T) {
	ctx := context.Background()
	a := newConnected(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "users.csv")
	require.NoError(t, os.WriteFile(path, []byte("id\nusr_1\nusr_2\n"), 0o600))

	require.NoError(t, a.Exec(ctx, "CREATE SCHEMA raw"))
	require.NoError(t, a.LoadCSV(ctx, "raw.users", path, nil))
	require.NoError(t, a.LoadCSV(ctx, "raw.users", path, nil))

	meta, err := a.GetTableMetadata(ctx, "raw.users")
	require.NoError(t, err)
	assert.EqualValues(t, 2, meta.RowCount, "reload replaces, never appends")
}
