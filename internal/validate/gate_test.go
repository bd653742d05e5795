package validate

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forge-data/crmforge/pkg/adapter"
	"github.com/forge-data/crmforge/pkg/core"
)

// mockAdapter runs queries against a sqlmock database.
type mockAdapter struct {
	adapter.BaseSQLAdapter
}

func (m *mockAdapter) Connect(ctx context.Context, cfg core.AdapterConfig) error { return nil }
func (m *mockAdapter) DialectName() string                                       { return "duckdb" }
func (m *mockAdapter) GetTableMetadata(ctx context.Context, table string) (*core.TableMetadata, error) {
	return nil, nil
}
func (m *mockAdapter) LoadCSV(ctx context.Context, table, filePath string, columns []core.ColumnDef) error {
	return nil
}

func newMockGate(t *testing.T) (*Gate, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	a := &mockAdapter{}
	a.DB = db
	return New(a, nil), mock
}

func TestGate_Run_AllPass(t *testing.T) {
	gate, mock := newMockGate(t)

	assertion := NotNull("dim_accounts", "marts.dim_accounts", "account_id")
	mock.ExpectQuery("SELECT COUNT(*) FROM (" + assertion.Query + ") AS failing").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	results := gate.Run(context.Background(), []Assertion{assertion})
	require.Len(t, results, 1)
	assert.True(t, results[0].Passed)
	assert.Zero(t, results[0].FailedRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGate_Run_FailureWithSample(t *testing.T) {
	gate, mock := newMockGate(t)

	assertion := Unique("dim_accounts", "marts.dim_accounts", "account_id")
	mock.ExpectQuery("SELECT COUNT(*) FROM (" + assertion.Query + ") AS failing").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("SELECT * FROM (" + assertion.Query + ") AS failing LIMIT 5").
		WillReturnRows(sqlmock.NewRows([]string{"account_id", "occurrences"}).
			AddRow("acc_1", 2).
			AddRow("acc_2", 3))

	results := gate.Run(context.Background(), []Assertion{assertion})
	require.Len(t, results, 1)
	assert.False(t, results[0].Passed)
	assert.EqualValues(t, 2, results[0].FailedRows)
	require.Len(t, results[0].Sample, 2)
	assert.Contains(t, results[0].Sample[0], "account_id=acc_1")
	assert.Contains(t, results[0].Sample[0], "occurrences=2")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGate_Run_BrokenAssertionIsIsolated(t *testing.T) {
	gate, mock := newMockGate(t)

	broken := Assertion{Name: "broken", Model: "dim_users", Category: CategoryExpression,
		Query: "SELECT * FROM marts.no_such_table"}
	healthy := NotNull("dim_users", "marts.dim_users", "user_id")

	mock.ExpectQuery("SELECT COUNT(*) FROM (" + broken.Query + ") AS failing").
		WillReturnError(assert.AnError)
	mock.ExpectQuery("SELECT COUNT(*) FROM (" + healthy.Query + ") AS failing").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	results := gate.Run(context.Background(), []Assertion{broken, healthy})
	require.Len(t, results, 2)

	assert.False(t, results[0].Passed)
	assert.Error(t, results[0].Err)
	assert.True(t, results[1].Passed, "a broken assertion must not abort the rest")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSummarize(t *testing.T) {
	results := []Result{
		{Passed: true},
		{Passed: false},
		{Passed: true},
	}
	s := Summarize(results)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Passed)
	assert.Equal(t, 1, s.Failed)
}

func TestAssertionBuilders(t *testing.T) {
	u := Unique("dim_accounts", "marts.dim_accounts", "account_id")
	assert.Equal(t, "unique__dim_accounts__account_id", u.Name)
	assert.Contains(t, u.Query, "HAVING COUNT(*) > 1")

	nn := NotNull("dim_accounts", "marts.dim_accounts", "account_id")
	assert.Contains(t, nn.Query, "WHERE account_id IS NULL")

	rel := Relationship("fct_opportunities", "marts.fct_opportunities", "account_id",
		"marts.dim_accounts", "account_id")
	assert.Equal(t, "relationships__fct_opportunities__account_id__dim_accounts", rel.Name)
	assert.Contains(t, rel.Query, "LEFT JOIN marts.dim_accounts")
	assert.Contains(t, rel.Query, "d.account_id IS NULL")

	rng := AcceptedRange("dim_contacts", "marts.dim_contacts", "win_rate", 0, 100)
	assert.Contains(t, rng.Query, "win_rate < 0 OR win_rate > 100")

	av := AcceptedValues("dim_contacts", "marts.dim_contacts", "engagement_level",
		[]string{"High", "Medium", "Low"})
	assert.Contains(t, av.Query, "NOT IN ('High', 'Medium', 'Low')")
}
