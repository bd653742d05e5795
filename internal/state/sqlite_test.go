package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forge-data/crmforge/pkg/core"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s := New(nil)
	require.NoError(t, s.Open(":memory:"))
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	s := newTestStore(t)

	run, err := s.CreateRun("dev")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, core.RunStatusRunning, run.Status)

	got, err := s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, "dev", got.Target)
	assert.Nil(t, got.CompletedAt)

	require.NoError(t, s.CompleteRun(run.ID, core.RunStatusCompleted, "", 0))

	got, err = s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.Empty(t, got.Error)
	assert.Zero(t, got.FailedAssertions)
}

func TestSQLiteStore_CompleteRunWithError(t *testing.T) {
	s := newTestStore(t)

	run, err := s.CreateRun("dev")
	require.NoError(t, err)
	require.NoError(t, s.CompleteRun(run.ID, core.RunStatusFailed, "model int_campaigns__performance: compute failed", 0))

	got, err := s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusFailed, got.Status)
	assert.Contains(t, got.Error, "compute failed")
}

func TestSQLiteStore_CompleteRunRecordsFailedAssertions(t *testing.T) {
	s := newTestStore(t)

	run, err := s.CreateRun("dev")
	require.NoError(t, err)
	require.NoError(t, s.CompleteRun(run.ID, core.RunStatusCompleted, "", 2))

	got, err := s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusCompleted, got.Status)
	assert.Equal(t, 2, got.FailedAssertions)

	latest, err := s.GetLatestRun("dev")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 2, latest.FailedAssertions)
}

func TestSQLiteStore_GetRun_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetRun("no-such-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLiteStore_GetLatestRun(t *testing.T) {
	s := newTestStore(t)

	latest, err := s.GetLatestRun("dev")
	require.NoError(t, err)
	assert.Nil(t, latest, "no runs yet")

	_, err = s.CreateRun("dev")
	require.NoError(t, err)
	second, err := s.CreateRun("dev")
	require.NoError(t, err)
	_, err = s.CreateRun("prod")
	require.NoError(t, err)

	latest, err = s.GetLatestRun("dev")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)
}

func TestSQLiteStore_ModelRuns(t *testing.T) {
	s := newTestStore(t)

	run, err := s.CreateRun("dev")
	require.NoError(t, err)

	mr := &core.ModelRun{
		RunID:     run.ID,
		ModelName: "dim_accounts",
		Status:    core.ModelRunStatusRunning,
	}
	require.NoError(t, s.RecordModelRun(mr))
	require.NotEmpty(t, mr.ID)

	require.NoError(t, s.UpdateModelRun(mr.ID, core.ModelRunStatusSuccess, 42, "", 120))

	runs, err := s.GetModelRunsForRun(run.ID)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, core.ModelRunStatusSuccess, runs[0].Status)
	assert.EqualValues(t, 42, runs[0].RowsAffected)
	assert.EqualValues(t, 120, runs[0].ExecutionMS)
}

func TestSQLiteStore_ModelRuns_SkippedAndFailed(t *testing.T) {
	s := newTestStore(t)

	run, err := s.CreateRun("dev")
	require.NoError(t, err)

	failed := &core.ModelRun{RunID: run.ID, ModelName: "int_campaigns__performance", Status: core.ModelRunStatusFailed, Error: "bad aggregate"}
	skipped := &core.ModelRun{RunID: run.ID, ModelName: "fct_campaign_performance", Status: core.ModelRunStatusSkipped}
	require.NoError(t, s.RecordModelRun(failed))
	require.NoError(t, s.RecordModelRun(skipped))

	runs, err := s.GetModelRunsForRun(run.ID)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	// Ordered by model name.
	assert.Equal(t, "fct_campaign_performance", runs[0].ModelName)
	assert.Equal(t, core.ModelRunStatusSkipped, runs[0].Status)
	assert.Equal(t, "bad aggregate", runs[1].Error)
}

func TestSQLiteStore_AssertionResults(t *testing.T) {
	s := newTestStore(t)

	run, err := s.CreateRun("dev")
	require.NoError(t, err)

	pass := &core.AssertionResult{
		RunID: run.ID, Name: "unique__dim_accounts__account_id",
		Model: "dim_accounts", Category: "unique", Passed: true,
	}
	fail := &core.AssertionResult{
		RunID: run.ID, Name: "accepted_range__dim_contacts__win_rate",
		Model: "dim_contacts", Category: "accepted_range",
		Passed: false, FailedRows: 3, Sample: "contact_id=c1 win_rate=120",
	}
	require.NoError(t, s.RecordAssertionResult(pass))
	require.NoError(t, s.RecordAssertionResult(fail))

	results, err := s.GetAssertionResultsForRun(run.ID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	// Ordered by assertion name.
	assert.False(t, results[0].Passed)
	assert.EqualValues(t, 3, results[0].FailedRows)
	assert.Contains(t, results[0].Sample, "win_rate=120")
	assert.True(t, results[1].Passed)
}

func TestSQLiteStore_MigrationVersion(t *testing.T) {
	s := newTestStore(t)
	version, err := s.MigrationVersion()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, version, int64(1))
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	s := New(nil)
	_, err := s.CreateRun("dev")
	require.Error(t, err)
}
