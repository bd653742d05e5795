package core

import "time"

// Store is the build-state contract: run history, per-model outcomes, and
// validation results, persisted across process restarts.
type Store interface {
	Open(path string) error
	Close() error
	Migrate() error

	CreateRun(target string) (*Run, error)
	GetRun(id string) (*Run, error)
	CompleteRun(id string, status RunStatus, errMsg string, failedAssertions int) error
	GetLatestRun(target string) (*Run, error)

	RecordModelRun(mr *ModelRun) error
	UpdateModelRun(id string, status ModelRunStatus, rowsAffected int64, errMsg string, executionMS int64) error
	GetModelRunsForRun(runID string) ([]*ModelRun, error)

	RecordAssertionResult(ar *AssertionResult) error
	GetAssertionResultsForRun(runID string) ([]*AssertionResult, error)
}

// RunStatus represents the status of a build run.
type RunStatus string

// Run status constants.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Run represents a single build invocation. A completed run with a
// non-zero FailedAssertions built successfully but did not pass the
// quality gate.
type Run struct {
	ID               string
	Target           string
	Status           RunStatus
	StartedAt        time.Time
	CompletedAt      *time.Time
	Error            string
	FailedAssertions int
}

// ModelRunStatus represents the outcome of one model within a run.
type ModelRunStatus string

// Model run status constants.
const (
	ModelRunStatusPending ModelRunStatus = "pending"
	ModelRunStatusRunning ModelRunStatus = "running"
	ModelRunStatusSuccess ModelRunStatus = "success"
	ModelRunStatusFailed  ModelRunStatus = "failed"
	ModelRunStatusSkipped ModelRunStatus = "skipped"
)

// ModelRun records one model execution within a run.
type ModelRun struct {
	ID           string
	RunID        string
	ModelName    string
	Status       ModelRunStatus
	RowsAffected int64
	Error        string
	ExecutionMS  int64
}

// AssertionResult records one validation assertion outcome within a run.
type AssertionResult struct {
	ID         string
	RunID      string
	Name       string
	Model      string
	Category   string
	Passed     bool
	FailedRows int64
	// Sample is a bounded, human-readable sample of offending rows.
	Sample string
	Error  string
}
