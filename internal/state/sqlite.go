// Package state persists build history: runs, per-model outcomes, and
// assertion results. The store is a local SQLite database so history
// survives process restarts without needing the warehouse itself.
package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/forge-data/crmforge/pkg/core"
)

// SQLiteStore implements core.Store on SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// New creates a SQLite state store.
func New(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// Open opens the database. Use ":memory:" for an in-memory store.
func (s *SQLiteStore) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open state database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping state database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) ensureOpen() error {
	if s.db == nil {
		return fmt.Errorf("state database not opened")
	}
	return nil
}

func generateID() string {
	return uuid.New().String()
}

// CreateRun records the start of a build against a target.
func (s *SQLiteStore) CreateRun(target string) (*core.Run, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	run := &core.Run{
		ID:        generateID(),
		Target:    target,
		Status:    core.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	s.logger.Debug("creating run", "id", run.ID, "target", target)

	_, err := s.db.Exec(
		`INSERT INTO runs (id, target, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Target, run.Status, run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*core.Run, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	run := &core.Run{}
	var completedAt sql.NullTime
	var errMsg sql.NullString

	err := s.db.QueryRow(
		`SELECT id, target, status, started_at, completed_at, error, failed_assertions FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.Target, &run.Status, &run.StartedAt, &completedAt, &errMsg, &run.FailedAssertions)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	run.Error = errMsg.String
	return run, nil
}

// CompleteRun marks a run finished with the given status and the number
// of quality assertions that failed against its output.
func (s *SQLiteStore) CompleteRun(id string, status core.RunStatus, errMsg string, failedAssertions int) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}

	now := time.Now().UTC()
	var errVal any
	if errMsg != "" {
		errVal = errMsg
	}

	_, err := s.db.Exec(
		`UPDATE runs SET status = ?, completed_at = ?, error = ?, failed_assertions = ? WHERE id = ?`,
		status, now, errVal, failedAssertions, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// GetLatestRun retrieves the most recent run for a target, or nil if the
// target has never been built.
func (s *SQLiteStore) GetLatestRun(target string) (*core.Run, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	run := &core.Run{}
	var completedAt sql.NullTime
	var errMsg sql.NullString

	err := s.db.QueryRow(
		`SELECT id, target, status, started_at, completed_at, error, failed_assertions
		 FROM runs WHERE target = ? ORDER BY started_at DESC LIMIT 1`, target,
	).Scan(&run.ID, &run.Target, &run.Status, &run.StartedAt, &completedAt, &errMsg, &run.FailedAssertions)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	run.Error = errMsg.String
	return run, nil
}

// RecordModelRun inserts a model run record, assigning its ID.
func (s *SQLiteStore) RecordModelRun(mr *core.ModelRun) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if mr.ID == "" {
		mr.ID = generateID()
	}

	var errVal any
	if mr.Error != "" {
		errVal = mr.Error
	}
	_, err := s.db.Exec(
		`INSERT INTO model_runs (id, run_id, model_name, status, rows_affected, error, execution_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		mr.ID, mr.RunID, mr.ModelName, mr.Status, mr.RowsAffected, errVal, mr.ExecutionMS,
	)
	if err != nil {
		return fmt.Errorf("failed to record model run: %w", err)
	}
	return nil
}

// UpdateModelRun updates a model run's outcome.
func (s *SQLiteStore) UpdateModelRun(id string, status core.ModelRunStatus, rowsAffected int64, errMsg string, executionMS int64) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}

	var errVal any
	if errMsg != "" {
		errVal = errMsg
	}
	_, err := s.db.Exec(
		`UPDATE model_runs SET status = ?, rows_affected = ?, error = ?, execution_ms = ? WHERE id = ?`,
		status, rowsAffected, errVal, executionMS, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update model run: %w", err)
	}
	return nil
}

// GetModelRunsForRun retrieves all model runs for a run, ordered by model
// name for stable output.
func (s *SQLiteStore) GetModelRunsForRun(runID string) ([]*core.ModelRun, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT id, run_id, model_name, status, rows_affected, error, execution_ms
		 FROM model_runs WHERE run_id = ? ORDER BY model_name`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get model runs: %w", err)
	}
	defer rows.Close()

	var result []*core.ModelRun
	for rows.Next() {
		mr := &core.ModelRun{}
		var errMsg sql.NullString
		if err := rows.Scan(&mr.ID, &mr.RunID, &mr.ModelName, &mr.Status,
			&mr.RowsAffected, &errMsg, &mr.ExecutionMS); err != nil {
			return nil, fmt.Errorf("failed to scan model run: %w", err)
		}
		mr.Error = errMsg.String
		result = append(result, mr)
	}
	return result, rows.Err()
}

// RecordAssertionResult inserts an assertion result, assigning its ID.
func (s *SQLiteStore) RecordAssertionResult(ar *core.AssertionResult) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if ar.ID == "" {
		ar.ID = generateID()
	}

	var errVal any
	if ar.Error != "" {
		errVal = ar.Error
	}
	var sampleVal any
	if ar.Sample != "" {
		sampleVal = ar.Sample
	}
	_, err := s.db.Exec(
		`INSERT INTO assertion_results (id, run_id, name, model, category, passed, failed_rows, sample, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ar.ID, ar.RunID, ar.Name, ar.Model, ar.Category, ar.Passed, ar.FailedRows, sampleVal, errVal,
	)
	if err != nil {
		return fmt.Errorf("failed to record assertion result: %w", err)
	}
	return nil
}

// GetAssertionResultsForRun retrieves all assertion results for a run,
// ordered by assertion name.
func (s *SQLiteStore) GetAssertionResultsForRun(runID string) ([]*core.AssertionResult, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT id, run_id, name, model, category, passed, failed_rows, sample, error
		 FROM assertion_results WHERE run_id = ? ORDER BY name`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get assertion results: %w", err)
	}
	defer rows.Close()

	var result []*core.AssertionResult
	for rows.Next() {
		ar := &core.AssertionResult{}
		var sample, errMsg sql.NullString
		if err := rows.Scan(&ar.ID, &ar.RunID, &ar.Name, &ar.Model, &ar.Category,
			&ar.Passed, &ar.FailedRows, &sample, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan assertion result: %w", err)
		}
		ar.Sample = sample.String
		ar.Error = errMsg.String
		result = append(result, ar)
	}
	return result, rows.Err()
}

// Ensure SQLiteStore implements core.Store.
var _ core.Store = (*SQLiteStore)(nil)
