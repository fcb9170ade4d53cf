package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// CreateRun records the start of a parse run.
func (s *Store) CreateRun(mode, root, target string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &Run{
		ID:        generateID(),
		Mode:      mode,
		Root:      root,
		Target:    target,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}

	s.logger.Debug("creating run",
		slog.String("id", run.ID), slog.String("mode", mode), slog.String("root", root))

	_, err := s.db.Exec(
		`INSERT INTO runs (id, mode, root, target, base_name, status, samples, started_at)
		 VALUES (?, ?, ?, ?, '', ?, 0, ?)`,
		run.ID, run.Mode, run.Root, run.Target, run.Status, run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a run as finished with its outcome.
func (s *Store) CompleteRun(id string, status Status, samples int, baseName, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	now := time.Now().UTC()
	var errVal sql.NullString
	if errMsg != "" {
		errVal = sql.NullString{String: errMsg, Valid: true}
	}

	res, err := s.db.Exec(
		`UPDATE runs SET status = ?, samples = ?, base_name = ?, error = ?, completed_at = ?
		 WHERE id = ?`,
		status, samples, baseName, errVal, now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(id string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run, err := s.scanRun(s.db.QueryRow(selectRuns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// GetLatestRun retrieves the most recent run, or nil when there is none.
func (s *Store) GetLatestRun() (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run, err := s.scanRun(s.db.QueryRow(selectRuns + ` ORDER BY started_at DESC LIMIT 1`))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves the most recent runs up to the given limit. A limit
// of zero or less returns everything.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(selectRuns+` ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := s.scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

const selectRuns = `SELECT id, mode, root, target, base_name, status, samples, error, started_at, completed_at FROM runs`

type scannable interface {
	Scan(dest ...any) error
}

func (s *Store) scanRun(row scannable) (*Run, error) {
	run := &Run{}
	var errMsg sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(&run.ID, &run.Mode, &run.Root, &run.Target, &run.BaseName,
		&run.Status, &run.Samples, &errMsg, &run.StartedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	if errMsg.Valid {
		run.Error = errMsg.String
	}
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	return run, nil
}
