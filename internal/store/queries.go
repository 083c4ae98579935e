package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/blackwell-systems/uassist/internal/userassist"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	Prepare(query string) (*sql.Stmt, error)
}

// Run operations

// InsertRun records a run. An empty ID is replaced by a new random UUID,
// which is returned.
func (s *Store) InsertRun(run *Run) (string, error) {
	return insertRun(s.db, run)
}

func insertRun(ex execer, run *Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	query := `
		INSERT INTO runs
		(id, source, started_at, record_count, excluded_count, skipped_count, output_path)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := ex.Exec(query,
		run.ID,
		run.Source,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.RecordCount,
		run.ExcludedCount,
		run.SkippedCount,
		run.OutputPath,
	)
	if err != nil {
		return "", wrapQueryErr(err, fmt.Sprintf("failed to insert run %s", run.ID))
	}
	return run.ID, nil
}

// GetRun retrieves a run by ID. A unique ID prefix is also accepted.
func (s *Store) GetRun(id string) (*Run, error) {
	if id == "" {
		return nil, fmt.Errorf("empty run ID: %w", ErrRunNotFound)
	}
	query := `
		SELECT id, source, started_at, record_count, excluded_count, skipped_count, output_path
		FROM runs
		WHERE id = ? OR substr(id, 1, length(?)) = ?
		ORDER BY (id = ?) DESC
		LIMIT 2
	`
	rows, err := s.db.Query(query, id, id, id, id)
	if err != nil {
		return nil, wrapQueryErr(err, fmt.Sprintf("failed to get run %s", id))
	}
	defer rows.Close()

	runs, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}
	switch {
	case len(runs) == 0:
		return nil, fmt.Errorf("run %s: %w", id, ErrRunNotFound)
	case len(runs) > 1 && runs[0].ID != id:
		return nil, fmt.Errorf("run ID prefix %s is ambiguous", id)
	}
	return runs[0], nil
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns() ([]*Run, error) {
	query := `
		SELECT id, source, started_at, record_count, excluded_count, skipped_count, output_path
		FROM runs
		ORDER BY started_at DESC, id
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, wrapQueryErr(err, "failed to list runs")
	}
	defer rows.Close()

	return scanRuns(rows)
}

// DeleteRun removes a run and, through the foreign key, its records.
func (s *Store) DeleteRun(id string) error {
	result, err := s.db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return wrapQueryErr(err, fmt.Sprintf("failed to delete run %s", id))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run %s: %w", id, ErrRunNotFound)
	}
	return nil
}

func scanRuns(rows *sql.Rows) ([]*Run, error) {
	var runs []*Run
	for rows.Next() {
		var run Run
		var startedAt string
		var outputPath sql.NullString

		err := rows.Scan(
			&run.ID,
			&run.Source,
			&startedAt,
			&run.RecordCount,
			&run.ExcludedCount,
			&run.SkippedCount,
			&outputPath,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}

		run.StartedAt, err = time.Parse(time.RFC3339, startedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse started_at for %s: %w", run.ID, err)
		}
		run.OutputPath = outputPath.String

		runs = append(runs, &run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// Record operations

// InsertRecords stores records for a run in a single transaction.
func (s *Store) InsertRecords(runID string, records []*userassist.Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertRecords(tx, runID, records); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit records: %w", err)
	}
	return nil
}

func insertRecords(ex execer, runID string, records []*userassist.Record) error {
	stmt, err := ex.Prepare(`
		INSERT INTO records
		(run_id, program_name, run_counter, focus_count, focus_time_ms, focus_time, last_executed_raw, last_executed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return wrapQueryErr(err, "failed to prepare record insert")
	}
	defer stmt.Close()

	for _, rec := range records {
		_, err := stmt.Exec(
			runID,
			rec.ProgramName,
			rec.RunCounter,
			rec.FocusCount,
			rec.FocusTimeMS,
			rec.FocusTime,
			// SQLite integers are signed 64-bit; FILETIMEs fit until the year 30828.
			int64(rec.LastExecutedRaw),
			rec.LastExecuted,
		)
		if err != nil {
			return fmt.Errorf("failed to insert record %s: %w", rec.ProgramName, err)
		}
	}
	return nil
}

// ListRecords returns the records of a run in insertion order.
func (s *Store) ListRecords(runID string) ([]*userassist.Record, error) {
	query := `
		SELECT program_name, run_counter, focus_count, focus_time_ms, focus_time, last_executed_raw, last_executed
		FROM records
		WHERE run_id = ?
		ORDER BY id
	`
	rows, err := s.db.Query(query, runID)
	if err != nil {
		return nil, wrapQueryErr(err, fmt.Sprintf("failed to list records for run %s", runID))
	}
	defer rows.Close()

	var records []*userassist.Record
	for rows.Next() {
		var rec userassist.Record
		var lastRaw int64
		var lastExecuted sql.NullString

		err := rows.Scan(
			&rec.ProgramName,
			&rec.RunCounter,
			&rec.FocusCount,
			&rec.FocusTimeMS,
			&rec.FocusTime,
			&lastRaw,
			&lastExecuted,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record row: %w", err)
		}
		rec.LastExecutedRaw = uint64(lastRaw)
		rec.LastExecuted = lastExecuted.String

		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}
	return records, nil
}

// SaveRun inserts a run and its records in one transaction. Either both are
// stored or neither is.
func (s *Store) SaveRun(run *Run, records []*userassist.Record) (string, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	run.RecordCount = len(records)
	id, err := insertRun(tx, run)
	if err != nil {
		return "", err
	}
	if err := insertRecords(tx, id, records); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run %s: %w", id, err)
	}
	return id, nil
}
