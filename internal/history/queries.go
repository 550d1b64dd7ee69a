package history

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"tiff2bit/internal/processor"
)

// Batch is a recorded dispatcher run.
type Batch struct {
	ID          int64
	StartedAt   time.Time
	FinishedAt  time.Time
	OutputDir   string
	Pattern     string
	Invert      bool
	Total       int
	Converted   int
	Unsupported int
	Failed      int
	Skipped     int
}

// Job is a recorded per-file outcome.
type Job struct {
	ID           int64
	BatchID      int64
	Source       string
	Destination  string
	Status       string
	ErrorMessage *string
	SourceBits   int
	Width        int
	Height       int
	Duration     time.Duration
	SourceMTime  time.Time
}

// RecordBatch stores a finished batch and every started job in one
// transaction and returns the batch ID.
func (db *DB) RecordBatch(opts processor.Options, s processor.Summary, finished time.Time) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	started := finished.Add(-s.Elapsed)
	result, err := tx.Exec(`
		INSERT INTO batches (started_at, finished_at, output_dir, pattern, invert,
			total, converted, unsupported, failed, skipped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		started.Unix(), finished.Unix(), opts.OutputDir, opts.Pattern.String(), opts.Invert,
		s.Total, s.Converted, s.Unsupported, s.Failed, s.Skipped,
	)
	if err != nil {
		return 0, err
	}
	batchID, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO jobs (batch_id, source, destination, status, error_message,
			source_bits, width, height, duration_ms, source_mtime)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, r := range s.Results {
		if r.Status == processor.StatusSkipped {
			continue
		}
		var msg *string
		if r.Err != nil {
			text := r.Err.Error()
			msg = &text
		}
		var mtime int64
		if info, err := os.Stat(r.Source); err == nil {
			mtime = info.ModTime().UnixNano()
		}
		if _, err := stmt.Exec(batchID, absPath(r.Source), absPath(r.Destination), r.Status.String(), msg,
			r.SourceBits, r.Width, r.Height, r.Duration.Milliseconds(), mtime); err != nil {
			return 0, err
		}
	}

	return batchID, tx.Commit()
}

// ListBatches returns the most recent batches, newest first.
func (db *DB) ListBatches(limit int) ([]*Batch, error) {
	rows, err := db.Query(`
		SELECT id, started_at, finished_at, output_dir, pattern, invert,
			total, converted, unsupported, failed, skipped
		FROM batches ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []*Batch
	for rows.Next() {
		var b Batch
		var started, finished int64
		if err := rows.Scan(&b.ID, &started, &finished, &b.OutputDir, &b.Pattern, &b.Invert,
			&b.Total, &b.Converted, &b.Unsupported, &b.Failed, &b.Skipped); err != nil {
			return nil, err
		}
		b.StartedAt = time.Unix(started, 0)
		b.FinishedAt = time.Unix(finished, 0)
		batches = append(batches, &b)
	}
	return batches, rows.Err()
}

// ListJobs returns the jobs of a batch in insertion order.
func (db *DB) ListJobs(batchID int64) ([]*Job, error) {
	rows, err := db.Query(`
		SELECT id, batch_id, source, destination, status, error_message,
			source_bits, width, height, duration_ms, source_mtime
		FROM jobs WHERE batch_id = ? ORDER BY id`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		var j Job
		var errMsg sql.NullString
		var durationMS, mtime int64
		if err := rows.Scan(&j.ID, &j.BatchID, &j.Source, &j.Destination, &j.Status, &errMsg,
			&j.SourceBits, &j.Width, &j.Height, &durationMS, &mtime); err != nil {
			return nil, err
		}
		if errMsg.Valid {
			j.ErrorMessage = &errMsg.String
		}
		j.Duration = time.Duration(durationMS) * time.Millisecond
		j.SourceMTime = time.Unix(0, mtime)
		jobs = append(jobs, &j)
	}
	return jobs, rows.Err()
}

// WasHandled reports whether source was converted, or found unsupported,
// while it had modification time mtime. Failed jobs do not count.
func (db *DB) WasHandled(source string, mtime time.Time) (bool, error) {
	var id int64
	err := db.QueryRow(`
		SELECT id FROM jobs
		WHERE source = ? AND status IN (?, ?) AND source_mtime = ?
		LIMIT 1`, absPath(source), processor.StatusConverted.String(), processor.StatusUnsupported.String(),
		mtime.UnixNano()).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// CleanupOldData deletes batches that finished more than retentionDays ago.
func (db *DB) CleanupOldData(retentionDays int) error {
	cutoff := time.Now().AddDate(0, 0, -retentionDays).Unix()
	_, err := db.Exec("DELETE FROM batches WHERE finished_at < ?", cutoff)
	return err
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
