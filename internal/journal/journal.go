// Package journal keeps a durable record of every reminder job state
// transition in SQLite. The journal backs diagnostics listings and the
// startup reconciliation after a reboot.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/jmcfet/promoUI-sub009/internal/reminder"
	"github.com/jmcfet/promoUI-sub009/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS job_journal (
	id         TEXT PRIMARY KEY,
	job_id     TEXT NOT NULL,
	kind       TEXT NOT NULL,
	state      TEXT NOT NULL,
	start_time INTEGER NOT NULL,
	recorded   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_job_journal_job ON job_journal(job_id, recorded);
CREATE INDEX IF NOT EXISTS idx_job_journal_state ON job_journal(state);
`

// Entry is one recorded transition.
type Entry struct {
	ID        string         `json:"id"`
	JobID     string         `json:"jobId"`
	Kind      reminder.Kind  `json:"kind"`
	State     types.JobState `json:"state"`
	StartTime time.Time      `json:"startTime"`
	Recorded  time.Time      `json:"recorded"`
}

// Journal is the SQLite-backed transition log. It implements
// reminder.Journal.
type Journal struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open opens or creates the journal database at path. WAL mode and busy
// timeout are set on every pooled connection through the DSN.
func Open(path string, logger zerolog.Logger) (*Journal, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("journal: open: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: ping: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: migrate: %w", err)
	}

	return &Journal{db: db, logger: logger.With().Str("component", "journal").Logger()}, nil
}

// Close releases the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends one transition.
func (j *Journal) Record(ctx context.Context, jobID string, kind reminder.Kind, state types.JobState, startTime time.Time) error {
	const q = `INSERT INTO job_journal (id, job_id, kind, state, start_time, recorded) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := j.db.ExecContext(ctx, q,
		uuid.NewString(), jobID, string(kind), string(state), startTime.Unix(), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("journal: record %s/%s: %w", jobID, state, err)
	}
	return nil
}

// ByJob returns a job's transitions in recording order.
func (j *Journal) ByJob(ctx context.Context, jobID string) ([]Entry, error) {
	const q = `SELECT id, job_id, kind, state, start_time, recorded FROM job_journal WHERE job_id = ? ORDER BY recorded, rowid`
	return j.query(ctx, q, jobID)
}

// ByState returns the most recent entries currently in the given state,
// newest first, at most limit rows.
func (j *Journal) ByState(ctx context.Context, state types.JobState, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT id, job_id, kind, state, start_time, recorded FROM job_journal WHERE state = ? ORDER BY recorded DESC, rowid DESC LIMIT ?`
	return j.query(ctx, q, string(state), limit)
}

func (j *Journal) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: query: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e               Entry
			start, recorded int64
		)
		if err := rows.Scan(&e.ID, &e.JobID, &e.Kind, &e.State, &start, &recorded); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		e.StartTime = time.Unix(start, 0).UTC()
		e.Recorded = time.Unix(recorded, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// Prune drops entries recorded before the cutoff and returns how many
// were removed.
func (j *Journal) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := j.db.ExecContext(ctx, `DELETE FROM job_journal WHERE recorded < ?`, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("journal: prune: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		j.logger.Info().Int64("removed", n).Time("before", before).Msg("journal pruned")
	}
	return n, nil
}

// ExportSnapshot writes all entries as JSON to path, atomically: readers
// never observe a partial file.
func (j *Journal) ExportSnapshot(ctx context.Context, path string) error {
	const q = `SELECT id, job_id, kind, state, start_time, recorded FROM job_journal ORDER BY recorded, rowid`
	entries, err := j.query(ctx, q)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []Entry{}
	}

	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("journal: encode snapshot: %w", err)
	}
	if err := renameio.WriteFile(path, raw, os.FileMode(0o644)); err != nil {
		return fmt.Errorf("journal: write snapshot: %w", err)
	}
	j.logger.Debug().Str("path", path).Int("entries", len(entries)).Msg("snapshot exported")
	return nil
}
