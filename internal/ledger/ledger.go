// Package ledger keeps a SQLite history of processed documents across runs.
package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNoRun is returned by Record when no run ID is given and BeginRun was never called.
var ErrNoRun = errors.New("no run started")

// Record is one attempted document in one run.
type Record struct {
	RunID       string    `json:"run_id"`
	Source      string    `json:"source"`
	Category    string    `json:"category,omitempty"`
	State       string    `json:"state"`
	Error       string    `json:"error,omitempty"`
	Destination string    `json:"destination,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// Ledger wraps the history database.
type Ledger struct {
	db    *sql.DB
	runID string
	now   func() time.Time
}

// Open opens or creates the history database at path, creating its
// parent directory if needed.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Ledger{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS records (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			source TEXT NOT NULL,
			category TEXT,
			state TEXT NOT NULL,
			error TEXT,
			destination TEXT,
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_records_run ON records(run_id);
	`
	_, err := db.Exec(schema)
	return err
}

// BeginRun starts a new run and returns its ID. Later calls to Record
// without a run ID are attributed to it.
func (l *Ledger) BeginRun() (string, error) {
	id := uuid.NewString()
	if _, err := l.db.Exec(`INSERT INTO runs (id, started_at) VALUES (?, ?)`, id, l.now().UnixNano()); err != nil {
		return "", fmt.Errorf("starting run: %w", err)
	}
	l.runID = id
	return id, nil
}

// Record appends r to the history.
func (l *Ledger) Record(r Record) error {
	if r.RunID == "" {
		r.RunID = l.runID
	}
	if r.RunID == "" {
		return ErrNoRun
	}

	_, err := l.db.Exec(`
		INSERT INTO records (run_id, source, category, state, error, destination, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.RunID, r.Source, nullable(r.Category), r.State, nullable(r.Error), nullable(r.Destination),
		r.StartedAt.UnixNano(), r.FinishedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("recording %s: %w", r.Source, err)
	}
	return nil
}

// Recent returns up to limit records, newest first. A limit of zero or
// less returns everything.
func (l *Ledger) Recent(limit int) ([]Record, error) {
	query := `SELECT run_id, source, category, state, error, destination, started_at, finished_at
		FROM records ORDER BY seq DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := l.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var category, errText, destination sql.NullString
		var started, finished int64
		if err := rows.Scan(&r.RunID, &r.Source, &category, &r.State, &errText, &destination, &started, &finished); err != nil {
			return nil, err
		}
		r.Category = category.String
		r.Error = errText.String
		r.Destination = destination.String
		r.StartedAt = time.Unix(0, started)
		r.FinishedAt = time.Unix(0, finished)
		records = append(records, r)
	}
	return records, rows.Err()
}

// nullable treats the empty string as NULL.
func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
