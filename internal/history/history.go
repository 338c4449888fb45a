// Package history records report runs in a local SQLite ledger so audit
// counts can be compared between runs without re-querying the portal.
package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/nishad/encode-audit/internal/errors"
	"github.com/nishad/encode-audit/internal/paths"
)

// Run statuses
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run is one report invocation.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt *time.Time
	Server     string
	MatrixURL  string
	Filters    map[string][]string
	Outfile    string
	AllAssays  bool
	AllAudits  bool
	Status     string
	Error      string
	Rows       int
	Fetches    int
}

// Cell is one refinement-backed report cell of a run.
type Cell struct {
	RunID         string
	BiosampleType string
	BiosampleName string
	Column        string
	URL           string
	Total         int
	Error         int
	NotCompliant  int
	Warning       int
	DCCAction     int
}

// Store wraps the ledger database
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the ledger at path.
func Open(path string) (*Store, error) {
	const op errors.Op = "history.Open"

	if err := paths.EnsureDirectories(filepath.Dir(path)); err != nil {
		return nil, errors.E(op, errors.KindStorage, err, "failed to create history directory")
	}

	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, errors.E(op, errors.KindStorage, err, "failed to open database")
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, errors.E(op, errors.KindStorage, err, "failed to create tables")
	}

	// Runs are written sequentially from one goroutine.
	db.SetMaxOpenConns(1)

	return &Store{db: db, path: path}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		server TEXT,
		matrix_url TEXT,
		filters JSON,
		outfile TEXT,
		all_assays BOOLEAN,
		all_audits BOOLEAN,
		status TEXT NOT NULL,
		error TEXT,
		row_count INTEGER DEFAULT 0,
		fetch_count INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS cells (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		biosample_type TEXT,
		biosample_name TEXT,
		column_name TEXT,
		url TEXT,
		total INTEGER,
		error INTEGER,
		not_compliant INTEGER,
		warning INTEGER,
		dcc_action INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_cells_run ON cells(run_id);
	`
	_, err := db.Exec(schema)
	return err
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database location
func (s *Store) Path() string {
	return s.path
}

// StartRun inserts a running entry, assigning an ID and start time when
// they are unset.
func (s *Store) StartRun(r *Run) error {
	const op errors.Op = "history.StartRun"

	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now().UTC()
	}
	r.Status = StatusRunning

	filters, err := json.Marshal(r.Filters)
	if err != nil {
		return errors.E(op, errors.KindStorage, err)
	}

	_, err = s.db.Exec(`INSERT INTO runs (id, started_at, server, matrix_url, filters, outfile, all_assays, all_audits, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt, r.Server, r.MatrixURL, string(filters), r.Outfile, r.AllAssays, r.AllAudits, r.Status)
	if err != nil {
		return errors.E(op, errors.KindStorage, err)
	}
	return nil
}

// RecordCell stores one cell tally for a run.
func (s *Store) RecordCell(c Cell) error {
	_, err := s.db.Exec(`INSERT INTO cells (run_id, biosample_type, biosample_name, column_name, url, total, error, not_compliant, warning, dcc_action)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.RunID, c.BiosampleType, c.BiosampleName, c.Column, c.URL, c.Total, c.Error, c.NotCompliant, c.Warning, c.DCCAction)
	if err != nil {
		return errors.E(errors.Op("history.RecordCell"), errors.KindStorage, err)
	}
	return nil
}

// FinishRun marks a run completed, or failed when runErr is non-nil.
func (s *Store) FinishRun(id, matrixURL string, rows, fetches int, runErr error) error {
	status, msg := StatusCompleted, ""
	if runErr != nil {
		status, msg = StatusFailed, runErr.Error()
	}

	res, err := s.db.Exec(`UPDATE runs SET finished_at = ?, matrix_url = ?, status = ?, error = ?, row_count = ?, fetch_count = ? WHERE id = ?`,
		time.Now().UTC(), matrixURL, status, msg, rows, fetches, id)
	if err != nil {
		return errors.E(errors.Op("history.FinishRun"), errors.KindStorage, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Errorf("history.FinishRun", errors.KindStorage, "run %s not found", id)
	}
	return nil
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`SELECT id, started_at, finished_at, server, matrix_url, filters, outfile, all_assays, all_audits, status, error, row_count, fetch_count
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.E(errors.Op("history.ListRuns"), errors.KindStorage, err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, errors.E(errors.Op("history.ListRuns"), errors.KindStorage, err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// GetRun returns a run by ID.
func (s *Store) GetRun(id string) (*Run, error) {
	row := s.db.QueryRow(`SELECT id, started_at, finished_at, server, matrix_url, filters, outfile, all_assays, all_audits, status, error, row_count, fetch_count
		FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, errors.Errorf("history.GetRun", errors.KindStorage, "run %s not found", id)
	}
	if err != nil {
		return nil, errors.E(errors.Op("history.GetRun"), errors.KindStorage, err)
	}
	return r, nil
}

// Cells returns the recorded cells of a run in insertion order.
func (s *Store) Cells(runID string) ([]Cell, error) {
	rows, err := s.db.Query(`SELECT run_id, biosample_type, biosample_name, column_name, url, total, error, not_compliant, warning, dcc_action
		FROM cells WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, errors.E(errors.Op("history.Cells"), errors.KindStorage, err)
	}
	defer rows.Close()

	var cells []Cell
	for rows.Next() {
		var c Cell
		if err := rows.Scan(&c.RunID, &c.BiosampleType, &c.BiosampleName, &c.Column, &c.URL,
			&c.Total, &c.Error, &c.NotCompliant, &c.Warning, &c.DCCAction); err != nil {
			return nil, errors.E(errors.Op("history.Cells"), errors.KindStorage, err)
		}
		cells = append(cells, c)
	}
	return cells, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(sc scanner) (*Run, error) {
	var r Run
	var finished sql.NullTime
	var server, matrixURL, filters, outfile, errMsg sql.NullString

	if err := sc.Scan(&r.ID, &r.StartedAt, &finished, &server, &matrixURL, &filters, &outfile,
		&r.AllAssays, &r.AllAudits, &r.Status, &errMsg, &r.Rows, &r.Fetches); err != nil {
		return nil, err
	}
	if finished.Valid {
		t := finished.Time
		r.FinishedAt = &t
	}
	r.Server = server.String
	r.MatrixURL = matrixURL.String
	r.Outfile = outfile.String
	r.Error = errMsg.String
	if filters.Valid && filters.String != "" {
		if err := json.Unmarshal([]byte(filters.String), &r.Filters); err != nil {
			return nil, fmt.Errorf("decoding filters of run %s: %w", r.ID, err)
		}
	}
	return &r, nil
}
