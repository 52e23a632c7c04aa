// Package history persists completed pipeline runs to a local SQLite
// database so past reports can be listed and inspected.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/draftflow-ai/draftflow/internal/graph"
	"github.com/draftflow-ai/draftflow/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	graph        TEXT NOT NULL,
	status       TEXT NOT NULL,
	degraded     INTEGER NOT NULL DEFAULT 0,
	data_path    TEXT NOT NULL DEFAULT '',
	report_path  TEXT NOT NULL DEFAULT '',
	cycle_counts TEXT NOT NULL DEFAULT '{}',
	stage_visits TEXT NOT NULL DEFAULT '{}',
	duration_ms  INTEGER NOT NULL DEFAULT 0,
	error        TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
`

// RunRecord is one persisted pipeline run.
type RunRecord struct {
	ID          types.ID        `db:"id" json:"id"`
	Graph       string          `db:"graph" json:"graph"`
	Status      graph.RunStatus `db:"status" json:"status"`
	Degraded    bool            `db:"degraded" json:"degraded"`
	DataPath    string          `db:"data_path" json:"data_path,omitempty"`
	ReportPath  string          `db:"report_path" json:"report_path,omitempty"`
	CycleCounts map[string]int  `db:"cycle_counts" json:"cycle_counts,omitempty"`
	StageVisits map[string]int  `db:"stage_visits" json:"stage_visits,omitempty"`
	Duration    time.Duration   `db:"duration_ms" json:"duration"`
	Error       string          `db:"error" json:"error,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// Store wraps the SQLite connection holding run history.
type Store struct {
	conn *sql.DB
	path string
}

// Open creates or opens the history database at path. WAL mode and a
// busy timeout are set for concurrent access; the schema is applied
// idempotently.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, types.WrapError(types.RUN_RECORD_FAILED, "failed to create history directory", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=%d", path, int((5 * time.Second).Milliseconds()))

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, types.WrapError(types.RUN_RECORD_FAILED, "failed to open history database", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, types.WrapError(types.RUN_RECORD_FAILED, "failed to ping history database", err)
	}

	if _, err := conn.ExecContext(ctx, schema); err != nil {
		conn.Close()
		return nil, types.WrapError(types.RUN_RECORD_FAILED, "failed to initialize history schema", err)
	}

	return &Store{conn: conn, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// FromResult builds a RunRecord from an executor result.
func FromResult(result *graph.RunResult, dataPath, reportPath string) RunRecord {
	rec := RunRecord{
		ID:          result.RunID,
		Graph:       result.Graph,
		Status:      result.Status,
		Degraded:    result.Degraded,
		DataPath:    dataPath,
		ReportPath:  reportPath,
		CycleCounts: result.CycleCounts,
		StageVisits: result.StageVisits,
		Duration:    result.Duration,
		CreatedAt:   time.Now().UTC(),
	}
	if result.Err != nil {
		rec.Error = result.Err.Error()
	}
	return rec
}

// Record inserts one run into the history table.
func (s *Store) Record(ctx context.Context, rec RunRecord) error {
	if rec.ID.IsZero() {
		rec.ID = types.NewID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	cycles, err := json.Marshal(orEmpty(rec.CycleCounts))
	if err != nil {
		return types.WrapError(types.RUN_RECORD_FAILED, "failed to marshal cycle counts", err)
	}
	visits, err := json.Marshal(orEmpty(rec.StageVisits))
	if err != nil {
		return types.WrapError(types.RUN_RECORD_FAILED, "failed to marshal stage visits", err)
	}

	query := `
		INSERT INTO runs (id, graph, status, degraded, data_path, report_path,
			cycle_counts, stage_visits, duration_ms, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.conn.ExecContext(ctx, query,
		rec.ID.String(),
		rec.Graph,
		string(rec.Status),
		rec.Degraded,
		rec.DataPath,
		rec.ReportPath,
		string(cycles),
		string(visits),
		rec.Duration.Milliseconds(),
		rec.Error,
		rec.CreatedAt,
	)
	if err != nil {
		return types.WrapError(types.RUN_RECORD_FAILED, "failed to insert run record", err)
	}

	return nil
}

// Get returns a single run by ID.
func (s *Store) Get(ctx context.Context, id types.ID) (*RunRecord, error) {
	query := `
		SELECT id, graph, status, degraded, data_path, report_path,
			cycle_counts, stage_visits, duration_ms, error, created_at
		FROM runs WHERE id = ?
	`

	rec, err := scanRecord(s.conn.QueryRowContext(ctx, query, id.String()))
	if err == sql.ErrNoRows {
		return nil, types.NewError(types.RUN_RECORD_FAILED, fmt.Sprintf("run %s not found", id))
	}
	if err != nil {
		return nil, types.WrapError(types.RUN_RECORD_FAILED, "failed to query run record", err)
	}

	return rec, nil
}

// List returns the most recent runs, newest first. A limit of 0 means
// no limit.
func (s *Store) List(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `
		SELECT id, graph, status, degraded, data_path, report_path,
			cycle_counts, stage_visits, duration_ms, error, created_at
		FROM runs ORDER BY created_at DESC, id
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, types.WrapError(types.RUN_RECORD_FAILED, "failed to query run records", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, types.WrapError(types.RUN_RECORD_FAILED, "failed to scan run record", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, types.WrapError(types.RUN_RECORD_FAILED, "failed to iterate run records", err)
	}

	return records, nil
}

// scanner abstracts sql.Row and sql.Rows for scanRecord.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*RunRecord, error) {
	var (
		rec        RunRecord
		id         string
		status     string
		cycles     string
		visits     string
		durationMS int64
	)

	err := row.Scan(&id, &rec.Graph, &status, &rec.Degraded, &rec.DataPath,
		&rec.ReportPath, &cycles, &visits, &durationMS, &rec.Error, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}

	rec.ID = types.ID(id)
	rec.Status = graph.RunStatus(status)
	rec.Duration = time.Duration(durationMS) * time.Millisecond

	if err := json.Unmarshal([]byte(cycles), &rec.CycleCounts); err != nil {
		return nil, fmt.Errorf("invalid cycle counts: %w", err)
	}
	if err := json.Unmarshal([]byte(visits), &rec.StageVisits); err != nil {
		return nil, fmt.Errorf("invalid stage visits: %w", err)
	}

	return &rec, nil
}

func orEmpty(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}
