package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/planprobe/planprobe/pkg/models"
)

// SQLiteStore is the on-disk results store.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the results database.
// WAL and a busy timeout keep concurrent readers (e.g. the metrics exporter)
// from tripping over the single writer.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=10000&_synchronous=NORMAL", dbPath)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer to avoid SQLITE_BUSY during result streams.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		label TEXT,
		tree_shape TEXT NOT NULL DEFAULT 'default',
		target TEXT,
		host_info TEXT,
		started_at DATETIME NOT NULL,
		completed_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		name TEXT NOT NULL,
		sql_text TEXT,
		plan_json TEXT,
		planning_ms REAL NOT NULL DEFAULT 0,
		execution_ms REAL NOT NULL DEFAULT 0,
		total_cost REAL NOT NULL DEFAULT 0,
		max_join_level INTEGER NOT NULL DEFAULT 0,
		cardinalities TEXT,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_results_run_id ON results(run_id);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateRun inserts a new run record.
func (s *SQLiteStore) CreateRun(run *models.Run) error {
	hostInfo, err := json.Marshal(run.Host)
	if err != nil {
		return fmt.Errorf("failed to marshal host info: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO runs (id, label, tree_shape, target, host_info, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, NULL)
	`, run.ID, run.Label, string(run.TreeShape), run.Target, string(hostInfo), run.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// CompleteRun closes out a run.
func (s *SQLiteStore) CompleteRun(id string, completedAt time.Time) error {
	res, err := s.db.Exec(`UPDATE runs SET completed_at = ? WHERE id = ?`, completedAt, id)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrRunNotFound
	}
	return nil
}

// GetRun retrieves a run by id.
func (s *SQLiteStore) GetRun(id string) (*models.Run, error) {
	row := s.db.QueryRow(`
		SELECT id, label, tree_shape, target, host_info, started_at, completed_at
		FROM runs WHERE id = ?
	`, id)
	return scanRun(row)
}

// LatestRun returns the most recently started run.
func (s *SQLiteStore) LatestRun() (*models.Run, error) {
	row := s.db.QueryRow(`
		SELECT id, label, tree_shape, target, host_info, started_at, completed_at
		FROM runs ORDER BY started_at DESC, id DESC LIMIT 1
	`)
	run, err := scanRun(row)
	if err == ErrRunNotFound {
		return nil, ErrNoRuns
	}
	return run, err
}

// ListRuns returns all runs, newest first.
func (s *SQLiteStore) ListRuns() ([]*models.Run, error) {
	rows, err := s.db.Query(`
		SELECT id, label, tree_shape, target, host_info, started_at, completed_at
		FROM runs ORDER BY started_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run and its results.
func (s *SQLiteStore) DeleteRun(id string) error {
	if _, err := s.db.Exec(`DELETE FROM results WHERE run_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete results: %w", err)
	}
	res, err := s.db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrRunNotFound
	}
	return nil
}

// SaveResult appends one query result to its run.
func (s *SQLiteStore) SaveResult(result *models.QueryResult) error {
	cards, err := json.Marshal(result.Cardinalities)
	if err != nil {
		return fmt.Errorf("failed to marshal cardinalities: %w", err)
	}

	res, err := s.db.Exec(`
		INSERT INTO results (run_id, name, sql_text, plan_json, planning_ms, execution_ms, total_cost, max_join_level, cardinalities)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, result.RunID, result.Name, result.SQL, string(result.PlanJSON),
		result.PlanningMs, result.ExecutionMs, result.TotalCost, result.MaxJoinLevel, string(cards))
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		result.ID = id
	}
	return nil
}

// GetResults returns a run's results ordered by query name.
func (s *SQLiteStore) GetResults(runID string) ([]*models.QueryResult, error) {
	rows, err := s.db.Query(`
		SELECT id, run_id, name, sql_text, plan_json, planning_ms, execution_ms, total_cost, max_join_level, cardinalities
		FROM results WHERE run_id = ? ORDER BY name
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get results: %w", err)
	}
	defer rows.Close()

	var results []*models.QueryResult
	for rows.Next() {
		var r models.QueryResult
		var planJSON, cards sql.NullString
		if err := rows.Scan(&r.ID, &r.RunID, &r.Name, &r.SQL, &planJSON,
			&r.PlanningMs, &r.ExecutionMs, &r.TotalCost, &r.MaxJoinLevel, &cards); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		if planJSON.Valid && planJSON.String != "" {
			r.PlanJSON = json.RawMessage(planJSON.String)
		}
		if cards.Valid && cards.String != "" {
			if err := json.Unmarshal([]byte(cards.String), &r.Cardinalities); err != nil {
				return nil, fmt.Errorf("failed to unmarshal cardinalities: %w", err)
			}
		}
		results = append(results, &r)
	}
	return results, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// HealthCheck verifies the database is reachable.
func (s *SQLiteStore) HealthCheck() error {
	return s.db.Ping()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*models.Run, error) {
	var run models.Run
	var shape string
	var hostInfo sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(&run.ID, &run.Label, &shape, &run.Target, &hostInfo, &run.StartedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.TreeShape = models.TreeShape(shape)
	if completedAt.Valid {
		run.CompletedAt = completedAt.Time
	}
	if hostInfo.Valid && hostInfo.String != "" {
		if err := json.Unmarshal([]byte(hostInfo.String), &run.Host); err != nil {
			return nil, fmt.Errorf("failed to unmarshal host info: %w", err)
		}
	}
	return &run, nil
}
