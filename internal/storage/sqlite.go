package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/bunrui/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		source_id TEXT NOT NULL,
		source TEXT NOT NULL,
		columns TEXT,
		row_count INTEGER NOT NULL,
		skipped_rows INTEGER NOT NULL DEFAULT 0,
		normalized INTEGER NOT NULL DEFAULT 0,
		k INTEGER NOT NULL,
		max_iterations INTEGER NOT NULL,
		epsilon REAL NOT NULL,
		seed INTEGER NOT NULL,
		empty_cluster TEXT NOT NULL,
		state TEXT NOT NULL,
		iterations INTEGER NOT NULL,
		movement REAL NOT NULL,
		inertia REAL NOT NULL,
		empty_cluster_events INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	CREATE INDEX IF NOT EXISTS idx_runs_source_id ON runs(source_id);

	CREATE TABLE IF NOT EXISTS run_centroids (
		run_id TEXT NOT NULL,
		cluster_index INTEGER NOT NULL,
		size INTEGER NOT NULL,
		vector TEXT NOT NULL,
		PRIMARY KEY (run_id, cluster_index),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveRun inserts a run and its centroids in one transaction.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run *models.Run) error {
	if len(run.Sizes) != 0 && len(run.Sizes) != len(run.Centroids) {
		return fmt.Errorf("run %s has %d sizes for %d centroids", run.ID, len(run.Sizes), len(run.Centroids))
	}
	columnsJSON, err := json.Marshal(run.Columns)
	if err != nil {
		return fmt.Errorf("failed to marshal columns: %w", err)
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, source_id, source, columns, row_count, skipped_rows, normalized,
			k, max_iterations, epsilon, seed, empty_cluster,
			state, iterations, movement, inertia, empty_cluster_events, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.SourceID, run.Source, string(columnsJSON), run.Rows, run.SkippedRows, run.Normalized,
		run.K, run.MaxIterations, run.Epsilon, run.Seed, run.EmptyCluster,
		run.State, run.Iterations, run.Movement, run.Inertia, run.EmptyClusterEvents, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_centroids (run_id, cluster_index, size, vector) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, c := range run.Centroids {
		vectorJSON, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to marshal centroid %d: %w", i, err)
		}
		size := 0
		if i < len(run.Sizes) {
			size = run.Sizes[i]
		}
		if _, err := stmt.ExecContext(ctx, run.ID, i, size, string(vectorJSON)); err != nil {
			return fmt.Errorf("failed to insert centroid %d: %w", i, err)
		}
	}
	return tx.Commit()
}

const runColumns = `id, source_id, source, columns, row_count, skipped_rows, normalized,
	k, max_iterations, epsilon, seed, empty_cluster,
	state, iterations, movement, inertia, empty_cluster_events, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*models.Run, error) {
	var run models.Run
	var columnsJSON sql.NullString
	err := row.Scan(&run.ID, &run.SourceID, &run.Source, &columnsJSON, &run.Rows, &run.SkippedRows, &run.Normalized,
		&run.K, &run.MaxIterations, &run.Epsilon, &run.Seed, &run.EmptyCluster,
		&run.State, &run.Iterations, &run.Movement, &run.Inertia, &run.EmptyClusterEvents, &run.CreatedAt)
	if err != nil {
		return nil, err
	}
	if columnsJSON.Valid && columnsJSON.String != "" {
		if err := json.Unmarshal([]byte(columnsJSON.String), &run.Columns); err != nil {
			return nil, fmt.Errorf("failed to unmarshal columns: %w", err)
		}
	}
	return &run, nil
}

// GetRun returns a run with its centroids.
func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (*models.Run, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT size, vector FROM run_centroids WHERE run_id = ? ORDER BY cluster_index`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var size int
		var vectorJSON string
		if err := rows.Scan(&size, &vectorJSON); err != nil {
			return nil, err
		}
		var vector []float64
		if err := json.Unmarshal([]byte(vectorJSON), &vector); err != nil {
			return nil, fmt.Errorf("failed to unmarshal centroid: %w", err)
		}
		run.Centroids = append(run.Centroids, vector)
		run.Sizes = append(run.Sizes, size)
	}
	return run, rows.Err()
}

// ListRuns returns runs with offset and limit, newest first.
func (s *SQLiteStorage) ListRuns(ctx context.Context, offset, limit int) ([]*models.Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
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

// DeleteRun removes a run and its centroids.
func (s *SQLiteStorage) DeleteRun(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// CountRuns returns the number of stored runs.
func (s *SQLiteStorage) CountRuns(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
