// Package models defines the records shared by the analysis pipeline, storage and the HTTP API.
package models

import "time"

// Run is a persisted clustering run. Only the final centroids are kept, not
// the per-iteration history.
type Run struct {
	ID       string `json:"id" db:"id"`
	SourceID string `json:"source_id" db:"source_id"`
	Source   string `json:"source" db:"source"`
	// Columns are the zero-based input columns the vectors were built from.
	Columns     []int `json:"columns" db:"columns"`
	Rows        int   `json:"rows" db:"rows"`
	SkippedRows int   `json:"skipped_rows" db:"skipped_rows"`
	Normalized  bool  `json:"normalized" db:"normalized"`

	K             int     `json:"k" db:"k"`
	MaxIterations int     `json:"max_iterations" db:"max_iterations"`
	Epsilon       float64 `json:"epsilon" db:"epsilon"`
	Seed          int64   `json:"seed" db:"seed"`
	EmptyCluster  string  `json:"empty_cluster" db:"empty_cluster"`

	State              string      `json:"state" db:"state"`
	Iterations         int         `json:"iterations" db:"iterations"`
	Movement           float64     `json:"movement" db:"movement"`
	Inertia            float64     `json:"inertia" db:"inertia"`
	EmptyClusterEvents int         `json:"empty_cluster_events" db:"empty_cluster_events"`
	Centroids          [][]float64 `json:"centroids" db:"-"`
	Sizes              []int       `json:"sizes" db:"-"`
	CreatedAt          time.Time   `json:"created_at" db:"created_at"`
}

// Converged reports whether the run stopped because centroids settled.
func (r *Run) Converged() bool {
	return r.State == "converged"
}
