package models

import (
	"fmt"
	"math"
)

const (
	defaultMaxIterations = 10000
	maxRequestK          = 1000
	maxRequestWorkers    = 64
)

// ClusterRequest is the body of an HTTP clustering request. Rows carry
// already-parsed vectors.
type ClusterRequest struct {
	Rows          [][]float64 `json:"rows"`
	K             int         `json:"k"`
	MaxIterations int         `json:"max_iterations,omitempty"`
	Epsilon       float64     `json:"epsilon,omitempty"`
	Seed          int64       `json:"seed,omitempty"`
	Workers       int         `json:"workers,omitempty"`
	EmptyCluster  string      `json:"empty_cluster,omitempty"`
	Normalize     bool        `json:"normalize,omitempty"`
	Source        string      `json:"source,omitempty"`
	// Save stores the run in history when the server has storage.
	Save bool `json:"save,omitempty"`
}

// Validate checks the request and fills defaults for unset fields.
func (r *ClusterRequest) Validate() error {
	if len(r.Rows) == 0 {
		return fmt.Errorf("rows cannot be empty")
	}
	if r.K < 1 {
		return fmt.Errorf("k must be at least 1")
	}
	if r.K > maxRequestK {
		return fmt.Errorf("k must be at most %d", maxRequestK)
	}
	if r.MaxIterations < 0 {
		return fmt.Errorf("max_iterations cannot be negative")
	}
	if r.MaxIterations == 0 {
		r.MaxIterations = defaultMaxIterations
	}
	if r.Epsilon < 0 || math.IsNaN(r.Epsilon) || math.IsInf(r.Epsilon, 0) {
		return fmt.Errorf("epsilon must be a finite non-negative number")
	}
	if r.Workers < 0 {
		return fmt.Errorf("workers cannot be negative")
	}
	if r.Workers > maxRequestWorkers {
		return fmt.Errorf("workers must be at most %d", maxRequestWorkers)
	}
	if r.Workers == 0 {
		r.Workers = 1
	}
	dim := len(r.Rows[0])
	if dim == 0 {
		return fmt.Errorf("rows cannot be empty vectors")
	}
	for i, row := range r.Rows {
		if len(row) != dim {
			return fmt.Errorf("row %d has %d values, want %d", i, len(row), dim)
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("row %d contains a non-finite value", i)
			}
		}
	}
	if r.Source == "" {
		r.Source = "request"
	}
	return nil
}

// PredictRequest is the body of a request that labels new rows with the
// nearest centroid of a stored run.
type PredictRequest struct {
	Rows [][]float64 `json:"rows"`
}

// Validate checks that the rows are non-empty, finite and of dimension dim.
func (r *PredictRequest) Validate(dim int) error {
	if len(r.Rows) == 0 {
		return fmt.Errorf("rows cannot be empty")
	}
	for i, row := range r.Rows {
		if len(row) != dim {
			return fmt.Errorf("row %d has %d values, want %d", i, len(row), dim)
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("row %d contains a non-finite value", i)
			}
		}
	}
	return nil
}
