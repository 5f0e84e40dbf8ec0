// Package storage defines the persistence interface for clustering runs.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/bunrui/internal/models"
)

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("run not found")

// Storage defines run persistence operations.
type Storage interface {
	SaveRun(ctx context.Context, run *models.Run) error
	GetRun(ctx context.Context, id string) (*models.Run, error)
	// ListRuns returns runs newest first. Listed runs carry no centroids.
	ListRuns(ctx context.Context, offset, limit int) ([]*models.Run, error)
	DeleteRun(ctx context.Context, id string) error

	CountRuns(ctx context.Context) (int64, error)

	Close() error
}
