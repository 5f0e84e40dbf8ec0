// Package analysis runs the end-to-end clustering pipeline: load rows, filter
// them into vectors, optionally scale, cluster, and record the run.
package analysis

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/bunrui/internal/dataset"
	"github.com/hyperjump/bunrui/internal/fileid"
	"github.com/hyperjump/bunrui/internal/kmeans"
	"github.com/hyperjump/bunrui/internal/models"
	"github.com/hyperjump/bunrui/internal/source"
	"github.com/hyperjump/bunrui/internal/storage"
	"github.com/hyperjump/bunrui/pkg/utils"
)

// Request describes one clustering job. Exactly one of Path, Reader or Rows
// supplies the input.
type Request struct {
	// Path is an input file. "-" reads Reader instead.
	Path string
	// Reader supplies input when Path is "" or "-". Name picks its format.
	Reader io.Reader
	Name   string
	// Rows are already-parsed vectors; loading and filtering are skipped.
	Rows dataset.Dataset

	Source    source.Options
	Columns   []int
	HasHeader bool
	Normalize bool
	Cluster   kmeans.Config
	// Save records the run when the analyzer has storage.
	Save bool
}

// Outcome is the result of Analyzer.Run.
type Outcome struct {
	Run *models.Run
	// Data is the dataset that was clustered, after scaling.
	Data    dataset.Dataset
	Skipped []dataset.Skipped
	Result  *kmeans.Result
	Saved   bool
}

// Analyzer runs clustering requests.
type Analyzer struct {
	store  storage.Storage
	logger *zap.Logger
	now    func() time.Time
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets a logger for skipped rows and run summaries.
func WithLogger(l *zap.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// WithStorage records runs whose request sets Save.
func WithStorage(s storage.Storage) Option {
	return func(a *Analyzer) { a.store = s }
}

// NewAnalyzer returns an Analyzer.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = utils.OrNop(a.logger)
	return a
}

// Run executes req. Skipped rows are reported in the outcome and logged, not
// returned as errors. Clustering errors such as *kmeans.InsufficientDataError
// are returned as is.
func (a *Analyzer) Run(ctx context.Context, req Request) (*Outcome, error) {
	data, skipped, sourceName, sourceID, err := a.load(req)
	if err != nil {
		return nil, err
	}
	for _, s := range skipped {
		a.logger.Warn("removing row", zap.Int("row", s.Row), zap.Int("column", s.Column), zap.String("reason", s.Reason))
	}
	if req.Normalize {
		data = dataset.MinMaxScale(data)
	}

	runID := uuid.New().String()
	a.logger.Info("run starting",
		zap.String("run_id", runID),
		zap.String("source", sourceName),
		zap.Int("rows", data.Len()),
		zap.Int("skipped", len(skipped)),
		zap.Int("k", req.Cluster.K))

	c, err := kmeans.New(req.Cluster, kmeans.WithLogger(a.logger.With(zap.String("run_id", runID))))
	if err != nil {
		return nil, err
	}
	res, err := c.RunContext(ctx, data)
	if err != nil {
		return nil, err
	}

	run := &models.Run{
		ID:                 runID,
		SourceID:           sourceID,
		Source:             sourceName,
		Columns:            append([]int(nil), req.Columns...),
		Rows:               data.Len(),
		SkippedRows:        len(skipped),
		Normalized:         req.Normalize,
		K:                  c.Config().K,
		MaxIterations:      c.Config().MaxIterations,
		Epsilon:            c.Config().Epsilon,
		Seed:               c.Config().Seed,
		EmptyCluster:       string(c.Config().EmptyCluster),
		State:              res.State.String(),
		Iterations:         res.Iterations,
		Movement:           res.Movement,
		Inertia:            res.Inertia,
		EmptyClusterEvents: res.EmptyClusterEvents,
		Centroids:          res.Centroids,
		Sizes:              res.Sizes,
		CreatedAt:          a.now(),
	}
	if req.Rows != nil {
		run.Columns = nil
	}
	a.logger.Info("run finished",
		zap.String("run_id", runID),
		zap.Int("rows", run.Rows),
		zap.Int("k", run.K),
		zap.Int("iterations", run.Iterations),
		zap.String("state", run.State),
		zap.Float64("movement", run.Movement))

	out := &Outcome{Run: run, Data: data, Skipped: skipped, Result: res}
	if req.Save && a.store != nil {
		if err := a.store.SaveRun(ctx, run); err != nil {
			return nil, fmt.Errorf("save run: %w", err)
		}
		out.Saved = true
	}
	return out, nil
}

func (a *Analyzer) load(req Request) (dataset.Dataset, []dataset.Skipped, string, string, error) {
	if req.Rows != nil {
		if err := req.Rows.Validate(); err != nil {
			return nil, nil, "", "", fmt.Errorf("invalid rows: %w", err)
		}
		name := req.Name
		if name == "" {
			name = "request"
		}
		return req.Rows, nil, name, fileid.StdinID, nil
	}

	loader := source.NewLoader(req.Source)
	var rows [][]string
	var err error
	name := req.Path
	if req.Path == "" || req.Path == "-" {
		if req.Reader == nil {
			return nil, nil, "", "", fmt.Errorf("no input: set a path or a reader")
		}
		name = req.Name
		if name == "" {
			name = "-"
		}
		rows, err = loader.Read(req.Reader, name)
	} else {
		rows, err = loader.Load(req.Path)
	}
	if err != nil {
		return nil, nil, "", "", err
	}
	if len(req.Columns) == 0 {
		return nil, nil, "", "", fmt.Errorf("no columns selected")
	}
	data, skipped := dataset.Filter(rows, req.Columns, req.HasHeader)
	return data, skipped, name, fileid.SourceID(req.Path), nil
}
