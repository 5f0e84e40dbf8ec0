package kmeans

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"go.uber.org/zap"

	"github.com/hyperjump/bunrui/internal/dataset"
)

const (
	// DefaultMaxIterations bounds a run when Config.MaxIterations is unset.
	DefaultMaxIterations = 10000
	// MaxWorkers is the largest accepted Config.Workers.
	MaxWorkers = 1024
)

// State is the phase of a clustering run.
type State int

const (
	StateInitializing State = iota
	StateIterating
	StateConverged
	StateMaxIterationsReached
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateIterating:
		return "iterating"
	case StateConverged:
		return "converged"
	case StateMaxIterationsReached:
		return "max_iterations_reached"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config holds the clustering parameters.
type Config struct {
	// K is the number of clusters.
	K int
	// MaxIterations caps the number of completed iterations.
	MaxIterations int
	// Epsilon is the total centroid movement at or below which the run
	// has converged. Zero means an exact fixed point.
	Epsilon float64
	// Seed initializes the random source used for initial centroids and
	// for EmptyReseed.
	Seed int64
	// Workers is the number of goroutines used by the assignment step, at
	// most MaxWorkers. Values below 2 run it on the calling goroutine.
	Workers int
	// EmptyCluster resolves clusters that receive no rows.
	EmptyCluster EmptyClusterPolicy
}

// DefaultConfig returns the default configuration for k clusters.
func DefaultConfig(k int) Config {
	return Config{
		K:             k,
		MaxIterations: DefaultMaxIterations,
		Epsilon:       0,
		Workers:       1,
		EmptyCluster:  EmptyKeep,
	}
}

// Validate reports whether c can drive a run.
func (c Config) Validate() error {
	if c.K < 1 {
		return fmt.Errorf("%w: k must be at least 1, got %d", ErrInvalidConfig, c.K)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("%w: max iterations must be at least 1, got %d", ErrInvalidConfig, c.MaxIterations)
	}
	if c.Epsilon < 0 || math.IsNaN(c.Epsilon) {
		return fmt.Errorf("%w: epsilon must be a non-negative number, got %v", ErrInvalidConfig, c.Epsilon)
	}
	if c.Workers < 0 || c.Workers > MaxWorkers {
		return fmt.Errorf("%w: workers must be between 0 and %d, got %d", ErrInvalidConfig, MaxWorkers, c.Workers)
	}
	if _, err := ParseEmptyClusterPolicy(string(c.EmptyCluster)); err != nil {
		return err
	}
	return nil
}

// Iteration is reported to an observer after every completed iteration.
type Iteration struct {
	N          int
	Assignment Assignment
	Centroids  Centroids
	Movement   float64
	Empty      []int
}

// Result is the outcome of a run.
type Result struct {
	Centroids  Centroids
	State      State
	Iterations int
	// Movement is the total centroid movement of the last iteration.
	Movement float64
	// Labels holds the cluster of every row with respect to Centroids.
	Labels []int
	Sizes  []int
	// Inertia is the sum of squared distances from each row to its centroid.
	Inertia            float64
	EmptyClusterEvents int
}

// Converged reports whether the run stopped at or below epsilon.
func (r *Result) Converged() bool {
	return r.State == StateConverged
}

// Clusterer runs k-means with a fixed configuration.
type Clusterer struct {
	cfg      Config
	rng      *rand.Rand
	initial  Centroids
	observer func(Iteration)
	logger   *zap.Logger
}

// Option configures a Clusterer.
type Option func(*Clusterer)

// WithLogger sets a logger for per-iteration debug output.
func WithLogger(l *zap.Logger) Option {
	return func(c *Clusterer) { c.logger = l }
}

// WithRand replaces the random source derived from Config.Seed.
func WithRand(r *rand.Rand) Option {
	return func(c *Clusterer) { c.rng = r }
}

// WithInitialCentroids starts the run from the given centroids instead of
// sampling rows. len(centroids) must equal Config.K.
func WithInitialCentroids(centroids Centroids) Option {
	return func(c *Clusterer) { c.initial = centroids.Clone() }
}

// WithObserver registers fn to be called after every iteration.
func WithObserver(fn func(Iteration)) Option {
	return func(c *Clusterer) { c.observer = fn }
}

// New returns a Clusterer for cfg. Zero MaxIterations and Workers take
// their defaults.
func New(cfg Config, opts ...Option) (*Clusterer, error) {
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.Workers == 0 {
		cfg.Workers = 1
	}
	if cfg.EmptyCluster == "" {
		cfg.EmptyCluster = EmptyKeep
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Clusterer{cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(cfg.Seed))
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.initial != nil && len(c.initial) != cfg.K {
		return nil, fmt.Errorf("%w: %d initial centroids for k=%d", ErrInvalidConfig, len(c.initial), cfg.K)
	}
	return c, nil
}

// Config returns the configuration with defaults filled in.
func (c *Clusterer) Config() Config {
	return c.cfg
}

// Cluster is shorthand for New(cfg, opts...) followed by Run(data).
func Cluster(data dataset.Dataset, cfg Config, opts ...Option) (*Result, error) {
	c, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return c.Run(data)
}

// Run clusters data. It fails with *InsufficientDataError when data has
// fewer rows than clusters. Reaching the iteration cap is not an error; the
// result's State tells the two outcomes apart.
func (c *Clusterer) Run(data dataset.Dataset) (*Result, error) {
	return c.RunContext(context.Background(), data)
}

// RunContext is Run with cancellation, checked before every iteration.
func (c *Clusterer) RunContext(ctx context.Context, data dataset.Dataset) (*Result, error) {
	k := c.cfg.K
	if len(data) < k || len(data) == 0 {
		return nil, &InsufficientDataError{Rows: len(data), K: k}
	}
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dataset: %w", err)
	}

	centroids, err := c.initialize(data)
	if err != nil {
		return nil, err
	}

	res := &Result{State: StateIterating}
	for res.Iterations < c.cfg.MaxIterations {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("clustering stopped after %d iterations: %w", res.Iterations, err)
		}
		assign := newAssignment(assignLabels(data, centroids, c.cfg.Workers), k)
		next, empty := UpdateCentroids(data, assign, centroids, c.cfg.EmptyCluster, c.rng)
		delta := Movement(centroids, next)

		centroids = next
		res.Iterations++
		res.Movement = delta
		res.EmptyClusterEvents += len(empty)

		if len(empty) > 0 {
			c.logger.Debug("empty clusters resolved",
				zap.Int("iteration", res.Iterations),
				zap.Ints("clusters", empty),
				zap.String("policy", string(c.cfg.EmptyCluster)))
		}
		c.logger.Debug("iteration complete",
			zap.Int("iteration", res.Iterations),
			zap.Float64("movement", delta))
		if c.observer != nil {
			c.observer(Iteration{
				N:          res.Iterations,
				Assignment: assign,
				Centroids:  centroids.Clone(),
				Movement:   delta,
				Empty:      empty,
			})
		}

		if delta <= c.cfg.Epsilon {
			res.State = StateConverged
			break
		}
	}
	if res.State != StateConverged {
		res.State = StateMaxIterationsReached
	}

	res.Centroids = centroids
	res.Labels = assignLabels(data, centroids, c.cfg.Workers)
	res.Sizes = make([]int, k)
	for i, label := range res.Labels {
		res.Sizes[label]++
		d := Distance(data[i], centroids[label])
		res.Inertia += d * d
	}
	return res, nil
}

// initialize picks k distinct rows uniformly at random, unless initial
// centroids were supplied.
func (c *Clusterer) initialize(data dataset.Dataset) (Centroids, error) {
	if c.initial != nil {
		for i, v := range c.initial {
			if len(v) != data.Dim() {
				return nil, fmt.Errorf("%w: initial centroid %d has %d values, dataset has %d",
					ErrInvalidConfig, i, len(v), data.Dim())
			}
		}
		return c.initial.Clone(), nil
	}
	perm := c.rng.Perm(len(data))
	centroids := make(Centroids, c.cfg.K)
	for i := range centroids {
		centroids[i] = append([]float64(nil), data[perm[i]]...)
	}
	return centroids, nil
}
