package kmeans

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/hyperjump/bunrui/internal/dataset"
)

// EmptyClusterPolicy decides the new centroid of a cluster with no members.
type EmptyClusterPolicy string

const (
	// EmptyKeep leaves the centroid where it was in the previous iteration.
	EmptyKeep EmptyClusterPolicy = "keep"
	// EmptyReseed moves the centroid onto a data row drawn from the run's
	// random source.
	EmptyReseed EmptyClusterPolicy = "reseed"
)

// ParseEmptyClusterPolicy converts a config value; empty means EmptyKeep.
func ParseEmptyClusterPolicy(s string) (EmptyClusterPolicy, error) {
	switch EmptyClusterPolicy(s) {
	case "", EmptyKeep:
		return EmptyKeep, nil
	case EmptyReseed:
		return EmptyReseed, nil
	default:
		return "", fmt.Errorf("%w: unknown empty cluster policy %q (supported: keep, reseed)", ErrInvalidConfig, s)
	}
}

// UpdateCentroids returns a new centroid set in which every centroid is the
// mean of the rows assigned to it. Empty clusters are resolved with policy;
// their indices are returned in ascending order. rng is only used by
// EmptyReseed and may be nil otherwise. prev is not modified.
func UpdateCentroids(data dataset.Dataset, a Assignment, prev Centroids, policy EmptyClusterPolicy, rng *rand.Rand) (Centroids, []int) {
	checkDim(len(a), len(prev))
	next := make(Centroids, len(prev))
	var empty []int
	for k, members := range a {
		if members.IsEmpty() {
			empty = append(empty, k)
			next[k] = resolveEmpty(data, prev[k], policy, rng)
			continue
		}
		// Each row is scaled before it is added so the mean of finite rows
		// stays finite.
		mean := make([]float64, len(prev[k]))
		inv := 1 / float64(members.GetCardinality())
		it := members.Iterator()
		for it.HasNext() {
			row := data[it.Next()]
			checkDim(len(row), len(mean))
			floats.AddScaled(mean, inv, row)
		}
		next[k] = mean
	}
	return next, empty
}

func resolveEmpty(data dataset.Dataset, prev []float64, policy EmptyClusterPolicy, rng *rand.Rand) []float64 {
	if policy == EmptyReseed && rng != nil && len(data) > 0 {
		return append([]float64(nil), data[rng.Intn(len(data))]...)
	}
	return append([]float64(nil), prev...)
}
