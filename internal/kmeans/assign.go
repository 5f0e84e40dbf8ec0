package kmeans

import (
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/bunrui/internal/dataset"
)

// Centroids is an ordered set of cluster centres.
type Centroids [][]float64

// Clone returns a deep copy of c.
func (c Centroids) Clone() Centroids {
	out := make(Centroids, len(c))
	for i, v := range c {
		out[i] = append([]float64(nil), v...)
	}
	return out
}

// Assignment holds, for every cluster index, the set of dataset rows whose
// nearest centroid is that cluster.
type Assignment []*roaring.Bitmap

// Sizes returns the number of rows in each cluster.
func (a Assignment) Sizes() []int {
	sizes := make([]int, len(a))
	for i, bm := range a {
		sizes[i] = int(bm.GetCardinality())
	}
	return sizes
}

// Validate checks that a partitions the rows [0, n): every row belongs to
// exactly one cluster.
func (a Assignment) Validate(n int) error {
	seen := roaring.New()
	var total uint64
	for _, bm := range a {
		total += bm.GetCardinality()
		seen.Or(bm)
	}
	if total != seen.GetCardinality() {
		return fmt.Errorf("assignment has %d overlapping rows", total-seen.GetCardinality())
	}
	if seen.GetCardinality() != uint64(n) {
		return fmt.Errorf("assignment covers %d rows, expected %d", seen.GetCardinality(), n)
	}
	if n > 0 && seen.Maximum() != uint32(n-1) {
		return fmt.Errorf("assignment references row %d outside [0, %d)", seen.Maximum(), n)
	}
	return nil
}

// Assign maps every row of data to its nearest centroid.
func Assign(data dataset.Dataset, centroids Centroids) Assignment {
	return newAssignment(assignLabels(data, centroids, 1), len(centroids))
}

// Predict returns the index of the centroid nearest to v, or -1 when there
// are no centroids.
func Predict(centroids Centroids, v []float64) int {
	if len(centroids) == 0 {
		return -1
	}
	idx, _ := nearest(v, centroids)
	return idx
}

// nearest returns the closest centroid and its distance. Only a strictly
// smaller distance replaces the current best, so ties keep the lowest index.
func nearest(v []float64, centroids Centroids) (int, float64) {
	best, bestDist := 0, math.Inf(1)
	for k, c := range centroids {
		if d := Distance(v, c); d < bestDist {
			best, bestDist = k, d
		}
	}
	return best, bestDist
}

// assignLabels computes the nearest centroid for every row. With more than
// one worker the rows are split into contiguous chunks; each worker writes
// only its own slots of labels, and Wait is the barrier before the caller
// reads them.
func assignLabels(data dataset.Dataset, centroids Centroids, workers int) []int {
	n := len(data)
	labels := make([]int, n)
	// Every chunk gets at least two rows.
	workers = min(workers, n/2)
	if workers <= 1 {
		for i, v := range data {
			labels[i], _ = nearest(v, centroids)
		}
		return labels
	}

	chunk := (n + workers - 1) / workers
	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				labels[i], _ = nearest(data[i], centroids)
			}
			return nil
		})
	}
	_ = g.Wait()
	return labels
}

func newAssignment(labels []int, k int) Assignment {
	a := make(Assignment, k)
	for i := range a {
		a[i] = roaring.New()
	}
	for row, c := range labels {
		a[c].Add(uint32(row))
	}
	return a
}
