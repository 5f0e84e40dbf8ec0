package kmeans

import "gonum.org/v1/gonum/floats"

// Distance returns the Euclidean distance between a and b.
// It panics with *DimensionMismatchError if the lengths differ.
func Distance(a, b []float64) float64 {
	checkDim(len(b), len(a))
	if len(a) == 0 {
		return 0
	}
	return floats.Distance(a, b, 2)
}

// Movement returns the total distance travelled by the centroids between two
// iterations. Centroids are paired by position.
func Movement(prev, next Centroids) float64 {
	checkDim(len(next), len(prev))
	var total float64
	for i := range prev {
		total += Distance(prev[i], next[i])
	}
	return total
}
