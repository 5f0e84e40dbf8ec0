package kmeans

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned when a Config field is out of range.
var ErrInvalidConfig = errors.New("invalid clustering config")

// InsufficientDataError is returned when the dataset has fewer rows than clusters.
type InsufficientDataError struct {
	Rows int
	K    int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %d usable rows for k=%d", e.Rows, e.K)
}

// DimensionMismatchError signals that two vectors of different length were
// combined. It indicates a bug upstream and is raised with panic.
type DimensionMismatchError struct {
	Got  int
	Want int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: got %d, want %d", e.Got, e.Want)
}

func checkDim(got, want int) {
	if got != want {
		panic(&DimensionMismatchError{Got: got, Want: want})
	}
}
