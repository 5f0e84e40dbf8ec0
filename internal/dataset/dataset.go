// Package dataset converts raw text rows into numeric feature vectors.
package dataset

import "fmt"

// Vector is the numeric representation of one retained row, restricted to the
// selected columns. Vectors are never modified after Filter creates them.
type Vector []float64

// Dataset is an ordered list of vectors that all share the same dimensionality.
type Dataset []Vector

// Len returns the number of rows.
func (d Dataset) Len() int {
	return len(d)
}

// Dim returns the dimensionality of the vectors, or 0 for an empty dataset.
func (d Dataset) Dim() int {
	if len(d) == 0 {
		return 0
	}
	return len(d[0])
}

// Validate reports an error if any vector differs in length from the first.
func (d Dataset) Validate() error {
	dim := d.Dim()
	for i, v := range d {
		if len(v) != dim {
			return fmt.Errorf("row %d has %d values, expected %d", i, len(v), dim)
		}
	}
	return nil
}

// Column returns a copy of column j.
func (d Dataset) Column(j int) []float64 {
	col := make([]float64, len(d))
	for i, v := range d {
		col[i] = v[j]
	}
	return col
}
