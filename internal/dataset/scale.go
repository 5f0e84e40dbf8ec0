package dataset

import "gonum.org/v1/gonum/floats"

// MinMaxScale returns a copy of d with every column rescaled into [0, 1].
// Constant columns map to 0. The input is not modified.
func MinMaxScale(d Dataset) Dataset {
	if len(d) == 0 {
		return nil
	}
	dim := d.Dim()
	lo := make([]float64, dim)
	span := make([]float64, dim)
	for j := 0; j < dim; j++ {
		col := d.Column(j)
		lo[j] = floats.Min(col)
		span[j] = floats.Max(col) - lo[j]
	}
	out := make(Dataset, len(d))
	for i, v := range d {
		s := make(Vector, dim)
		for j, x := range v {
			if span[j] > 0 {
				s[j] = (x - lo[j]) / span[j]
			}
		}
		out[i] = s
	}
	return out
}
