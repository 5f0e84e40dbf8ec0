package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Skipped describes a row that Filter dropped.
// Row is the index into the raw rows, so a header row counts as row 0.
type Skipped struct {
	Row    int    `json:"row"`
	Column int    `json:"column"`
	Reason string `json:"reason"`
}

func (s Skipped) String() string {
	return fmt.Sprintf("row %d, column %d: %s", s.Row, s.Column, s.Reason)
}

// Filter extracts the given columns from rows and parses them as numbers.
// When hasHeader is true the first row is ignored. A row with a missing or
// non-numeric value in any selected column is dropped and reported in the
// returned diagnostics; the remaining rows keep their relative order.
func Filter(rows [][]string, columns []int, hasHeader bool) (Dataset, []Skipped) {
	start := 0
	if hasHeader {
		start = 1
	}
	var (
		out     Dataset
		skipped []Skipped
	)
	for i := start; i < len(rows); i++ {
		v, skip, ok := parseRow(rows[i], columns)
		if !ok {
			skip.Row = i
			skipped = append(skipped, skip)
			continue
		}
		out = append(out, v)
	}
	return out, skipped
}

func parseRow(row []string, columns []int) (Vector, Skipped, bool) {
	v := make(Vector, len(columns))
	for j, col := range columns {
		if col < 0 || col >= len(row) {
			return nil, Skipped{Column: col, Reason: "missing value"}, false
		}
		field := strings.TrimSpace(row[col])
		if field == "" {
			return nil, Skipped{Column: col, Reason: "missing value"}, false
		}
		f, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, Skipped{Column: col, Reason: fmt.Sprintf("invalid number %q", field)}, false
		}
		// ParseFloat accepts "NaN" and "Inf"; neither can take part in a mean.
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, Skipped{Column: col, Reason: fmt.Sprintf("non-finite value %q", field)}, false
		}
		v[j] = f
	}
	return v, Skipped{}, true
}
