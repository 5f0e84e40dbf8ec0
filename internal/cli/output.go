// Package cli writes clustering results for the bunrui command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/hyperjump/bunrui/internal/dataset"
	"github.com/hyperjump/bunrui/internal/models"
	"github.com/hyperjump/bunrui/pkg/utils"
)

// OutputFormat is the format for run output.
type OutputFormat string

const (
	// OutputText is a human-readable summary followed by the centroids (default).
	OutputText OutputFormat = "text"
	// OutputCompact is one centroid per line and nothing else.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
	// OutputXLSX is a spreadsheet with centroid and assignment sheets.
	OutputXLSX OutputFormat = "xlsx"
	// OutputHTML is a scatter chart of the first two dimensions.
	OutputHTML OutputFormat = "html"
)

const valueSep = "  "

// ParseOutputFormat returns the format named by s.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case "":
		return OutputText, nil
	case OutputText, OutputCompact, OutputJSON, OutputXLSX, OutputHTML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (supported: text, compact, json, xlsx, html)", s)
	}
}

// FormatForPath infers a format from an output file extension, ignoring a
// trailing .zst. It returns fallback when the extension says nothing.
func FormatForPath(path string, fallback OutputFormat) OutputFormat {
	name := strings.TrimSuffix(strings.ToLower(path), zstdExt)
	switch filepath.Ext(name) {
	case ".json":
		return OutputJSON
	case ".xlsx":
		return OutputXLSX
	case ".html", ".htm":
		return OutputHTML
	default:
		return fallback
	}
}

// Report is everything a sink may render. Data and Labels are optional;
// without them only the centroids are written.
type Report struct {
	Run     *models.Run
	Data    dataset.Dataset
	Labels  []int
	Skipped []dataset.Skipped
}

// Write renders report to w in the given format.
func Write(w io.Writer, report *Report, format OutputFormat) error {
	switch format {
	case OutputXLSX:
		return WriteXLSX(w, report)
	case OutputHTML:
		return WriteChart(w, report)
	default:
		return WriteRun(w, report.Run, format)
	}
}

// WriteRun writes a single run to w in a text format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteRun(w io.Writer, run *models.Run, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	case OutputCompact:
		return writeCentroids(w, run.Centroids)
	default:
		return writeRunText(w, run)
	}
}

func writeCentroids(w io.Writer, centroids [][]float64) error {
	for _, c := range centroids {
		if _, err := fmt.Fprintln(w, utils.JoinFloats(c, valueSep)); err != nil {
			return err
		}
	}
	return nil
}

func writeRunText(w io.Writer, run *models.Run) error {
	fmt.Fprintf(w, "Run %s\n", run.ID)
	fmt.Fprintf(w, "Source: %s (%d rows, %d skipped)\n", run.Source, run.Rows, run.SkippedRows)
	fmt.Fprintf(w, "k=%d  iterations=%d  state=%s  movement=%s  inertia=%s\n",
		run.K, run.Iterations, run.State, utils.FormatFloat(run.Movement), utils.FormatFloat(run.Inertia))
	if run.EmptyClusterEvents > 0 {
		fmt.Fprintf(w, "Empty clusters resolved: %d (%s)\n", run.EmptyClusterEvents, run.EmptyCluster)
	}
	fmt.Fprintln(w)
	for i, c := range run.Centroids {
		size := 0
		if i < len(run.Sizes) {
			size = run.Sizes[i]
		}
		if _, err := fmt.Fprintf(w, "[%d] n=%d  %s\n", i, size, utils.JoinFloats(c, valueSep)); err != nil {
			return err
		}
	}
	return nil
}

// WriteRunList writes a table of runs, newest first as given.
func WriteRunList(w io.Writer, runs []*models.Run, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if runs == nil {
			runs = []*models.Run{}
		}
		return enc.Encode(runs)
	}
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs stored.")
		return err
	}
	for _, run := range runs {
		if _, err := fmt.Fprintf(w, "%s  %s  k=%d  %-22s  %s\n",
			run.ID, run.CreatedAt.Format("2006-01-02 15:04:05"), run.K, run.State, utils.Truncate(run.Source, 40)); err != nil {
			return err
		}
	}
	return nil
}

// WriteSkipped writes one line per skipped input row.
func WriteSkipped(w io.Writer, skipped []dataset.Skipped) {
	for _, s := range skipped {
		fmt.Fprintf(w, "Removing %s\n", s)
	}
}
