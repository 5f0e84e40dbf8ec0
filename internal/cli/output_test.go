package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/bunrui/internal/dataset"
	"github.com/hyperjump/bunrui/internal/models"
)

func sampleRun() *models.Run {
	return &models.Run{
		ID:           "run-1",
		Source:       "points.csv",
		Rows:         4,
		SkippedRows:  1,
		K:            2,
		State:        "converged",
		Iterations:   2,
		Movement:     0,
		Inertia:      1,
		EmptyCluster: "keep",
		Centroids:    [][]float64{{1, 1.5}, {9, 9.5}},
		Sizes:        []int{2, 2},
		CreatedAt:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func sampleReport() *Report {
	return &Report{
		Run:    sampleRun(),
		Data:   dataset.Dataset{{1, 1}, {1, 2}, {9, 9}, {9, 10}},
		Labels: []int{0, 0, 1, 1},
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"JSON", OutputJSON, false},
		{"compact", OutputCompact, false},
		{"xlsx", OutputXLSX, false},
		{"html", OutputHTML, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseOutputFormat(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatForPath(t *testing.T) {
	tests := []struct {
		path string
		want OutputFormat
	}{
		{"out.json", OutputJSON},
		{"out.JSON.zst", OutputJSON},
		{"report.xlsx", OutputXLSX},
		{"chart.html", OutputHTML},
		{"centroids.txt", OutputCompact},
		{"", OutputCompact},
	}
	for _, tt := range tests {
		if got := FormatForPath(tt.path, OutputCompact); got != tt.want {
			t.Errorf("FormatForPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestWriteRun_Compact(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRun(&buf, sampleRun(), OutputCompact); err != nil {
		t.Fatal(err)
	}
	want := "1  1.5\n9  9.5\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestWriteRun_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRun(&buf, sampleRun(), OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Run run-1", "points.csv (4 rows, 1 skipped)", "state=converged", "[0] n=2  1  1.5", "[1] n=2  9  9.5"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteRun_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRun(&buf, sampleRun(), OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded models.Run
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if decoded.ID != "run-1" || len(decoded.Centroids) != 2 || decoded.Centroids[1][1] != 9.5 {
		t.Errorf("decoded %+v", decoded)
	}
}

func TestWriteRunList(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRunList(&buf, nil, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No runs") {
		t.Errorf("got %q", buf.String())
	}

	buf.Reset()
	if err := WriteRunList(&buf, []*models.Run{sampleRun()}, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "run-1  2024-05-01 12:00:00  k=2") {
		t.Errorf("got %q", buf.String())
	}

	buf.Reset()
	if err := WriteRunList(&buf, nil, OutputJSON); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty JSON list: got %q", buf.String())
	}
}

func TestWriteSkipped(t *testing.T) {
	var buf bytes.Buffer
	WriteSkipped(&buf, []dataset.Skipped{{Row: 3, Column: 1, Reason: "missing value"}})
	if buf.String() != "Removing row 3, column 1: missing value\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleReport(), OutputXLSX); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("output is not a workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(centroidSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[0][2] != "x0" || rows[2][2] != "9" || rows[2][3] != "9.5" {
		t.Errorf("centroid rows = %v", rows)
	}
	rows, err = f.GetRows(assignmentSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 5 || rows[4][1] != "1" {
		t.Errorf("assignment rows = %v", rows)
	}
}

func TestWriteXLSX_centroidsOnly(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, &Report{Run: sampleRun()}); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if idx, _ := f.GetSheetIndex(assignmentSheet); idx != -1 {
		t.Error("assignment sheet should be absent without data")
	}
}

func TestWriteChart(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleReport(), OutputHTML); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"<html", "Cluster 0", "Cluster 1", "Centroids"} {
		if !strings.Contains(out, want) {
			t.Errorf("chart missing %q", want)
		}
	}
}

func TestWriteChart_noCentroids(t *testing.T) {
	run := sampleRun()
	run.Centroids = nil
	if err := WriteChart(io.Discard, &Report{Run: run}); err == nil {
		t.Error("expected error without centroids")
	}
}

func TestOpenOutput_zstd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "centroids.txt.zst")
	w, err := OpenOutput(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteRun(w, sampleRun(), OutputCompact); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatal(err)
	}
	defer dec.Close()
	got, err := io.ReadAll(dec)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "1  1.5\n9  9.5\n" {
		t.Errorf("decompressed %q", got)
	}
}

func TestOpenOutput_plainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	w, err := OpenOutput(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(w, "ok"); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "ok" {
		t.Errorf("got %q", data)
	}
}

func TestOpenOutput_stdoutNotClosed(t *testing.T) {
	w, err := OpenOutput("-")
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stdout.Stat(); err != nil {
		t.Errorf("stdout should stay open: %v", err)
	}
}
