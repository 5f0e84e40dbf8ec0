package cli

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	centroidSheet   = "Centroids"
	assignmentSheet = "Assignments"
)

// WriteXLSX writes a workbook with one row per centroid and, when the report
// carries data and labels, one row per input vector with its cluster.
func WriteXLSX(w io.Writer, report *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", centroidSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	run := report.Run
	header := []interface{}{"cluster", "size"}
	for j := 0; j < centroidDim(run.Centroids); j++ {
		header = append(header, fmt.Sprintf("x%d", j))
	}
	if err := setRow(f, centroidSheet, 1, header); err != nil {
		return err
	}
	for i, c := range run.Centroids {
		size := 0
		if i < len(run.Sizes) {
			size = run.Sizes[i]
		}
		row := []interface{}{i, size}
		for _, v := range c {
			row = append(row, v)
		}
		if err := setRow(f, centroidSheet, i+2, row); err != nil {
			return err
		}
	}

	if len(report.Data) > 0 && len(report.Labels) == len(report.Data) {
		if _, err := f.NewSheet(assignmentSheet); err != nil {
			return fmt.Errorf("create sheet: %w", err)
		}
		header := []interface{}{"row", "cluster"}
		for j := 0; j < report.Data.Dim(); j++ {
			header = append(header, fmt.Sprintf("x%d", j))
		}
		if err := setRow(f, assignmentSheet, 1, header); err != nil {
			return err
		}
		for i, v := range report.Data {
			row := []interface{}{i, report.Labels[i]}
			for _, x := range v {
				row = append(row, x)
			}
			if err := setRow(f, assignmentSheet, i+2, row); err != nil {
				return err
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func centroidDim(centroids [][]float64) int {
	if len(centroids) == 0 {
		return 0
	}
	return len(centroids[0])
}
