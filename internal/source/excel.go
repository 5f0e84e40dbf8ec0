package source

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

func readExcel(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("open Excel: workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheet, err)
	}
	return rows, nil
}
