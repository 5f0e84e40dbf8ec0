package source

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// readDelimited splits r into records. Rows may have differing field counts;
// the row filter decides what to do with short rows. A blank line yields an
// empty record, so record i always starts on line i+1 of the input.
func readDelimited(r io.Reader, delim rune) ([][]string, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	next := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read delimited input: %w", err)
		}
		// encoding/csv drops blank lines; put them back.
		start, _ := reader.FieldPos(0)
		for ; next < start; next++ {
			rows = append(rows, []string{})
		}
		rows = append(rows, record)

		last := len(record) - 1
		end, _ := reader.FieldPos(last)
		next = end + strings.Count(record[last], "\n") + 1
	}
	return rows, nil
}
