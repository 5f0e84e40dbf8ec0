// Package source reads tabular files into rows of text fields.
package source

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Options controls how a file is split into rows.
type Options struct {
	// Delimiter separates fields in delimited text. Zero means ',' or, for
	// .tsv files, a tab.
	Delimiter rune
	// Sheet selects the worksheet of a spreadsheet. Empty means the first.
	Sheet string
}

// Loader reads rows from files.
type Loader struct {
	opts Options
}

// NewLoader returns a Loader with the given options.
func NewLoader(opts Options) *Loader {
	return &Loader{opts: opts}
}

// Load reads the file at path and returns its rows. The format is chosen by
// extension: .xlsx is read as a spreadsheet, anything else as delimited text.
// A trailing .zst or .lz4 extension is decompressed first, so data.csv.zst
// is read as compressed CSV.
func (l *Loader) Load(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	return l.Read(f, filepath.Base(path))
}

// Read parses rows from r. name is only used to pick the format, as in Load;
// pass "" or "-" for plain delimited text.
func (l *Loader) Read(r io.Reader, name string) ([][]string, error) {
	name = strings.ToLower(name)
	if c, ok := compressionOf(name); ok {
		dr, closeFn, err := c.open(r)
		if err != nil {
			return nil, err
		}
		defer closeFn()
		r = dr
		name = strings.TrimSuffix(name, c.ext)
	}

	switch filepath.Ext(name) {
	case ".xlsx":
		content, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read spreadsheet: %w", err)
		}
		return readExcel(bytes.NewReader(content), l.opts.Sheet)
	case ".tsv":
		delim := l.opts.Delimiter
		if delim == 0 {
			delim = '\t'
		}
		return readDelimited(r, delim)
	default:
		delim := l.opts.Delimiter
		if delim == 0 {
			delim = ','
		}
		return readDelimited(r, delim)
	}
}

// ParseDelimiter converts a config or flag value into a delimiter rune.
// "tab" and `\t` mean a tab; empty means the default.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case "tab", `\t`, "\t":
		return '\t', nil
	}
	runes := []rune(s)
	if len(runes) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	if runes[0] == '"' || runes[0] == '\n' || runes[0] == '\r' {
		return 0, fmt.Errorf("invalid delimiter %q", s)
	}
	return runes[0], nil
}
