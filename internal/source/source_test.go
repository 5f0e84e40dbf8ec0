package source

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/xuri/excelize/v2"
)

func TestRead_csv(t *testing.T) {
	l := NewLoader(Options{})
	got, err := l.Read(strings.NewReader("a,b\n1,2\n3\n"), "data.csv")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := [][]string{{"a", "b"}, {"1", "2"}, {"3"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRead_blankLinesKeepLineNumbers(t *testing.T) {
	l := NewLoader(Options{})
	got, err := l.Read(strings.NewReader("x,y\n1,2\n\n\n3,4\n"), "data.csv")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := [][]string{{"x", "y"}, {"1", "2"}, {}, {}, {"3", "4"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRead_quotedNewlineIsOneRow(t *testing.T) {
	l := NewLoader(Options{})
	got, err := l.Read(strings.NewReader("\"a\nb\",1\n2,3\n"), "data.csv")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := [][]string{{"a\nb", "1"}, {"2", "3"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRead_tsvDefaultsToTab(t *testing.T) {
	l := NewLoader(Options{})
	got, err := l.Read(strings.NewReader("1\t2\n3\t\t4\n"), "data.tsv")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := [][]string{{"1", "2"}, {"3", "", "4"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRead_customDelimiter(t *testing.T) {
	l := NewLoader(Options{Delimiter: ';'})
	got, err := l.Read(strings.NewReader("1;2\n"), "-")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !reflect.DeepEqual(got, [][]string{{"1", "2"}}) {
		t.Errorf("got %v", got)
	}
}

func TestRead_excel(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "x")
	f.SetCellValue("Sheet1", "B1", "y")
	f.SetCellValue("Sheet1", "A2", 1.5)
	f.SetCellValue("Sheet1", "B2", 2)
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	got, err := NewLoader(Options{}).Read(&buf, "book.xlsx")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := [][]string{{"x", "y"}, {"1.5", "2"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRead_excelUnknownSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if _, err := NewLoader(Options{Sheet: "Missing"}).Read(&buf, "book.xlsx"); err == nil {
		t.Error("expected error for unknown sheet")
	}
}

func TestLoad_zstdFile(t *testing.T) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := enc.Write([]byte("1,2\n3,4\n")); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "data.csv.zst")
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		t.Fatal(err)
	}

	got, err := NewLoader(Options{}).Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, [][]string{{"1", "2"}, {"3", "4"}}) {
		t.Errorf("got %v", got)
	}
}

func TestRead_lz4(t *testing.T) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write([]byte("5\t6\n")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	got, err := NewLoader(Options{}).Read(&buf, "DATA.TSV.LZ4")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !reflect.DeepEqual(got, [][]string{{"5", "6"}}) {
		t.Errorf("got %v", got)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := NewLoader(Options{}).Load(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseDelimiter(t *testing.T) {
	tests := []struct {
		in      string
		want    rune
		wantErr bool
	}{
		{"", 0, false},
		{",", ',', false},
		{"tab", '\t', false},
		{`\t`, '\t', false},
		{";", ';', false},
		{"ab", 0, true},
		{`"`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDelimiter(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDelimiter(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDelimiter(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
