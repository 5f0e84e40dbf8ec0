package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

const zstdExt = ".zst"

// OpenOutput opens the destination for results. "" and "-" mean stdout,
// which is never closed. A path ending in .zst is zstd-compressed.
func OpenOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	if !strings.HasSuffix(strings.ToLower(path), zstdExt) {
		return f, nil
	}
	enc, err := zstd.NewWriter(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create zstd writer: %w", err)
	}
	return &zstdFile{enc: enc, f: f}, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

type zstdFile struct {
	enc *zstd.Encoder
	f   *os.File
}

func (z *zstdFile) Write(p []byte) (int, error) { return z.enc.Write(p) }

// Close flushes the compressed stream, then closes the file.
func (z *zstdFile) Close() error {
	encErr := z.enc.Close()
	fileErr := z.f.Close()
	if encErr != nil {
		return fmt.Errorf("finish zstd stream: %w", encErr)
	}
	return fileErr
}
