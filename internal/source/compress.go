package source

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

type compression struct {
	ext  string
	open func(io.Reader) (io.Reader, func(), error)
}

var compressions = []compression{
	{ext: ".zst", open: openZstd},
	{ext: ".lz4", open: openLZ4},
}

func compressionOf(name string) (compression, bool) {
	for _, c := range compressions {
		if strings.HasSuffix(name, c.ext) {
			return c, true
		}
	}
	return compression{}, false
}

func openZstd(r io.Reader) (io.Reader, func(), error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("create zstd reader: %w", err)
	}
	return dec, dec.Close, nil
}

func openLZ4(r io.Reader) (io.Reader, func(), error) {
	return lz4.NewReader(r), func() {}, nil
}
