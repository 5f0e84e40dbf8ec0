// Package fileid provides a deterministic source ID for clustering inputs.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

const prefix = "file:"

// StdinID identifies input read from standard input or an HTTP request body.
const StdinID = "stdin"

// SourceID returns a stable ID for the input file at path. Relative paths are
// resolved against the working directory, so the same file always yields the
// same ID. "-" and "" mean standard input.
func SourceID(path string) string {
	if path == "" || path == "-" {
		return StdinID
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	normalized := filepath.Clean(path)
	hash := sha256.Sum256([]byte(normalized))
	return prefix + hex.EncodeToString(hash[:])
}
