package utils

import "go.uber.org/zap"

// NewLogger returns a zap logger. When debug is true, uses development config
// (human-readable, debug level); otherwise uses production config (JSON, info level).
// Both write to stderr so results on stdout stay clean.
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
