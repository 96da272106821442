// Package obslog provides the package-level logger used across allockit for
// diagnostics that have no return-value channel to travel through — most
// notably bump.Allocator.Reset(), which per contract cannot report release
// failures to its caller and logs them instead.
//
// Logging is discarded by default. Embedding applications call SetLogger to
// redirect it to their own slog.Logger.
package obslog

import (
	"io"
	"log/slog"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

// SetLogger replaces the package-level logger used by allockit. Passing nil
// is a no-op.
func SetLogger(l *slog.Logger) {
	if l == nil {
		return
	}
	logger = l
}

// Logger returns the currently configured logger.
func Logger() *slog.Logger {
	return logger
}
