// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package contentcore

import (
	"log/slog"

	"github.com/gogpu/contentcore/internal/logging"
)

// SetLogger configures the logger for contentcore and its sub-packages.
// By default nothing is logged. Passing nil restores the silent default.
//
// Log levels:
//   - [slog.LevelDebug]: linker tables, shader reuse, cue scheduling
//   - [slog.LevelInfo]: build summaries, pass-through compiler output
//   - [slog.LevelWarn]: compiler warnings, unexpected bank versions
//
// SetLogger is safe for concurrent use.
func SetLogger(l *slog.Logger) {
	logging.SetLogger(l)
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	return logging.Logger()
}
