// Package logger builds the slog.Logger used by the command and storage
// layers.
package logger

import (
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a logger configured for env.
//
// dev (and anything unrecognised) writes human-readable text at debug
// level; staging writes JSON at debug; prod writes JSON at info. When file
// is set, output goes to a rotating log file instead of w.
func New(env, file string, w io.Writer) *slog.Logger {
	if file != "" {
		w = &lumberjack.Logger{
			Filename:   file,
			MaxSize:    25, // megabytes
			MaxBackups: 10,
			MaxAge:     90, // days
		}
	}

	switch env {
	case "prod":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case "staging":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
