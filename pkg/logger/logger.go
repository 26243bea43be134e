package logger

import (
	"log/slog"
	"os"
)

// Log is the process-wide structured logger. Tests that never call Init get a
// discard-free default so package code can log unconditionally.
var Log = slog.Default()

// Init installs a JSON handler on stdout. Production runs at Info, everything
// else at Debug.
func Init(environment string) {
	level := slog.LevelDebug
	if environment == "production" {
		level = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}).WithAttrs([]slog.Attr{slog.String("service", "proofhire-backend")})
	Log = slog.New(handler)
}
