// Package logging constructs the structured logger used throughout
// transitsim, grounded on pedeveaux-kafka-ride-sharing's logger.Init/
// Fatal pattern and enriched with lmittmann/tint for a coloured
// handler under the "console" format (no terminal detection is done).
package logging

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

// Logger is the process-wide structured logger, set by Init.
var Logger *slog.Logger

func init() {
	Init(slog.LevelInfo, "console")
}

// Init (re)configures the package logger. format is "json" for plain
// structured JSON (suitable for log aggregation) or "console" for a
// coloured, human-readable tint handler.
func Init(level slog.Level, format string) {
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	default:
		handler = tint.NewHandler(os.Stdout, &tint.Options{Level: level})
	}
	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

// Fatal logs msg at error level and exits the process. Reserved for
// the CLI boundary's data-integrity failures (spec §7): setup errors
// that must fail fatally with a one-line diagnostic.
func Fatal(msg string, args ...any) {
	Logger.Error(msg, args...)
	os.Exit(1)
}
