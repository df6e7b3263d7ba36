package logger

import (
	"log/slog"
	"os"
)

// New returns a JSON structured logger. Debug level outside production
// environments; no business logic should depend on logging implementation
// details.
func New(appEnv string) *slog.Logger {
	level := slog.LevelInfo
	if appEnv == "local" || appEnv == "dev" {
		level = slog.LevelDebug
	}

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}
