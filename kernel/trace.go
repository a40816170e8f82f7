package kernel

import (
	"context"
	"log/slog"
)

// LevelTrace is below Debug so that the default handler drops per-edge
// records unless a handler opts in.
const LevelTrace slog.Level = slog.LevelDebug - 4

// Trace logs a harness event at LevelTrace.
func Trace(msg string, args ...any) {
	slog.Log(context.Background(), LevelTrace, msg, args...)
}
