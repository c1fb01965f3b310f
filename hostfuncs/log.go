package hostfuncs

import (
	"context"
	"log/slog"
	"strings"

	"github.com/reglet-dev/operator-host/log"
	"github.com/reglet-dev/operator-host/wireformat"
)

// LogMessage writes a guest log line to the operator logger. It never fails.
func LogMessage(ctx context.Context, req wireformat.LogMessageWire) *ErrorResponse {
	args := append([]any{"stream", "guest"}, log.Attrs(req.Attrs)...)
	LoggerFrom(ctx).Log(ctx, guestLevel(req.Level), req.Message, args...)
	return nil
}

func guestLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug", "trace":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
