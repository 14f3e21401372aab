package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// attribute keys whose values never reach the log
var redactedKeys = map[string]struct{}{
	"password":      {},
	"authorization": {},
	"token":         {},
	"jwt_secret":    {},
}

// NewLogger returns the process JSON logger. level is a slog level name
// ("debug", "warn", ...); empty or unknown picks debug in dev and info
// elsewhere.
func NewLogger(env, level string) *slog.Logger {
	return newLogger(os.Stdout, env, level)
}

func newLogger(w io.Writer, env, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       parseLevel(env, level),
		ReplaceAttr: redact,
	})

	return slog.New(NewTraceHandler(handler)).With(
		slog.String("service", "clocktrack"),
		slog.String("env", env),
	)
}

func parseLevel(env, raw string) slog.Level {
	var lvl slog.Level
	if raw != "" && lvl.UnmarshalText([]byte(raw)) == nil {
		return lvl
	}

	if env == "dev" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if _, ok := redactedKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, "[redacted]")
	}
	return a
}
