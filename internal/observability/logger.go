package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// redacted lists attribute keys that must never reach the log stream, even
// when a handler logs a whole request by mistake.
var redacted = []string{"password", "passwordhash", "secret", "token", "authorization", "cookie"}

func NewLogger(env string) *slog.Logger {
	return newLogger(os.Stdout, env)
}

func newLogger(w io.Writer, env string) *slog.Logger {
	level := slog.LevelInfo

	if env == "dev" {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redactAttr,
	})

	return slog.New(NewContextHandler(handler)).With("env", env)
}

func redactAttr(_ []string, a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)
	for _, r := range redacted {
		if key == r {
			return slog.String(a.Key, "[REDACTED]")
		}
	}
	return a
}
