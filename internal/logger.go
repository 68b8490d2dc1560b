package internal

import (
	"io"
	"log/slog"
	"strings"
	"time"
)

// NewLogger builds the process logger. Production writes JSON with
// RFC3339Nano timestamps; other environments write text, with source
// locations at debug level. Unknown levels fall back to info.
func NewLogger(w io.Writer, env string, level string) *slog.Logger {
	lvl := new(slog.LevelVar)
	if level != "" {
		if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
			slog.Default().Warn("invalid LOG_LEVEL, using info", "value", level)
			lvl.Set(slog.LevelInfo)
		}
	}

	var h slog.Handler
	if env == "prod" {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: lvl,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey && len(groups) == 0 {
					return slog.String(slog.TimeKey, a.Value.Time().UTC().Format(time.RFC3339Nano))
				}
				return a
			},
		})
	} else {
		h = slog.NewTextHandler(w, &slog.HandlerOptions{
			Level:     lvl,
			AddSource: lvl.Level() <= slog.LevelDebug,
		})
	}

	return slog.New(h).With(
		slog.String("service", "taxsim"),
		slog.String("env", env),
	)
}
