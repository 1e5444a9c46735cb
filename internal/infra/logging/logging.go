package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/fastprodman/fantasyledger/internal/ledger"
)

// SetupJSON sets slog's default logger to use JSON output at the given level
// and returns it.
func SetupJSON(level slog.Level) *slog.Logger {
	return setup(os.Stdout, level)
}

// SetupJSONWriter is SetupJSON writing to w.
func SetupJSONWriter(w io.Writer, level slog.Level) *slog.Logger {
	return setup(w, level)
}

func setup(w io.Writer, level slog.Level) *slog.Logger {
	logger := slog.New(
		slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}),
	)
	slog.SetDefault(logger)

	return logger
}

// Key adds the ledger key attributes.
func Key(k ledger.Key) slog.Attr {
	return slog.Group("ledger",
		slog.String("league", string(k.League)),
		slog.String("participant", string(k.Participant)),
		slog.Int("season", k.Season),
	)
}

func Err(err error) slog.Attr {
	return slog.Any("error", err)
}
