package cli

import (
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns an slog logger that writes through charmbracelet/log.
// Unknown levels fall back to info.
func newLogger(w io.Writer, level string) *slog.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	handler := log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Prefix:          "legalgate",
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	})
	return slog.New(handler)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
