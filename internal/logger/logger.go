package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var zlog = zerolog.Nop()

// Init настраивает глобальный логгер: консоль в dev, JSON в остальных окружениях
func Init(development bool) {
	var w io.Writer = os.Stdout
	if development {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	zerolog.TimeFieldFormat = time.RFC3339
	zlog = zerolog.New(w).With().
		Timestamp().
		Str("service", "manualdesk").
		Logger()
}

// Get returns the process-wide logger.
func Get() *zerolog.Logger {
	return &zlog
}

// With returns a child logger with a component field.
func With(component string) zerolog.Logger {
	return zlog.With().Str("component", component).Logger()
}
