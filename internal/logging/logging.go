// Package logging sets up structured logging with zerolog.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New builds a logger writing to w. Pretty mode renders human-readable
// console output; otherwise each line is a JSON object. Unknown levels fall
// back to info.
func New(level string, pretty bool, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Init builds a logger with New and installs it as the global log.Logger.
func Init(level string, pretty bool, w io.Writer) zerolog.Logger {
	logger := New(level, pretty, w)
	log.Logger = logger
	return logger
}

// OpenFile opens path for appending, for front ends that own the terminal.
// The caller closes the returned file.
func OpenFile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

// WithRequestID returns a child logger tagged with id, generating one if empty.
func WithRequestID(l zerolog.Logger, id string) (zerolog.Logger, string) {
	if id == "" {
		id = uuid.NewString()
	}
	return l.With().Str("request_id", id).Logger(), id
}
