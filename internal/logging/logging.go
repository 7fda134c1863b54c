// Package logging configures the global zerolog logger for the pdfhelper
// binary.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Settings selects where and how much to log.
type Settings struct {
	Level string
	// File, when set, receives JSON logs instead of stderr. The TUI needs
	// this since it owns the terminal.
	File string
	// Quiet discards all output when File is empty.
	Quiet bool
}

// Init builds a logger from s, installs it as log.Logger and returns a
// closer for the log file, if any.
func Init(s Settings) (zerolog.Logger, io.Closer, error) {
	level := zerolog.InfoLevel
	if s.Level != "" {
		l, err := zerolog.ParseLevel(s.Level)
		if err != nil {
			return zerolog.Nop(), nil, errors.Wrapf(err, "invalid log level %q", s.Level)
		}
		level = l
	}

	var (
		w      io.Writer
		closer io.Closer = nopCloser{}
	)
	switch {
	case s.File != "":
		f, err := os.OpenFile(s.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, errors.Wrap(err, "cannot open log file")
		}
		w, closer = f, f
	case s.Quiet:
		w = io.Discard
	default:
		w = consoleWriter(os.Stderr)
	}

	logger := New(w, level)
	log.Logger = logger
	zerolog.SetGlobalLevel(level)

	return logger, closer, nil
}

// New returns a timestamped logger writing to w at level.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func consoleWriter(f *os.File) io.Writer {
	return zerolog.ConsoleWriter{
		Out:        f,
		TimeFormat: time.Kitchen,
		NoColor:    !isatty.IsTerminal(f.Fd()),
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
