// Package logging wraps the zerolog global logger with the two output
// modes this repo needs: a human-readable console writer for tests and
// local runs, and JSON for cmd/simulate.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func init() {
	UseConsole()
}

// UseConsole points the global logger at a human-readable console writer.
// This is the default, matching how package tests run.
func UseConsole() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
}

// UseJSON points the global logger at structured JSON output, for cmd/
// entry points.
func UseJSON() {
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// Info, Warn, and Error forward to the global logger's corresponding
// level, mirroring the log.Error().Err(err).Msg(...) call shape used
// throughout this repo.
func Info() *zerolog.Event {
	return log.Info()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Error() *zerolog.Event {
	return log.Error()
}
