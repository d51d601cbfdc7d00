// Package logging bootstraps the process-wide zerolog logger, following
// the teacher's own cmd/pulse main.go wiring: a console writer for a TTY
// stderr, and a plain JSON writer otherwise, so piping dcg's stderr into a
// log aggregator gets structured lines instead of ANSI-decorated ones.
package logging

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// Setup installs the process-wide logger. level parses via
// zerolog.ParseLevel; an unparseable level falls back to Info rather than
// failing startup over a logging misconfiguration.
func Setup(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if shouldUseConsoleWriter() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

func shouldUseConsoleWriter() bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("DCG_NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}
