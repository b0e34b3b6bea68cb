package actorcore

import (
	"io"
	"os"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the structured logger used throughout the core. It is a
// concrete logiface logger backed by stumpy's zero-dependency JSON
// sink — the teacher monorepo's own "model" logger implementation.
//
// Logging is ambient, never load-bearing: when no Logger is supplied
// via WithLogger, buildDisabledLogger() is used and every call becomes a
// cheap no-op (logiface.LevelDisabled short-circuits Enabled()).
type Logger = *logiface.Logger[*stumpy.Event]

// NewLogger builds a Logger that writes JSON lines to w at the given
// minimum level.
func NewLogger(w io.Writer, level logiface.Level) Logger {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		stumpy.L.WithLevel(level),
	)
}

// NewStderrLogger builds a Logger writing to os.Stderr at the given
// level — the common case for a demo harness or an embedded console.
func NewStderrLogger(level logiface.Level) Logger {
	return NewLogger(os.Stderr, level)
}

// buildDisabledLogger returns a Logger with logging fully disabled.
func buildDisabledLogger() Logger {
	return stumpy.L.New(stumpy.L.WithLevel(logiface.LevelDisabled))
}
