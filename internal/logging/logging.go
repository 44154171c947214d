// Package logging wires slog to a charmbracelet/log backend with a
// per-invocation run id for correlating CI log lines.
package logging

import (
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/term"
)

// Setup initializes the global slog logger. TTY output gets the
// colored text format; CI output gets JSON. Every line carries the
// run id so interleaved workflow logs stay attributable.
func Setup(verbose bool) {
	handler := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
	})

	if verbose {
		handler.SetLevel(charmlog.DebugLevel)
	} else {
		handler.SetLevel(charmlog.InfoLevel)
	}

	if !isTerminal() {
		handler.SetFormatter(charmlog.JSONFormatter)
	}

	logger := slog.New(handler).With("run_id", uuid.NewString())
	slog.SetDefault(logger)
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}
