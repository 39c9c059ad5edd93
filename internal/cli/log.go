// Package cli implements the reqgraph command-line interface.
//
// The commands resolve Python requirements into dependency graphs, derive
// level views from them, render the results and serve the same pipeline
// over HTTP. The CLI is built using cobra and logs through
// charmbracelet/log.
//
// # Commands
//
//   - graph: resolve a requirements file and render it (optionally watching it)
//   - classify: build a level view from an exported raw graph
//   - render: draw an exported graph or view result
//   - serve: run the HTTP API
//   - cache: inspect or clear the response cache
//
// # Configuration
//
// Settings come from defaults, then reqgraph.toml or reqgraph.yaml (or the
// file given with --config), then .env and REQGRAPH_* variables, then
// explicitly set flags.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// timeFormat renders log timestamps as "HH:MM:SS.cc".
const timeFormat = "15:04:05.00"

// newLogger creates the CLI logger writing to w at level.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      timeFormat,
		Level:           level,
	})
}

// commandLogger scopes l to one subcommand so interleaved output from
// "graph --watch" and "serve" stays attributable.
func commandLogger(l *log.Logger, command string) *log.Logger {
	if command == "" || command == appName {
		return l
	}
	return l.With("cmd", command)
}

// progress times one pipeline stage (resolve, classify, render).
type progress struct {
	logger *log.Logger
	stage  string
	start  time.Time
}

func newProgress(l *log.Logger, stage string) *progress {
	l.Debug("stage started", "stage", stage)
	return &progress{logger: l, stage: stage, start: time.Now()}
}

// done logs msg with the stage, its elapsed time and any extra key/value
// pairs, and returns the elapsed time.
func (p *progress) done(msg string, keyvals ...any) time.Duration {
	elapsed := time.Since(p.start).Round(time.Millisecond)
	fields := append([]any{"stage", p.stage, "elapsed", elapsed}, keyvals...)
	p.logger.Info(msg, fields...)
	return elapsed
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by the root command, or
// log.Default() when a command runs without it.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
