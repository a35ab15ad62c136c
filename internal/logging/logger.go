// Package logging builds the importer's diagnostics logger.
//
// One logger instance is constructed at startup and passed to the components
// that emit diagnostics. It writes to two sinks: a human-readable console
// stream at info level and above, and an append-only log file that also
// receives debug entries.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Options configures New.
type Options struct {
	// Console receives info-and-above entries. Defaults to os.Stdout.
	Console io.Writer

	// FilePath is the append-only debug log. Empty disables the file sink.
	FilePath string

	// Verbose lowers the console threshold to debug.
	Verbose bool
}

// New creates the dual-sink logger. The returned closer releases the log
// file and must be called once the run is over.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	console := opts.Console
	if console == nil {
		console = os.Stdout
	}

	consoleLevel := zerolog.InfoLevel
	if opts.Verbose {
		consoleLevel = zerolog.DebugLevel
	}

	writers := []io.Writer{
		&zerolog.FilteredLevelWriter{
			Writer: zerolog.LevelWriterAdapter{Writer: zerolog.ConsoleWriter{
				Out:        console,
				TimeFormat: time.RFC3339,
			}},
			Level: consoleLevel,
		},
	}

	var closer io.Closer = nopCloser{}
	if opts.FilePath != "" {
		f, err := os.OpenFile(opts.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to open log file: %w", err)
		}
		closer = f
		writers = append(writers, &zerolog.FilteredLevelWriter{
			Writer: zerolog.LevelWriterAdapter{Writer: f},
			Level:  zerolog.DebugLevel,
		})
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(zerolog.DebugLevel).
		With().
		Timestamp().
		Logger()

	return logger, closer, nil
}

// NewWithWriter creates a single-sink JSON logger, used by tests to capture
// diagnostics.
func NewWithWriter(w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(zerolog.DebugLevel).With().Timestamp().Logger()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
