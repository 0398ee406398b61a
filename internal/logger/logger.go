// Package logger provides process-wide logging for the recall CLI and server.
// Debug and info output is only written when verbose mode is enabled via the
// --verbose flag; warnings and errors are always written. Messages go to stderr through
// zerolog so they never mix with command output on stdout.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu      sync.RWMutex
	verbose bool
	asJSON  bool
	output  io.Writer = os.Stderr
	log               = build()
)

// build creates the zerolog logger for the current settings. Caller holds mu.
func build() zerolog.Logger {
	var w io.Writer = output
	if !asJSON {
		w = zerolog.ConsoleWriter{
			Out:        output,
			NoColor:    true,
			TimeFormat: time.TimeOnly,
		}
	}

	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	log = build()
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetJSON switches between console and JSON line output.
func SetJSON(v bool) {
	mu.Lock()
	defer mu.Unlock()
	asJSON = v
	log = build()
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	log = build()
}

// L returns the underlying logger for structured fields.
func L() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// Debug writes a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	l := L()
	l.Debug().Msg(fmt.Sprintf(format, args...))
}

// Section writes a section header if verbose mode is enabled.
func Section(name string) {
	l := L()
	l.Debug().Msg("=== " + name + " ===")
}

// Info writes an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	l := L()
	l.Info().Msg(fmt.Sprintf(format, args...))
}

// Warn writes a warning message.
func Warn(format string, args ...any) {
	l := L()
	l.Warn().Msg(fmt.Sprintf(format, args...))
}

// Error writes an error message.
func Error(format string, args ...any) {
	l := L()
	l.Error().Msg(fmt.Sprintf(format, args...))
}
