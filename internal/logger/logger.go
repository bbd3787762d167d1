// Package logger provides process-wide logging for ragcore.
// Debug, Info, Section and Timer output appears only with --verbose and
// traces the index and retrieve pipelines. Warnings are always printed.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// logf writes one line, dropping it when quiet unless always is set.
// Writes hold the write lock so lines from concurrent callers do not interleave.
func logf(always bool, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if always || verbose {
		fmt.Fprintf(output, format, args...)
	}
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	logf(false, "[DEBUG] "+format+"\n", args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	logf(false, "[INFO] "+format+"\n", args...)
}

// Warn prints a warning message regardless of verbose mode.
func Warn(format string, args ...any) {
	logf(true, "[WARN] "+format+"\n", args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	logf(false, "\n=== %s ===\n", name)
}

// Timer returns a function that logs the time elapsed since Timer was
// called. Use it as defer logger.Timer("Build")().
func Timer(name string) func() {
	start := time.Now()
	return func() {
		logf(false, "[TIME] %s took %s\n", name, time.Since(start).Round(time.Microsecond))
	}
}
