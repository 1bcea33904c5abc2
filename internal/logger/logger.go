// Package logger provides verbose logging for the postmetrics CLI.
// When verbose mode is enabled via the --verbose flag, pipeline steps
// (detection, normalisation warnings, store writes and cache activity)
// are printed to stderr. Library code logs only through this package.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.Mutex
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
	mu.Lock()
	defer mu.Unlock()
	return verbose
}

// SetOutput sets the output writer for verbose logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Debug prints per-row and per-column detail.
func Debug(format string, args ...any) {
	write("[DEBUG] ", format, args...)
}

// Info prints pipeline progress.
func Info(format string, args ...any) {
	write("[INFO] ", format, args...)
}

// Warn prints data-quality problems and recoverable failures.
func Warn(format string, args ...any) {
	write("[WARN] ", format, args...)
}

// Section prints a header separating one upload's log lines from the next.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// write holds the lock for the whole write so lines never interleave.
func write(prefix, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !verbose {
		return
	}
	fmt.Fprintf(output, prefix+format+"\n", args...)
}
