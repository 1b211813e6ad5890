// Package logger provides levelled logging for flowsupport.
// Lines carry a [LEVEL] prefix; debug lines are only written in verbose mode.
package logger

import (
	"io"
	"log"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	std     = log.New(os.Stderr, "", log.LstdFlags)
)

// SetVerbose enables or disables debug logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if debug logging is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	std.SetOutput(w)
}

// Debug logs only in verbose mode.
func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		std.Printf("[DEBUG] "+format, args...)
	}
}

// Info logs an informational message.
func Info(format string, args ...any) {
	logf("[INFO] ", format, args...)
}

// Warn logs a recoverable problem.
func Warn(format string, args ...any) {
	logf("[WARN] ", format, args...)
}

// Error logs a failure.
func Error(format string, args ...any) {
	logf("[ERROR] ", format, args...)
}

// Fatal logs and exits with status 1.
func Fatal(format string, args ...any) {
	logf("[FATAL] ", format, args...)
	os.Exit(1)
}

func logf(prefix, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	std.Printf(prefix+format, args...)
}
