// Package logger provides leveled logging for the vcf-ingest CLI.
// Info, Warn and Error are always written; Debug only when verbose mode
// is enabled via the --verbose flag. Output goes to stderr so that
// command output on stdout stays machine readable.
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
	now               = time.Now
)

// SetVerbose enables or disables debug logging.
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

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func write(level, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	fmt.Fprintf(output, "%s [%s] "+format+"\n",
		append([]any{now().Format(time.DateTime), level}, args...)...)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	if IsVerbose() {
		write("DEBUG", format, args...)
	}
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Info prints an informational message.
func Info(format string, args ...any) {
	write("INFO", format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	write("WARN", format, args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	write("ERROR", format, args...)
}

// Leveled adapts the package logger to clients that take a key/value
// logger, such as retrying HTTP clients.
type Leveled struct {
	// Prefix is prepended to every message.
	Prefix string
}

// Error logs at error level.
func (l Leveled) Error(msg string, keysAndValues ...any) {
	Error("%s%s%s", l.Prefix, msg, formatPairs(keysAndValues))
}

// Warn logs at warn level.
func (l Leveled) Warn(msg string, keysAndValues ...any) {
	Warn("%s%s%s", l.Prefix, msg, formatPairs(keysAndValues))
}

// Info logs at debug level; per-request chatter is not operator news.
func (l Leveled) Info(msg string, keysAndValues ...any) {
	Debug("%s%s%s", l.Prefix, msg, formatPairs(keysAndValues))
}

// Debug logs at debug level.
func (l Leveled) Debug(msg string, keysAndValues ...any) {
	Debug("%s%s%s", l.Prefix, msg, formatPairs(keysAndValues))
}

func formatPairs(kv []any) string {
	var s string
	for i := 0; i+1 < len(kv); i += 2 {
		s += fmt.Sprintf(" %v=%v", kv[i], kv[i+1])
	}
	if len(kv)%2 == 1 {
		s += fmt.Sprintf(" %v", kv[len(kv)-1])
	}
	return s
}
