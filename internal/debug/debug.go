package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EnableDebug can be switched on at build time:
// go build -ldflags "-X github.com/standardbeagle/purity/internal/debug.EnableDebug=true"
var EnableDebug = "false"

// MCPMode is set by main when serving MCP over stdio
var MCPMode = false

var (
	mu        sync.Mutex
	output    io.Writer
	logFile   *os.File
	envChecks = []string{"PURITY_DEBUG", "DEBUG"}
)

// SetMCPMode suppresses all debug output so stdio stays protocol-clean
func SetMCPMode(enabled bool) {
	MCPMode = enabled
}

// SetDebugOutput sets the debug writer. nil disables output.
func SetDebugOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// InitDebugLogFile routes debug output to a timestamped file under the temp
// dir and returns its path. Call CloseDebugLog when done.
func InitDebugLogFile() (string, error) {
	mu.Lock()
	defer mu.Unlock()

	dir := filepath.Join(os.TempDir(), "purity-debug-logs")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create debug log directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("debug-%s.log", time.Now().Format("2006-01-02T150405")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create debug log file: %w", err)
	}

	logFile = f
	output = f
	return path, nil
}

// CloseDebugLog closes the log file opened by InitDebugLogFile
func CloseDebugLog() error {
	mu.Lock()
	defer mu.Unlock()

	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	output = nil
	return err
}

// IsDebugEnabled reports whether debug output is on. MCP mode always wins.
func IsDebugEnabled() bool {
	if MCPMode {
		return false
	}
	if EnableDebug == "true" {
		return true
	}
	for _, name := range envChecks {
		if v := os.Getenv(name); v == "1" || v == "true" {
			return true
		}
	}
	return false
}

func writer() io.Writer {
	if !IsDebugEnabled() {
		return nil
	}
	mu.Lock()
	defer mu.Unlock()
	return output
}

// Printf writes a debug line when enabled
func Printf(format string, args ...interface{}) {
	if w := writer(); w != nil {
		fmt.Fprintf(w, "[DEBUG] "+format, args...)
	}
}

// Log writes a debug line tagged with a component name
func Log(component, format string, args ...interface{}) {
	if w := writer(); w != nil {
		fmt.Fprintf(w, "[DEBUG:%s] "+format, append([]interface{}{component}, args...)...)
	}
}

// LogAnalysis logs unit classification
func LogAnalysis(format string, args ...interface{}) {
	Log("ANALYSIS", format, args...)
}

// LogBind logs front-end parsing and binding
func LogBind(format string, args ...interface{}) {
	Log("BIND", format, args...)
}

// LogKnown logs registry loading
func LogKnown(format string, args ...interface{}) {
	Log("KNOWN", format, args...)
}

// LogCache logs result cache hits and writes
func LogCache(format string, args ...interface{}) {
	Log("CACHE", format, args...)
}

// LogWatch logs file watching
func LogWatch(format string, args ...interface{}) {
	Log("WATCH", format, args...)
}

// LogMCP logs MCP tool calls
func LogMCP(format string, args ...interface{}) {
	Log("MCP", format, args...)
}

// Timed logs the duration of an operation when the returned func is called:
//
//	defer debug.Timed("ANALYSIS", "run")()
func Timed(component, operation string) func() {
	if !IsDebugEnabled() {
		return func() {}
	}
	start := time.Now()
	return func() {
		Log(component, "%s took %v\n", operation, time.Since(start))
	}
}

// Fatal records a fatal message and returns it as an error. Callers decide
// whether to exit.
func Fatal(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if !MCPMode {
		mu.Lock()
		w := output
		mu.Unlock()
		if w != nil {
			fmt.Fprintf(w, "[FATAL] %s\n", msg)
		}
	}
	return fmt.Errorf("fatal error: %s", msg)
}
