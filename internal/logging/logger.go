package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// QueryLog represents a single SQL query execution entry.
type QueryLog struct {
	Timestamp  time.Time `json:"timestamp"`
	QueryID    string    `json:"query_id"`
	TraceID    string    `json:"trace_id,omitempty"`
	Expr       string    `json:"expr"`
	Namespace  string    `json:"namespace,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	Rows       int       `json:"rows"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
}

// Logger handles query-execution logging.
type Logger struct {
	mu      sync.Mutex
	enabled bool
	file    *os.File
	console bool
}

var defaultLogger = &Logger{enabled: true, console: true}

// Default returns the default logger.
func Default() *Logger {
	return defaultLogger
}

// SetOutput sets the log output file.
func (l *Logger) SetOutput(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		l.file.Close()
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	l.file = f
	return nil
}

// SetConsole enables/disables console output.
func (l *Logger) SetConsole(enabled bool) {
	l.mu.Lock()
	l.console = enabled
	l.mu.Unlock()
}

// Log writes a query log entry.
func (l *Logger) Log(entry *QueryLog) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.enabled {
		return
	}

	entry.Timestamp = time.Now()

	if l.console {
		status := "✓"
		if !entry.Success {
			status = "✗"
		}
		fmt.Printf("[query] %s %s %dms rows=%d\n",
			status, entry.QueryID, entry.DurationMs, entry.Rows)
		if entry.Error != "" {
			fmt.Printf("[query]   error: %s\n", entry.Error)
		}
	}

	if l.file != nil {
		data, _ := json.Marshal(entry)
		l.file.Write(append(data, '\n'))
	}
}

// Close closes the log file.
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
}
