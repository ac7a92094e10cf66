// =============================================================================
// Plan of Study Converter - Logging
// =============================================================================
//
// A small leveled logger shared by the converter, the CLI and the HTTP
// server. Messages are printf-style and written one per line:
//
//   2026-10-17T09:30:00Z [INFO] Processing file: input/teng43.xlsx
//
// CUSTOMIZATION:
//   Implement the Logger interface to route messages into another logging
//   library. Everything in this repository only depends on the interface.
//
// =============================================================================

package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Logger is the logging interface used across the application.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// ParseLevel maps "debug", "info", "warn"/"warning" and "error" to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// =============================================================================
// STANDARD LOGGER
// =============================================================================

// StdLogger writes leveled lines to an io.Writer. It is safe for concurrent
// use; batch conversion logs from several goroutines at once.
type StdLogger struct {
	mu    sync.Mutex
	out   io.Writer
	level Level
	now   func() time.Time
}

// New returns a logger writing messages at or above level to out.
func New(out io.Writer, level Level) *StdLogger {
	return &StdLogger{out: out, level: level, now: time.Now}
}

// Default returns an info-level logger on stdout.
func Default() *StdLogger {
	return New(os.Stdout, LevelInfo)
}

// SetLevel changes the minimum level.
func (l *StdLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Level returns the minimum level.
func (l *StdLogger) Level() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

func (l *StdLogger) Debug(msg string, args ...interface{}) { l.log(LevelDebug, msg, args) }
func (l *StdLogger) Info(msg string, args ...interface{})  { l.log(LevelInfo, msg, args) }
func (l *StdLogger) Warn(msg string, args ...interface{})  { l.log(LevelWarn, msg, args) }
func (l *StdLogger) Error(msg string, args ...interface{}) { l.log(LevelError, msg, args) }

func (l *StdLogger) log(level Level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}
	line := fmt.Sprintf(msg, args...)
	fmt.Fprintf(l.out, "%s [%s] %s\n", l.now().UTC().Format(time.RFC3339), level, line)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Debug(string, ...interface{}) {}
func (Nop) Info(string, ...interface{})  {}
func (Nop) Warn(string, ...interface{})  {}
func (Nop) Error(string, ...interface{}) {}
