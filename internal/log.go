package internal

import (
	"log"
	"os"
	"strings"
)

// LogLevel represents different logging verbosity levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

// Logger provides leveled logging. A component name, when set, is printed after the level.
type Logger struct {
	level     LogLevel
	component string
}

// NewLogger creates a new logger with the specified level
func NewLogger(level LogLevel) *Logger {
	return &Logger{level: level}
}

// ParseLogLevel maps ERROR, WARN, INFO, DEBUG and TRACE (any case) to a level
func ParseLogLevel(s string) (LogLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LogLevelError, true
	case "WARN", "WARNING":
		return LogLevelWarn, true
	case "INFO":
		return LogLevelInfo, true
	case "DEBUG":
		return LogLevelDebug, true
	case "TRACE":
		return LogLevelTrace, true
	}
	return LogLevelInfo, false
}

// NewDefaultLogger creates a logger based on LOG_LEVEL environment variable
func NewDefaultLogger() *Logger {
	level := LogLevelInfo
	if parsed, ok := ParseLogLevel(os.Getenv("LOG_LEVEL")); ok {
		level = parsed
	}
	return &Logger{level: level}
}

// With returns a logger that tags every line with component
func (l *Logger) With(component string) *Logger {
	return &Logger{level: l.level, component: component}
}

// Enabled reports whether messages at level are printed
func (l *Logger) Enabled(level LogLevel) bool {
	return l.level >= level
}

func (l *Logger) printf(tag, format string, args ...interface{}) {
	if l.component != "" {
		log.Printf(tag+" ["+l.component+"] "+format, args...)
		return
	}
	log.Printf(tag+" "+format, args...)
}

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	if l.level >= LogLevelError {
		l.printf("[ERROR]", format, args...)
	}
}

// Warn logs warning messages
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.level >= LogLevelWarn {
		l.printf("[WARN]", format, args...)
	}
}

// Info logs info messages
func (l *Logger) Info(format string, args ...interface{}) {
	if l.level >= LogLevelInfo {
		l.printf("[INFO]", format, args...)
	}
}

// Debug logs debug messages
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.level >= LogLevelDebug {
		l.printf("[DEBUG]", format, args...)
	}
}

// Trace logs trace messages
func (l *Logger) Trace(format string, args ...interface{}) {
	if l.level >= LogLevelTrace {
		l.printf("[TRACE]", format, args...)
	}
}

// Detail logs at Info when verbose is set and at Debug otherwise. Discovery phases use
// it for per-edge decisions, which the caller's verbosity flag promotes.
func (l *Logger) Detail(verbose bool, format string, args ...interface{}) {
	if verbose {
		l.Info(format, args...)
		return
	}
	l.Debug(format, args...)
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() LogLevel {
	return l.level
}

// Global logger instance
var DefaultLogger = NewDefaultLogger()

// OrDefault returns l, or DefaultLogger when l is nil
func OrDefault(l *Logger) *Logger {
	if l == nil {
		return DefaultLogger
	}
	return l
}
