package compiler

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	// LogLevelDebug logs everything including per-clause compilation steps
	LogLevelDebug LogLevel = iota
	// LogLevelInfo logs general information about compiler operations
	LogLevelInfo
	// LogLevelWarn logs warning messages that don't stop compilation
	LogLevelWarn
	// LogLevelError logs only error conditions
	LogLevelError
	// LogLevelOff disables all logging
	LogLevelOff
)

// String returns the string representation of a log level
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	case LogLevelOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel parses a string into a LogLevel
func ParseLogLevel(level string) LogLevel {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return LogLevelDebug
	case "INFO":
		return LogLevelInfo
	case "WARN", "WARNING":
		return LogLevelWarn
	case "ERROR":
		return LogLevelError
	case "OFF", "NONE":
		return LogLevelOff
	default:
		return LogLevelInfo
	}
}

// LogCategory represents different categories of logging for granular control
type LogCategory string

const (
	// LogCategoryGeneral for general compiler operations
	LogCategoryGeneral LogCategory = "compiler"
	// LogCategoryMatch for pattern-to-join compilation
	LogCategoryMatch LogCategory = "match"
	// LogCategoryWrite for write-plan synthesis
	LogCategoryWrite LogCategory = "write"
	// LogCategoryProjection for RETURN/WITH projection handling
	LogCategoryProjection LogCategory = "projection"
	// LogCategoryCatalog for label resolution and creation
	LogCategoryCatalog LogCategory = "catalog"
	// LogCategoryCache for plan cache hits and evictions
	LogCategoryCache LogCategory = "cache"
)

// Logger defines the interface for pluggable logging in the compiler.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...any)
	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...any)
	// Warn logs a warning message with optional key-value pairs
	Warn(msg string, keysAndValues ...any)
	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...any)
	// IsDebugEnabled returns true if debug logging is enabled
	IsDebugEnabled() bool
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	// Logger is the pluggable logger implementation
	Logger Logger
	// Level sets the global minimum log level to output
	Level LogLevel
	// CategoryLevels allows setting different log levels per category
	CategoryLevels map[LogCategory]LogLevel
}

// DefaultLoggingConfig returns a logging configuration with a no-op logger
// (silent by default)
func DefaultLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		Logger:         &NoOpLogger{},
		Level:          LogLevelOff,
		CategoryLevels: make(map[LogCategory]LogLevel),
	}
}

// NewConsoleLoggingConfig creates a console logging configuration
func NewConsoleLoggingConfig(level LogLevel) *LoggingConfig {
	config := DefaultLoggingConfig()
	config.Logger = NewConsoleLogger(level)
	config.Level = level
	return config
}

// enabled reports whether a message at the given level and category should
// be emitted.
func (c *LoggingConfig) enabled(level LogLevel, category LogCategory) bool {
	if c == nil || c.Logger == nil {
		return false
	}
	if cl, ok := c.CategoryLevels[category]; ok {
		return level >= cl
	}
	return level >= c.Level
}

// NoOpLogger is a logger that does nothing (default behavior)
type NoOpLogger struct{}

func (l *NoOpLogger) Debug(msg string, keysAndValues ...any) {}
func (l *NoOpLogger) Info(msg string, keysAndValues ...any)  {}
func (l *NoOpLogger) Warn(msg string, keysAndValues ...any)  {}
func (l *NoOpLogger) Error(msg string, keysAndValues ...any) {}
func (l *NoOpLogger) IsDebugEnabled() bool                   { return false }

// ConsoleLogger logs to stdout/stderr with configurable level and formatting
type ConsoleLogger struct {
	level      LogLevel
	debugLog   *log.Logger
	infoLog    *log.Logger
	warnLog    *log.Logger
	errorLog   *log.Logger
	mu         sync.RWMutex
	timeFormat string
}

// NewConsoleLogger creates a new console logger with the specified level
func NewConsoleLogger(level LogLevel) *ConsoleLogger {
	return NewConsoleLoggerWithOutput(level, os.Stdout, os.Stderr)
}

// NewConsoleLoggerWithOutput creates a console logger with custom output writers
func NewConsoleLoggerWithOutput(level LogLevel, stdout, stderr io.Writer) *ConsoleLogger {
	return &ConsoleLogger{
		level:      level,
		debugLog:   log.New(stdout, "", 0),
		infoLog:    log.New(stdout, "", 0),
		warnLog:    log.New(stderr, "", 0),
		errorLog:   log.New(stderr, "", 0),
		timeFormat: "2006-01-02 15:04:05.000",
	}
}

// SetLevel updates the log level
func (c *ConsoleLogger) SetLevel(level LogLevel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.level = level
}

func (c *ConsoleLogger) formatMessage(level LogLevel, msg string, keysAndValues ...any) string {
	c.mu.RLock()
	timeFormat := c.timeFormat
	c.mu.RUnlock()

	timestamp := time.Now().Format(timeFormat)
	formatted := fmt.Sprintf("[%s] %s [relgraph] %s", timestamp, level.String(), msg)

	if len(keysAndValues) > 0 {
		var pairs []string
		for i := 0; i < len(keysAndValues); i += 2 {
			if i+1 < len(keysAndValues) {
				key := fmt.Sprintf("%v", keysAndValues[i])
				value := fmt.Sprintf("%v", keysAndValues[i+1])
				pairs = append(pairs, fmt.Sprintf("%s=%s", key, value))
			}
		}
		if len(pairs) > 0 {
			formatted += " | " + strings.Join(pairs, " ")
		}
	}

	return formatted
}

func (c *ConsoleLogger) Debug(msg string, keysAndValues ...any) {
	if c.levelEnabled(LogLevelDebug) {
		c.debugLog.Println(c.formatMessage(LogLevelDebug, msg, keysAndValues...))
	}
}

func (c *ConsoleLogger) Info(msg string, keysAndValues ...any) {
	if c.levelEnabled(LogLevelInfo) {
		c.infoLog.Println(c.formatMessage(LogLevelInfo, msg, keysAndValues...))
	}
}

func (c *ConsoleLogger) Warn(msg string, keysAndValues ...any) {
	if c.levelEnabled(LogLevelWarn) {
		c.warnLog.Println(c.formatMessage(LogLevelWarn, msg, keysAndValues...))
	}
}

func (c *ConsoleLogger) Error(msg string, keysAndValues ...any) {
	if c.levelEnabled(LogLevelError) {
		c.errorLog.Println(c.formatMessage(LogLevelError, msg, keysAndValues...))
	}
}

func (c *ConsoleLogger) IsDebugEnabled() bool {
	return c.levelEnabled(LogLevelDebug)
}

func (c *ConsoleLogger) levelEnabled(level LogLevel) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.level <= level
}
