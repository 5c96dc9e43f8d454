package compiler

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", LogLevelDebug},
		{"DEBUG", LogLevelDebug},
		{"info", LogLevelInfo},
		{"warn", LogLevelWarn},
		{"warning", LogLevelWarn},
		{"error", LogLevelError},
		{"off", LogLevelOff},
		{"none", LogLevelOff},
		{"bogus", LogLevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLogLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestConsoleLoggerLevels(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := NewConsoleLoggerWithOutput(LogLevelInfo, &stdout, &stderr)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	if strings.Contains(stdout.String(), "debug message") {
		t.Error("Debug message should be filtered out at INFO level")
	}
	if !strings.Contains(stdout.String(), "info message") {
		t.Error("Info message should be present")
	}
	if !strings.Contains(stderr.String(), "warn message") {
		t.Error("Warn message should be present")
	}
	if !strings.Contains(stderr.String(), "error message") {
		t.Error("Error message should be present")
	}
}

func TestConsoleLoggerKeyValuePairs(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := NewConsoleLoggerWithOutput(LogLevelInfo, &stdout, &stderr)

	logger.Info("test message", "key1", "value1", "key2", 42)

	output := stdout.String()
	if !strings.Contains(output, "key1=value1") {
		t.Error("Key-value pair key1=value1 should be present")
	}
	if !strings.Contains(output, "key2=42") {
		t.Error("Key-value pair key2=42 should be present")
	}
}

func TestConsoleLoggerSetLevel(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := NewConsoleLoggerWithOutput(LogLevelError, &stdout, &stderr)

	if logger.IsDebugEnabled() {
		t.Error("Debug should be disabled at ERROR level")
	}

	logger.SetLevel(LogLevelDebug)
	if !logger.IsDebugEnabled() {
		t.Error("Debug should be enabled after SetLevel(DEBUG)")
	}
}

func TestLoggingConfigCategoryLevels(t *testing.T) {
	config := &LoggingConfig{
		Logger: &NoOpLogger{},
		Level:  LogLevelWarn,
		CategoryLevels: map[LogCategory]LogLevel{
			LogCategoryMatch: LogLevelDebug,
		},
	}

	if config.enabled(LogLevelInfo, LogCategoryGeneral) {
		t.Error("General info should be filtered out at WARN level")
	}
	if !config.enabled(LogLevelDebug, LogCategoryMatch) {
		t.Error("Match debug should be enabled by the category override")
	}
	if !config.enabled(LogLevelError, LogCategoryCache) {
		t.Error("Errors should always pass the WARN threshold")
	}
}

func TestLoggingConfigNilSafe(t *testing.T) {
	var config *LoggingConfig
	if config.enabled(LogLevelError, LogCategoryGeneral) {
		t.Error("A nil config should never report logging as enabled")
	}
}

func TestDefaultLoggingConfigIsSilent(t *testing.T) {
	config := DefaultLoggingConfig()
	if config.enabled(LogLevelError, LogCategoryGeneral) {
		t.Error("The default config should be silent")
	}
	if config.Logger.IsDebugEnabled() {
		t.Error("The no-op logger should report debug as disabled")
	}
}
