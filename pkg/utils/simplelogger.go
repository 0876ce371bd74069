// Package utils provides the assistant's file logger and process helpers.
//
// The logger writes key/value lines to a single log file (assistant.log by
// default) so the terminal stays free for the conversation.
// Thread-safe through sync.Mutex.
package utils

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Level is a logging severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the upper-case label written to the log.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

// ParseLevel maps a config value (debug|info|warn|warning|error) to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelWarn, fmt.Errorf("unknown log level %q", s)
	}
}

var (
	logFile  *os.File
	logMutex sync.Mutex
	minLevel = LevelWarn
)

// InitLogger opens filename for writing, truncating a previous run's log.
//
// Calling it again closes the current file and reopens with the new settings.
func InitLogger(filename string, level Level) error {
	logMutex.Lock()
	defer logMutex.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	logFile = f
	minLevel = level

	// Write directly: log() would deadlock on logMutex.
	initLine := fmt.Sprintf("[%s] INFO: Logger initialized file=%s level=%s\n",
		time.Now().Format("2006-01-02 15:04:05"), filename, level)
	if _, err := logFile.WriteString(initLine); err != nil {
		fmt.Fprintf(os.Stderr, "%s", initLine)
		fmt.Fprintf(os.Stderr, "[LOGGER ERROR: WriteString failed: %v]\n", err)
	}

	return nil
}

// Info - informational message.
func Info(msg string, keyvals ...any) {
	log(LevelInfo, msg, keyvals...)
}

// Error - error message.
func Error(msg string, keyvals ...any) {
	log(LevelError, msg, keyvals...)
}

// Debug - debug message.
func Debug(msg string, keyvals ...any) {
	log(LevelDebug, msg, keyvals...)
}

// Warn - warning.
func Warn(msg string, keyvals ...any) {
	log(LevelWarn, msg, keyvals...)
}

// Enabled reports whether messages at level are written.
func Enabled(level Level) bool {
	logMutex.Lock()
	defer logMutex.Unlock()
	return logFile != nil && level >= minLevel
}

// FormatLine renders one log line.
//
// Format: [YYYY-MM-DD HH:MM:SS] LEVEL: message key1=value1 key2=value2
// A trailing key without a value is dropped.
func FormatLine(ts time.Time, level Level, msg string, keyvals ...any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s: %s", ts.Format("2006-01-02 15:04:05"), level, msg)
	for i := 0; i+1 < len(keyvals); i += 2 {
		fmt.Fprintf(&b, " %v=%v", keyvals[i], keyvals[i+1])
	}
	b.WriteString("\n")
	return b.String()
}

func log(level Level, msg string, keyvals ...any) {
	logMutex.Lock()
	defer logMutex.Unlock()

	if logFile == nil || level < minLevel {
		return
	}

	line := FormatLine(time.Now(), level, msg, keyvals...)

	if _, err := logFile.WriteString(line); err != nil {
		// Fallback: file unavailable, keep the line on stderr
		fmt.Fprintf(os.Stderr, "%s", line)
		fmt.Fprintf(os.Stderr, "[LOGGER ERROR: WriteString failed: %v]\n", err)
		return
	}

	if err := logFile.Sync(); err != nil {
		fmt.Fprintf(os.Stderr, "[LOGGER WARNING: Sync failed: %v]\n", err)
	}
}

// Close closes the log file.
//
// Called via defer in main().
func Close() {
	logMutex.Lock()
	defer logMutex.Unlock()

	if logFile != nil {
		if err := logFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "[LOGGER WARNING: Close failed: %v]\n", err)
		}
		logFile = nil
	}
}

// MaskKey shows the first 8 characters of a secret for identification.
func MaskKey(key string) string {
	if key == "" {
		return "NOT SET"
	}
	if len(key) <= 8 {
		return key + "..."
	}
	return key[:8] + "..."
}
