// Package logging provides config-driven categorized file-based logging for
// holograph. Logs are written to .holo/logs/ with separate files per
// category. Logging is controlled by debug_mode in the engine config - when
// false, no logs are written.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Category represents a log category/system.
type Category string

const (
	CategoryBoot        Category = "boot"        // Startup and session bootstrap
	CategoryHDC         Category = "hdc"         // Vector algebra operations
	CategoryKB          Category = "kb"          // Fact store, indexes, bundle cache
	CategoryQuery       Category = "query"       // Query pipeline: classify, generate, combine
	CategorySymbolic    Category = "symbolic"    // Proof engine delegation
	CategoryStore       Category = "store"       // SQLite persistence
	CategoryConformance Category = "conformance" // Strategy admission checks
)

// Logger wraps a standard logger with category and file output.
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex
	logsDir   string

	configMu   sync.RWMutex
	debugMode  bool
	categories map[string]bool
	logLevel   int
)

// Log levels.
const (
	LevelDebug = 0
	LevelInfo  = 1
	LevelWarn  = 2
	LevelError = 3
)

// Initialize sets up the logging directory. Should be called once at startup
// with the workspace path and the logging section of the engine config.
func Initialize(workspace string, debug bool, level string, enabled map[string]bool) error {
	configMu.Lock()
	debugMode = debug
	categories = enabled
	switch level {
	case "debug":
		logLevel = LevelDebug
	case "warn", "warning":
		logLevel = LevelWarn
	case "error":
		logLevel = LevelError
	default:
		logLevel = LevelInfo
	}
	configMu.Unlock()

	if !debug {
		return nil // Silent no-op in production mode
	}
	if workspace == "" {
		return fmt.Errorf("workspace path required")
	}

	logsDir = filepath.Join(workspace, ".holo", "logs")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	boot := Get(CategoryBoot)
	boot.Info("=== holograph logging initialized ===")
	boot.Info("Logs directory: %s", logsDir)
	boot.Info("Log level: %s", level)
	return nil
}

// IsDebugMode returns whether debug logging is enabled.
func IsDebugMode() bool {
	configMu.RLock()
	defer configMu.RUnlock()
	return debugMode
}

// IsCategoryEnabled returns whether a specific category is enabled.
func IsCategoryEnabled(category Category) bool {
	configMu.RLock()
	defer configMu.RUnlock()
	if !debugMode {
		return false
	}
	if categories == nil {
		return true
	}
	enabled, exists := categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if debug mode or the category is disabled.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) || logsDir == "" {
		return &Logger{category: category}
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	path := filepath.Join(logsDir, string(category)+".log")
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &Logger{category: category}
	}
	l := &Logger{
		category: category,
		logger:   log.New(file, "", log.LstdFlags|log.Lmicroseconds),
		file:     file,
	}
	loggers[category] = l
	return l
}

// Close flushes and closes all open log files.
func Close() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	for cat, l := range loggers {
		if l.file != nil {
			l.file.Close()
		}
		delete(loggers, cat)
	}
}

func (l *Logger) write(level int, prefix, format string, args ...any) {
	if l.logger == nil {
		return
	}
	configMu.RLock()
	min := logLevel
	configMu.RUnlock()
	if level < min {
		return
	}
	l.logger.Printf(prefix+format, args...)
}

func (l *Logger) Debug(format string, args ...any) { l.write(LevelDebug, "[DEBUG] ", format, args...) }
func (l *Logger) Info(format string, args ...any)  { l.write(LevelInfo, "[INFO] ", format, args...) }
func (l *Logger) Warn(format string, args ...any)  { l.write(LevelWarn, "[WARN] ", format, args...) }
func (l *Logger) Error(format string, args ...any) { l.write(LevelError, "[ERROR] ", format, args...) }

// =============================================================================
// CONVENIENCE HELPERS
// =============================================================================

// HDC logs to the vector-algebra category.
func HDC(format string, args ...any) { Get(CategoryHDC).Info(format, args...) }

// KB logs to the fact-store category.
func KB(format string, args ...any) { Get(CategoryKB).Info(format, args...) }

// Query logs to the query-pipeline category.
func Query(format string, args ...any) { Get(CategoryQuery).Info(format, args...) }

// QueryDebug logs pipeline detail (per-hole candidates, combination counts).
func QueryDebug(format string, args ...any) { Get(CategoryQuery).Debug(format, args...) }

// Symbolic logs to the proof-engine category.
func Symbolic(format string, args ...any) { Get(CategorySymbolic).Info(format, args...) }

// Store logs to the persistence category.
func Store(format string, args ...any) { Get(CategoryStore).Info(format, args...) }

// StoreDebug logs persistence detail.
func StoreDebug(format string, args ...any) { Get(CategoryStore).Debug(format, args...) }

// Timer measures the duration of an operation for performance logging.
type Timer struct {
	category Category
	name     string
	start    time.Time
}

// StartTimer begins timing an operation.
func StartTimer(category Category, name string) *Timer {
	return &Timer{category: category, name: name, start: time.Now()}
}

// Stop logs the elapsed time at debug level.
func (t *Timer) Stop() {
	Get(t.category).Debug("%s took %v", t.name, time.Since(t.start))
}
