// Package logging provides config-driven categorized file-based logging for strfind.
// Logs are written to the configured directory with one dated file per category.
// Logging is controlled by logging.debug_mode - when false, no logs are written.
package logging

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"stringfinder/internal/config"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot    Category = "boot"    // Startup, config resolution
	CategoryExtract Category = "extract" // Extraction passes
	CategoryOutput  Category = "output"  // Output sinks
	CategoryStore   Category = "store"   // Run history database
	CategoryWatch   Category = "watch"   // File watching
)

// StructuredLogEntry is one JSON log line.
type StructuredLogEntry struct {
	Timestamp int64                  `json:"ts"`  // Unix milliseconds
	Category  string                 `json:"cat"` // Log category
	Level     string                 `json:"lvl"` // debug/info/warn/error
	Message   string                 `json:"msg"`
	RequestID string                 `json:"req,omitempty"` // Run correlation ID
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Logger wraps a standard logger with category and file output
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex
	logsDir   string
	cfg       config.LoggingConfig
	cfgMu     sync.RWMutex
	logLevel  int // 0=debug, 1=info, 2=warn, 3=error
)

// Log levels
const (
	LevelDebug = 0
	LevelInfo  = 1
	LevelWarn  = 2
	LevelError = 3
)

// Initialize applies the logging config. Should be called once at startup.
// With debug mode off it is a no-op and every logger discards its output.
func Initialize(lc config.LoggingConfig) error {
	CloseAll()

	cfgMu.Lock()
	cfg = lc
	logLevel = parseLevel(lc.Level)
	cfgMu.Unlock()

	dir := ""
	if lc.DebugMode {
		if lc.Dir == "" {
			return fmt.Errorf("logging dir required in debug mode")
		}
		if err := os.MkdirAll(lc.Dir, 0755); err != nil {
			return fmt.Errorf("failed to create logs directory: %w", err)
		}
		dir = lc.Dir
	}
	cfgMu.Lock()
	logsDir = dir
	cfgMu.Unlock()
	if dir == "" {
		return nil
	}

	boot := Get(CategoryBoot)
	boot.Info("=== strfind logging initialized ===")
	boot.Info("Logs directory: %s", dir)
	boot.Info("Log level: %s", lc.Level)
	return nil
}

func parseLevel(level string) int {
	switch level {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	cfgMu.RLock()
	defer cfgMu.RUnlock()
	return cfg.IsCategoryEnabled(string(category))
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if debug mode is disabled or category is disabled.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) {
		return &Logger{category: category}
	}
	cfgMu.RLock()
	dir := logsDir
	cfgMu.RUnlock()
	if dir == "" {
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

	// Double-check after acquiring write lock
	if l, ok := loggers[category]; ok {
		return l
	}

	date := time.Now().Format("2006-01-02")
	logPath := filepath.Join(dir, fmt.Sprintf("%s_%s.log", date, category))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] Warning: could not open log file %s: %v\n", logPath, err)
		return &Logger{category: category}
	}

	l := &Logger{
		category: category,
		file:     file,
		logger:   log.New(file, "", log.Ldate|log.Ltime|log.Lmicroseconds),
	}
	loggers[category] = l
	return l
}

// settings returns the level and format under cfgMu.
func settings() (level int, jsonFmt bool) {
	cfgMu.RLock()
	defer cfgMu.RUnlock()
	return logLevel, cfg.JSONFormat
}

func (l *Logger) write(level string, minLevel int, reqID, msg string, fields map[string]interface{}) {
	if l.logger == nil {
		return
	}
	curLevel, jsonFmt := settings()
	if curLevel > minLevel {
		return
	}
	if jsonFmt {
		entry := StructuredLogEntry{
			Timestamp: time.Now().UnixMilli(),
			Category:  string(l.category),
			Level:     level,
			Message:   msg,
			RequestID: reqID,
			Fields:    fields,
		}
		if data, err := json.Marshal(entry); err == nil {
			l.logger.Printf("%s", data)
			return
		}
	}
	if reqID != "" {
		msg = fmt.Sprintf("[req:%s] %s", reqID, msg)
	}
	if len(fields) > 0 {
		l.logger.Printf("[%s] %s | %v", upper(level), msg, fields)
		return
	}
	l.logger.Printf("[%s] %s", upper(level), msg)
}

func upper(level string) string {
	switch level {
	case "debug":
		return "DEBUG"
	case "info":
		return "INFO"
	case "warn":
		return "WARN"
	default:
		return "ERROR"
	}
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.write("debug", LevelDebug, "", fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.write("info", LevelInfo, "", fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.write("warn", LevelWarn, "", fmt.Sprintf(format, args...), nil)
}

// Error is logged at every level as long as the logger exists.
func (l *Logger) Error(format string, args ...interface{}) {
	l.write("error", LevelError, "", fmt.Sprintf(format, args...), nil)
}

// CloseAll closes every open log file.
func CloseAll() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	for cat, l := range loggers {
		if l.file != nil {
			l.file.Close()
		}
		delete(loggers, cat)
	}
}

func Boot(format string, args ...interface{}) {
	Get(CategoryBoot).Info(format, args...)
}

func Extract(format string, args ...interface{}) {
	Get(CategoryExtract).Info(format, args...)
}

func ExtractDebug(format string, args ...interface{}) {
	Get(CategoryExtract).Debug(format, args...)
}

func Store(format string, args ...interface{}) {
	Get(CategoryStore).Info(format, args...)
}

func StoreDebug(format string, args ...interface{}) {
	Get(CategoryStore).Debug(format, args...)
}

func Watch(format string, args ...interface{}) {
	Get(CategoryWatch).Info(format, args...)
}

func WatchDebug(format string, args ...interface{}) {
	Get(CategoryWatch).Debug(format, args...)
}

func WatchError(format string, args ...interface{}) {
	Get(CategoryWatch).Error(format, args...)
}

// =============================================================================
// REQUEST ID TRACING
// =============================================================================

// RequestLogger tags every line with a run ID.
type RequestLogger struct {
	logger    *Logger
	requestID string
	fields    map[string]interface{}
}

// WithRequestID creates a run-scoped logger
func WithRequestID(category Category, requestID string) *RequestLogger {
	return &RequestLogger{
		logger:    Get(category),
		requestID: requestID,
		fields:    make(map[string]interface{}),
	}
}

// WithField adds a field to the request logger
func (r *RequestLogger) WithField(key string, value interface{}) *RequestLogger {
	r.fields[key] = value
	return r
}

func (r *RequestLogger) Debug(format string, args ...interface{}) {
	r.logger.write("debug", LevelDebug, r.requestID, fmt.Sprintf(format, args...), r.fields)
}

func (r *RequestLogger) Info(format string, args ...interface{}) {
	r.logger.write("info", LevelInfo, r.requestID, fmt.Sprintf(format, args...), r.fields)
}

func (r *RequestLogger) Warn(format string, args ...interface{}) {
	r.logger.write("warn", LevelWarn, r.requestID, fmt.Sprintf(format, args...), r.fields)
}

func (r *RequestLogger) Error(format string, args ...interface{}) {
	r.logger.write("error", LevelError, r.requestID, fmt.Sprintf(format, args...), r.fields)
}

// =============================================================================
// TIMING HELPERS
// =============================================================================

// Timer helps measure operation duration
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{
		category: category,
		op:       operation,
		start:    time.Now(),
	}
}

// Stop ends the timer and logs the duration
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs warning if duration exceeds threshold
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
