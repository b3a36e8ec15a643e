// Package logging provides config-driven categorized logging for closedcat.
// Every pipeline stage logs through its own category so a run can be traced
// from loading to reporting. Output goes to stderr and, optionally, to a log file.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/pipeline stage
type Category string

const (
	CategoryBoot      Category = "boot"      // CLI startup, config
	CategoryLoader    Category = "loader"    // Reading delimited files
	CategoryClassify  Category = "classify"  // Tag classification, identifier splitting
	CategoryAggregate Category = "aggregate" // Counters and cross tabulations
	CategoryStats     Category = "stats"     // Significance tests
	CategorySweep     Category = "sweep"     // Usage threshold sweep
	CategoryReport    Category = "report"    // Markdown/CSV/Parquet output
	CategoryStore     Category = "store"     // Run ledger
)

// Options mirrors config.LoggingConfig so this package stays import-free.
type Options struct {
	Level      string          // debug, info, warn, error
	Format     string          // json, console
	File       string          // optional log file, appended
	Categories map[string]bool // per-category toggles; missing = enabled
}

// Logger is a category-scoped printf-style logger.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	root       *zap.Logger
	loggers    = make(map[Category]*Logger)
	loggersMu  sync.RWMutex
	categories map[string]bool
	configMu   sync.RWMutex
	logFile    *os.File
)

// Initialize builds the root zap logger. Calling it again replaces the
// previous configuration and drops cached category loggers.
func Initialize(opts Options) error {
	level, err := zapcore.ParseLevel(defaultString(opts.Level, "info"))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(opts.Format) {
	case "json":
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	case "", "console", "text":
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout(time.TimeOnly)
		encoder = zapcore.NewConsoleEncoder(encCfg)
	default:
		return fmt.Errorf("invalid log format %q (valid: json, console)", opts.Format)
	}

	cores := []zapcore.Core{zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level)}

	var file *os.File
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		file, err = os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		fileEncoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(file), level))
	}

	CloseAll()

	configMu.Lock()
	root = zap.New(zapcore.NewTee(cores...))
	categories = opts.Categories
	logFile = file
	configMu.Unlock()

	Get(CategoryBoot).Debug("logging initialized: level=%s format=%s file=%q", level, defaultString(opts.Format, "console"), opts.File)
	return nil
}

// UseLogger installs an existing zap logger as the root (tests, embedding).
func UseLogger(l *zap.Logger) {
	CloseAll()
	configMu.Lock()
	root = l
	categories = nil
	configMu.Unlock()
}

// Root returns the root zap logger, a no-op logger before Initialize.
func Root() *zap.Logger {
	configMu.RLock()
	defer configMu.RUnlock()
	if root == nil {
		return zap.NewNop()
	}
	return root
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	configMu.RLock()
	defer configMu.RUnlock()

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
// Disabled categories get a no-op logger.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) {
		return &Logger{category: category, sugar: zap.NewNop().Sugar()}
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

	l := &Logger{
		category: category,
		sugar:    Root().Named(string(category)).Sugar(),
	}
	loggers[category] = l
	return l
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// With returns a logger carrying structured key-value context.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{category: l.category, sugar: l.sugar.With(keysAndValues...)}
}

// CloseAll flushes the root logger, closes the log file and drops cached loggers.
func CloseAll() {
	loggersMu.Lock()
	loggers = make(map[Category]*Logger)
	loggersMu.Unlock()

	configMu.Lock()
	defer configMu.Unlock()
	if root != nil {
		_ = root.Sync()
	}
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// =============================================================================
// CONVENIENCE FUNCTIONS - Quick logging without getting a logger first
// =============================================================================

// Boot logs to the boot category
func Boot(format string, args ...interface{}) {
	Get(CategoryBoot).Info(format, args...)
}

// Loader logs to the loader category
func Loader(format string, args ...interface{}) {
	Get(CategoryLoader).Info(format, args...)
}

// LoaderDebug logs debug to the loader category
func LoaderDebug(format string, args ...interface{}) {
	Get(CategoryLoader).Debug(format, args...)
}

// ClassifyDebug logs debug to the classify category
func ClassifyDebug(format string, args ...interface{}) {
	Get(CategoryClassify).Debug(format, args...)
}

// AggregateDebug logs debug to the aggregate category
func AggregateDebug(format string, args ...interface{}) {
	Get(CategoryAggregate).Debug(format, args...)
}

// Stats logs to the stats category
func Stats(format string, args ...interface{}) {
	Get(CategoryStats).Info(format, args...)
}

// StatsWarn logs warning to the stats category
func StatsWarn(format string, args ...interface{}) {
	Get(CategoryStats).Warn(format, args...)
}

// Sweep logs to the sweep category
func Sweep(format string, args ...interface{}) {
	Get(CategorySweep).Info(format, args...)
}

// SweepWarn logs warning to the sweep category
func SweepWarn(format string, args ...interface{}) {
	Get(CategorySweep).Warn(format, args...)
}

// Report logs to the report category
func Report(format string, args ...interface{}) {
	Get(CategoryReport).Info(format, args...)
}

// ReportDebug logs debug to the report category
func ReportDebug(format string, args ...interface{}) {
	Get(CategoryReport).Debug(format, args...)
}

// Store logs to the store category
func Store(format string, args ...interface{}) {
	Get(CategoryStore).Info(format, args...)
}

// StoreDebug logs debug to the store category
func StoreDebug(format string, args ...interface{}) {
	Get(CategoryStore).Debug(format, args...)
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

// Stop ends the timer and logs the duration at debug level
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithInfo ends the timer and logs at info level
func (t *Timer) StopWithInfo() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Info("%s completed in %v", t.op, elapsed)
	return elapsed
}
