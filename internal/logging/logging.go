// Package logging provides structured logging for rdbms.
//
// This package wraps Go's log/slog package to provide consistent,
// structured logging across the engine, parser, and CLI.
//
// Usage:
//
//	import "github.com/IanDublew/rdbms/internal/logging"
//
//	// Initialize once at startup
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stderr",
//	})
//
//	// Get a logger for a component
//	log := logging.GetLogger("engine")
//
//	// Tag every line for one transaction with its correlation ID
//	txLog := log.WithTxn(txnID)
//	txLog.LogOperation(logging.OpInsert, "table", "users", "rid", rid)
//	txLog.LogError(logging.OpCommit, err)
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Config holds logging configuration
type Config struct {
	// Level is the minimum log level: debug, info, warn, error
	Level string
	// Format is the output format: console, json
	Format string
	// Output is the output destination: stderr, stdout, or a file path
	Output string
}

var (
	defaultLogger *slog.Logger
	loggerMu      sync.RWMutex
	initialized   bool
	// levelVar is shared by every handler, so Init's level also reaches
	// loggers obtained from GetLogger before Init ran.
	levelVar = new(slog.LevelVar)
)

func init() {
	// Initialize with default console logger
	defaultLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: levelVar,
	}))
}

// Init initializes the global logger with the given configuration.
// This should be called once at application startup.
func Init(cfg Config) {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	var output io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stdout":
		output = os.Stdout
	case "", "stderr":
		output = os.Stderr
	default:
		// Try to open as file, fall back to stderr
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			output = os.Stderr
		} else {
			output = f
		}
	}

	level := parseLevel(cfg.Level)
	levelVar.Set(level)
	opts := &slog.HandlerOptions{
		Level: levelVar,
		// Add source location for debug level
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	defaultLogger = slog.New(handler)
	initialized = true
}

// parseLevel converts a string level to slog.Level
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetLogger returns a logger for the specified component.
// The component name is added as an attribute to all log entries.
func GetLogger(component string) *Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return &Logger{
		slog:      defaultLogger.With("component", component),
		component: component,
	}
}

// Logger wraps slog.Logger with convenience methods
type Logger struct {
	slog      *slog.Logger
	component string
	txnID     string
}

// With returns a new Logger with the given attributes added
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slog:      l.slog.With(args...),
		component: l.component,
		txnID:     l.txnID,
	}
}

// WithTxn returns a derived Logger that tags every subsequent line with
// txnID, the Transaction Manager's per-BEGIN correlation ID
// (internal/engine/txn.go assigns one with uuid.New().String() on every
// BEGIN so a session's mutating operations and its eventual COMMIT or
// ROLLBACK can be traced through the log as one unit).
func (l *Logger) WithTxn(txnID string) *Logger {
	return &Logger{
		slog:      l.slog.With("txn_id", txnID),
		component: l.component,
		txnID:     txnID,
	}
}

// TxnID returns the correlation ID this Logger was derived with via
// WithTxn, or "" if none.
func (l *Logger) TxnID() string { return l.txnID }

// Debug logs at debug level
func (l *Logger) Debug(msg string, args ...any) {
	l.slog.Debug(msg, args...)
}

// Info logs at info level
func (l *Logger) Info(msg string, args ...any) {
	l.slog.Info(msg, args...)
}

// Warn logs at warn level
func (l *Logger) Warn(msg string, args ...any) {
	l.slog.Warn(msg, args...)
}

// Error logs at error level
func (l *Logger) Error(msg string, args ...any) {
	l.slog.Error(msg, args...)
}

// Operation names one of the engine's dispatchable statement kinds, used
// to tag structured log lines emitted around mutating and
// transaction-control calls.
type Operation string

const (
	OpCreateTable Operation = "CREATE_TABLE"
	OpCreateIndex Operation = "CREATE_INDEX"
	OpDropTable   Operation = "DROP_TABLE"
	OpInsert      Operation = "INSERT"
	OpSelect      Operation = "SELECT"
	OpUpdate      Operation = "UPDATE"
	OpDelete      Operation = "DELETE"
	OpBegin       Operation = "BEGIN"
	OpCommit      Operation = "COMMIT"
	OpRollback    Operation = "ROLLBACK"
	// OpExecScript tags the CLI's batch driver, outside the grammar
	// proper but still a named dispatch unit worth correlating.
	OpExecScript Operation = "EXEC_SCRIPT"
)

// LogError logs a failed operation with context.
func (l *Logger) LogError(op Operation, err error, args ...any) {
	allArgs := append([]any{"operation", string(op), "error", err.Error()}, args...)
	l.slog.Error("operation_failed", allArgs...)
}

// LogOperation logs a successful dispatch of one of the engine's
// statement kinds.
func (l *Logger) LogOperation(op Operation, args ...any) {
	allArgs := append([]any{"operation", string(op)}, args...)
	l.slog.Info("operation_success", allArgs...)
}

// Convenience functions for package-level logging

// Debug logs at debug level using the default logger
func Debug(msg string, args ...any) {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	defaultLogger.Debug(msg, args...)
}

// Info logs at info level using the default logger
func Info(msg string, args ...any) {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	defaultLogger.Info(msg, args...)
}

// Warn logs at warn level using the default logger
func Warn(msg string, args ...any) {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	defaultLogger.Warn(msg, args...)
}

// Error logs at error level using the default logger
func Error(msg string, args ...any) {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	defaultLogger.Error(msg, args...)
}
