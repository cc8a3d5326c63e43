// Package logging holds the process-wide structured logger.
//
// Call Init once at startup; packages obtain the logger through GetLogger or
// one of the With helpers. Before Init, GetLogger lazily installs a text
// logger on stderr at INFO level.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	logger   *slog.Logger
	loggerMu sync.RWMutex
	logFile  *os.File
)

// Config holds logger configuration.
type Config struct {
	// Level is one of debug, info, warn and error. Unknown values mean info.
	Level string
	// OutputPath is a log file path. Empty means Output.
	OutputPath string
	// Output is used when OutputPath is empty. Nil means stderr.
	Output io.Writer
	// Format is "json" or "text".
	Format string
}

// Init replaces the global logger. A file opened by a previous Init is closed.
func Init(cfg Config) error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	w := cfg.Output
	if w == nil {
		w = os.Stderr
	}

	var file *os.File
	if cfg.OutputPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.OutputPath), 0o750); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		file = f
		w = f
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = file
	logger = slog.New(handler)
	return nil
}

// Discard installs a logger that drops every record. The TUI uses it when no
// log file is configured so that records do not corrupt the screen.
func Discard() {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Close closes the log file, if any, and resets the logger.
func Close() error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	var err error
	if logFile != nil {
		err = logFile.Close()
		logFile = nil
	}
	logger = nil
	return err
}

// GetLogger returns the current logger.
func GetLogger() *slog.Logger {
	loggerMu.RLock()
	l := logger
	loggerMu.RUnlock()
	if l != nil {
		return l
	}

	loggerMu.Lock()
	defer loggerMu.Unlock()
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return logger
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(level string) slog.Level {
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

// WithStatement returns a logger carrying the statement id and kind.
func WithStatement(id, kind string) *slog.Logger {
	return GetLogger().With("stmt_id", id, "kind", kind)
}

// WithComponent returns a logger carrying a component name.
func WithComponent(component string) *slog.Logger {
	return GetLogger().With("component", component)
}
