// Package logger provides centralized logging for the chunking service.
package logger

import (
	"fmt"
	"log/slog"
	"os"
)

// instance holds the global logger; access goes through Get.
var instance *slog.Logger

// InitError represents logger initialization errors.
type InitError struct {
	Op  string // the operation that failed
	Err error  // the underlying error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("logger: %s failed: %v", e.Op, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// Init initializes the global logger with a production-style JSON handler.
func Init() error {
	return InitWithConfig(slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
}

// InitWithConfig initializes the logger with custom slog handler options.
func InitWithConfig(opts slog.HandlerOptions) error {
	instance = slog.New(slog.NewJSONHandler(os.Stdout, &opts))
	return nil
}

// Get returns the global logger, creating a default one if Init was never
// called.
func Get() *slog.Logger {
	if instance == nil {
		_ = Init()
	}
	return instance
}

// Sync flushes buffered entries when the handler supports it. Safe to call
// multiple times.
func Sync() error {
	if instance == nil {
		return nil
	}
	if s, ok := instance.Handler().(interface{ Sync() error }); ok {
		return s.Sync()
	}
	if c, ok := instance.Handler().(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
