// Package logging provides config-driven categorized file logging for agni.
// The terminal belongs to the console renderer, so logs only ever go to a
// rotated file. Logging is controlled by logging.debug_mode; when it is off
// every logger is a no-op.
package logging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"agni/internal/config"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot   Category = "boot"   // Startup, config resolution
	CategoryChat   Category = "chat"   // Composer submits and replies
	CategoryUpload Category = "upload" // Document selection and ingestion
	CategoryAPI    Category = "api"    // Outbound HTTP to the RAG backend
	CategoryUI     Category = "ui"     // Rendering fallbacks, key routing
	CategoryConfig Category = "config" // Config load and validation
)

var (
	mu      sync.RWMutex
	root    = zap.NewNop()
	enabled bool
	rotator *lumberjack.Logger
)

// Initialize sets up file logging from cfg. verbose forces debug mode at debug level.
// Calling it again replaces the previous logger.
func Initialize(cfg config.LoggingConfig, verbose bool) error {
	mu.Lock()
	defer mu.Unlock()

	closeLocked()

	if !cfg.DebugMode && !verbose {
		root = zap.NewNop()
		enabled = false
		return nil
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	if cfg.File == "" {
		return fmt.Errorf("logging enabled but no log file configured")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	rotator = &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		Compress:   true,
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(rotator),
		level,
	)
	root = zap.New(core, zap.AddCaller())
	enabled = true

	root.Named(string(CategoryBoot)).Info("logging initialized",
		zap.String("file", cfg.File),
		zap.Stringer("level", level),
	)
	return nil
}

// SetLogger installs l as the root logger. Intended for tests and embedding.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	closeLocked()
	if l == nil {
		l = zap.NewNop()
	}
	root = l
	enabled = true
}

// IsDebugMode returns whether file logging is active.
func IsDebugMode() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// Get returns the logger for a category.
func Get(category Category) *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root.Named(string(category))
}

// ToContext attaches a category logger with extra fields to ctx.
func ToContext(ctx context.Context, category Category, fields ...zap.Field) context.Context {
	return ctxzap.ToContext(ctx, Get(category).With(fields...))
}

// FromContext returns the logger carried by ctx, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	return ctxzap.Extract(ctx)
}

// Sync flushes buffered entries.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = root.Sync()
}

// CloseAll flushes and closes the log file and reverts to a no-op logger.
func CloseAll() {
	mu.Lock()
	defer mu.Unlock()
	closeLocked()
	root = zap.NewNop()
	enabled = false
}

func closeLocked() {
	_ = root.Sync()
	if rotator != nil {
		_ = rotator.Close()
		rotator = nil
	}
}

// Boot logs a boot-category info line.
func Boot(msg string, fields ...zap.Field) {
	Get(CategoryBoot).Info(msg, fields...)
}

// Chat logs a chat-category debug line.
func Chat(msg string, fields ...zap.Field) {
	Get(CategoryChat).Debug(msg, fields...)
}

// Upload logs an upload-category debug line.
func Upload(msg string, fields ...zap.Field) {
	Get(CategoryUpload).Debug(msg, fields...)
}
