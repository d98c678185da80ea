// Package logging provides categorized structured logging for praxis.
// Every subsystem logs under its own category so a single run can be
// filtered down to one concern. Backed by zap; output goes to stderr
// and, when configured, to a JSON log file.
package logging

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category identifies the subsystem a log line belongs to.
type Category string

const (
	CategoryBoot       Category = "boot"
	CategoryConfig     Category = "config"
	CategoryLLM        Category = "llm"
	CategoryEmbedding  Category = "embedding"
	CategoryStore      Category = "store"
	CategoryMemory     Category = "memory"
	CategoryRAG        Category = "rag"
	CategoryTools      Category = "tools"
	CategoryAgent      Category = "agent"
	CategoryGraph      Category = "graph"
	CategoryModeration Category = "moderation"
	CategoryCrew       Category = "crew"
	CategoryMCP        Category = "mcp"
	CategoryServer     Category = "server"
)

// Options controls logger construction.
type Options struct {
	Level   string // debug, info, warn, error
	File    string // optional JSON log file path
	Console bool   // also log to stderr (default true via DefaultOptions)
}

// DefaultOptions returns the defaults used when no config is loaded yet.
func DefaultOptions() Options {
	return Options{Level: "info", Console: true}
}

var (
	mu      sync.RWMutex
	root    *zap.Logger
	sugared = make(map[Category]*zap.SugaredLogger)
)

// Initialize builds the process-wide logger. Safe to call more than once;
// later calls replace the previous logger.
func Initialize(opts Options) error {
	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	var cores []zapcore.Core
	if opts.Console {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.Lock(os.Stderr),
			level,
		))
	}
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.Lock(f),
			level,
		))
	}
	if len(cores) == 0 {
		cores = append(cores, zapcore.NewNopCore())
	}

	mu.Lock()
	defer mu.Unlock()
	root = zap.New(zapcore.NewTee(cores...))
	sugared = make(map[Category]*zap.SugaredLogger)
	return nil
}

// Get returns the logger for a category. Initializes a no-op-backed default
// logger when Initialize was never called, so library use never panics.
func Get(cat Category) *zap.SugaredLogger {
	mu.RLock()
	if s, ok := sugared[cat]; ok {
		mu.RUnlock()
		return s
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if root == nil {
		root = zap.NewNop()
	}
	if s, ok := sugared[cat]; ok {
		return s
	}
	s := root.With(zap.String("cat", string(cat))).Sugar()
	sugared[cat] = s
	return s
}

// Sync flushes buffered log entries. Called before process exit.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if root != nil {
		_ = root.Sync()
	}
}
