package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5/middleware"

	"salespulse/internal/config"
)

// std is the process logger installed by InitializeLogger. mu guards file.
var std struct {
	once   sync.Once
	logger *slog.Logger

	mu   sync.Mutex
	file *os.File
}

type contextKey string

// TraceIDContextKey holds the trace ID WithTraceID stores
const TraceIDContextKey contextKey = "trace_id"

// InitializeLogger builds the process logger from cfg and makes it the slog
// default. Only the first call has any effect; later calls return the same
// logger.
func InitializeLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	var err error
	std.once.Do(func() {
		var w io.Writer
		if w, err = logWriter(cfg); err != nil {
			return
		}
		std.logger = NewLogger(w, cfg.Level)
		slog.SetDefault(std.logger)
	})
	return std.logger, err
}

// GetLogger falls back to slog.Default until InitializeLogger has run
func GetLogger() *slog.Logger {
	if std.logger == nil {
		return slog.Default()
	}
	return std.logger
}

// logWriter picks stdout, the log file or both. "console" and unknown
// modes mean stdout.
func logWriter(cfg config.LoggingConfig) (io.Writer, error) {
	mode := strings.ToLower(cfg.Output)
	if mode != "file" && mode != "both" {
		return os.Stdout, nil
	}

	f, err := openLogFile(cfg.FilePath)
	if err != nil {
		return nil, err
	}
	std.mu.Lock()
	std.file = f
	std.mu.Unlock()

	if mode == "file" {
		return f, nil
	}
	return io.MultiWriter(os.Stdout, f), nil
}

// NewLogger returns a JSON logger on output that stamps records with the
// trace ID of their context. The process logger is left alone, so tests and
// the CLI can log to their own writers.
func NewLogger(output io.Writer, level string) *slog.Logger {
	return slog.New(traceHandler{slog.NewJSONHandler(output, &slog.HandlerOptions{
		AddSource: true,
		Level:     parseLogLevel(level),
	})})
}

type traceHandler struct {
	slog.Handler
}

func (h traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := GetTraceID(ctx); id != "" {
		r.AddAttrs(slog.String("trace_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return traceHandler{h.Handler.WithAttrs(attrs)}
}

func (h traceHandler) WithGroup(name string) slog.Handler {
	return traceHandler{h.Handler.WithGroup(name)}
}

// parseLogLevel reads the names slog understands plus "warning". Anything
// else logs at info.
func parseLogLevel(level string) slog.Level {
	if strings.EqualFold(level, "warning") {
		return slog.LevelWarn
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// WithTraceID attaches traceID to ctx
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDContextKey, traceID)
}

// GetTraceID prefers an ID set with WithTraceID and otherwise returns chi's
// request ID, which is empty outside a request.
func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, _ := ctx.Value(TraceIDContextKey).(string); id != "" {
		return id
	}
	return middleware.GetReqID(ctx)
}

// CloseLogFile closes the file opened for "file" or "both" output, if any
func CloseLogFile() error {
	std.mu.Lock()
	defer std.mu.Unlock()

	if std.file == nil {
		return nil
	}
	err := std.file.Close()
	std.file = nil
	return err
}

// ResetLoggerForTesting lets a test call InitializeLogger again
func ResetLoggerForTesting() {
	_ = CloseLogFile()
	std.logger = nil
	std.once = sync.Once{}
}

// openLogFile appends to path, creating it and its directory if needed
func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory for %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return f, nil
}
