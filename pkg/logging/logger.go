package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// LogLevel represents different logging levels
type LogLevel int

const (
	LevelTrace LogLevel = iota - 1
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// LogConfig holds logging configuration
type LogConfig struct {
	Level       LogLevel `json:"level"`
	Format      string   `json:"format"`       // "json" or "text"
	Output      string   `json:"output"`       // "stdout", "stderr", or file path
	FilePath    string   `json:"file_path"`    // Log file path when Output is "file"
	EnableAsync bool     `json:"enable_async"` // Enable async logging
}

// Logger provides structured logging with context support
type Logger struct {
	config  LogConfig
	slogger *slog.Logger
	file    *os.File
	asyncCh chan LogEntry
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	once    sync.Once
}

// LogEntry represents a structured log entry
type LogEntry struct {
	Timestamp time.Time
	Level     LogLevel
	Message   string
	Component string
	RequestID string
	UserID    string
	Error     string
	Caller    string
	Fields    map[string]interface{}
}

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	userIDKey    ctxKey = "user_id"
)

// ContextWithRequestID attaches a request id picked up by ContextLogger.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// ContextWithUserID attaches the caller id picked up by ContextLogger.
func ContextWithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// DefaultLogConfig returns sensible default logging configuration
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:       LevelInfo,
		Format:      "json",
		Output:      "stdout",
		EnableAsync: true,
	}
}

// NewLogger creates a new structured logger writing to the configured output.
func NewLogger(config LogConfig) (*Logger, error) {
	var (
		writer io.Writer
		file   *os.File
	)
	switch config.Output {
	case "", "stdout":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		path := config.FilePath
		if path == "" {
			path = config.Output
		}
		f, err := openLogFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to setup file logging: %w", err)
		}
		writer, file = f, f
	}
	l := NewWithWriter(writer, config)
	l.file = file
	return l, nil
}

// NewWithWriter builds a logger on an arbitrary writer. Tests use it with a
// bytes.Buffer and EnableAsync=false to assert on emitted lines.
func NewWithWriter(w io.Writer, config LogConfig) *Logger {
	ctx, cancel := context.WithCancel(context.Background())
	opts := &slog.HandlerOptions{Level: slog.Level(config.Level * 4)}

	var handler slog.Handler
	if config.Format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	l := &Logger{
		config:  config,
		slogger: slog.New(handler),
		ctx:     ctx,
		cancel:  cancel,
	}
	if config.EnableAsync {
		l.asyncCh = make(chan LogEntry, 1000)
		l.wg.Add(1)
		go l.asyncWorker()
	}
	return l
}

// Nop returns a synchronous logger that discards everything.
func Nop() *Logger {
	return NewWithWriter(io.Discard, LogConfig{Level: LevelFatal + 1})
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// asyncWorker processes log entries asynchronously
func (l *Logger) asyncWorker() {
	defer l.wg.Done()

	for {
		select {
		case entry := <-l.asyncCh:
			l.writeEntry(entry)
		case <-l.ctx.Done():
			// Drain remaining entries
			for {
				select {
				case entry := <-l.asyncCh:
					l.writeEntry(entry)
				default:
					return
				}
			}
		}
	}
}

// writeEntry writes a log entry to the output
func (l *Logger) writeEntry(entry LogEntry) {
	attrs := make([]slog.Attr, 0, 6+len(entry.Fields))
	if entry.Component != "" {
		attrs = append(attrs, slog.String("component", entry.Component))
	}
	if entry.RequestID != "" {
		attrs = append(attrs, slog.String("request_id", entry.RequestID))
	}
	if entry.UserID != "" {
		attrs = append(attrs, slog.String("user_id", entry.UserID))
	}
	if entry.Error != "" {
		attrs = append(attrs, slog.String("error", entry.Error))
	}
	if entry.Caller != "" {
		attrs = append(attrs, slog.String("caller", entry.Caller))
	}
	for key, value := range entry.Fields {
		attrs = append(attrs, slog.Any(key, value))
	}

	l.slogger.LogAttrs(context.Background(), slogLevel(entry.Level), entry.Message, attrs...)
}

// Close gracefully shuts down the logger
func (l *Logger) Close() error {
	var err error
	l.once.Do(func() {
		l.cancel()
		if l.config.EnableAsync {
			l.wg.Wait()
		}
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}

// WithContext returns a logger with context information
func (l *Logger) WithContext(ctx context.Context) *ContextLogger {
	return &ContextLogger{logger: l, ctx: ctx}
}

// WithComponent returns a logger with component information
func (l *Logger) WithComponent(component string) *ComponentLogger {
	return &ComponentLogger{logger: l, component: component}
}

// ContextLogger provides context-aware logging
type ContextLogger struct {
	logger *Logger
	ctx    context.Context
}

// ComponentLogger provides component-specific logging
type ComponentLogger struct {
	logger    *Logger
	component string
}

func (l *Logger) Debug(msg string, fields ...Field) {
	l.log(context.Background(), LevelDebug, "", msg, nil, fields)
}

func (l *Logger) Info(msg string, fields ...Field) {
	l.log(context.Background(), LevelInfo, "", msg, nil, fields)
}

func (l *Logger) Warn(msg string, fields ...Field) {
	l.log(context.Background(), LevelWarn, "", msg, nil, fields)
}

func (l *Logger) Error(msg string, err error, fields ...Field) {
	l.log(context.Background(), LevelError, "", msg, err, fields)
}

// Fatal logs at fatal level and exits
func (l *Logger) Fatal(msg string, err error, fields ...Field) {
	l.log(context.Background(), LevelFatal, "", msg, err, fields)
	_ = l.Close()
	os.Exit(1)
}

func (cl *ComponentLogger) Debug(msg string, fields ...Field) {
	cl.logger.log(context.Background(), LevelDebug, cl.component, msg, nil, fields)
}

func (cl *ComponentLogger) Info(msg string, fields ...Field) {
	cl.logger.log(context.Background(), LevelInfo, cl.component, msg, nil, fields)
}

func (cl *ComponentLogger) Warn(msg string, fields ...Field) {
	cl.logger.log(context.Background(), LevelWarn, cl.component, msg, nil, fields)
}

func (cl *ComponentLogger) Error(msg string, err error, fields ...Field) {
	cl.logger.log(context.Background(), LevelError, cl.component, msg, err, fields)
}

// WithContext keeps the component and adds request-scoped values.
func (cl *ComponentLogger) WithContext(ctx context.Context) *ContextLogger {
	return &ContextLogger{logger: cl.logger, ctx: withComponent(ctx, cl.component)}
}

func (cl *ContextLogger) Debug(msg string, fields ...Field) {
	cl.logger.log(cl.ctx, LevelDebug, "", msg, nil, fields)
}

func (cl *ContextLogger) Info(msg string, fields ...Field) {
	cl.logger.log(cl.ctx, LevelInfo, "", msg, nil, fields)
}

func (cl *ContextLogger) Warn(msg string, fields ...Field) {
	cl.logger.log(cl.ctx, LevelWarn, "", msg, nil, fields)
}

func (cl *ContextLogger) Error(msg string, err error, fields ...Field) {
	cl.logger.log(cl.ctx, LevelError, "", msg, err, fields)
}

const componentKey ctxKey = "component"

func withComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

func (l *Logger) log(ctx context.Context, level LogLevel, component, msg string, err error, fields []Field) {
	if level < l.config.Level {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   msg,
		Component: component,
		Fields:    make(map[string]interface{}, len(fields)),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	if entry.Component == "" {
		entry.Component, _ = ctx.Value(componentKey).(string)
	}
	entry.RequestID, _ = ctx.Value(requestIDKey).(string)
	entry.UserID, _ = ctx.Value(userIDKey).(string)

	if level >= LevelWarn {
		if _, file, line, ok := runtime.Caller(2); ok {
			entry.Caller = fmt.Sprintf("%s:%d", filepath.Base(file), line)
		}
	}

	for _, field := range fields {
		field.AddTo(entry.Fields)
	}

	if l.config.EnableAsync {
		select {
		case l.asyncCh <- entry:
		default:
			// Async buffer full, log synchronously
			l.writeEntry(entry)
		}
		return
	}
	l.writeEntry(entry)
}

// Field represents a structured log field
type Field struct {
	Key   string
	Value interface{}
}

// AddTo adds the field to the provided map
func (f Field) AddTo(m map[string]interface{}) {
	m[f.Key] = f.Value
}

func String(key, value string) Field              { return Field{Key: key, Value: value} }
func Int(key string, value int) Field             { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field         { return Field{Key: key, Value: value} }
func Int64s(key string, value []int64) Field      { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field           { return Field{Key: key, Value: value} }
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}
func Any(key string, value interface{}) Field { return Field{Key: key, Value: value} }

// ParseLevel maps LOG_LEVEL values onto LogLevel. Unknown values fall back to info.
func ParseLevel(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return LevelTrace
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	default:
		return LevelInfo
	}
}

// slogLevel maps our levels onto slog's spacing of 4.
func slogLevel(level LogLevel) slog.Level {
	return slog.Level(level * 4)
}
