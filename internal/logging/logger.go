// Package logging provides the structured logger shared by every component
// of the daemon. It is a thin layer over log/slog.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LogLevel represents the logging level
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// LogFormat represents the logging format
type LogFormat string

const (
	FormatJSON LogFormat = "json"
	FormatText LogFormat = "text"
)

// Config holds the logger configuration
type Config struct {
	Level     LogLevel  `yaml:"level" json:"level"`
	Format    LogFormat `yaml:"format" json:"format"`
	Output    string    `yaml:"output" json:"output"` // "stdout", "stderr", or file path
	AddSource bool      `yaml:"add_source" json:"add_source"`
}

// DefaultConfig returns info level text logs on stdout.
func DefaultConfig() Config {
	return Config{
		Level:     LevelInfo,
		Format:    FormatText,
		Output:    "stdout",
		AddSource: false,
	}
}

// Logger wraps slog.Logger with a level that can be changed at runtime.
type Logger struct {
	*slog.Logger
	level  *slog.LevelVar
	closer io.Closer
}

// ToSlogLevel maps a configured level to slog, defaulting to info.
func (l LogLevel) ToSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds a logger. Timestamps are rendered using RFC3339.
func NewLogger(config Config) (*Logger, error) {
	var (
		writer io.Writer
		closer io.Closer
	)

	switch config.Output {
	case "stdout", "":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		if err := os.MkdirAll(filepath.Dir(config.Output), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		f, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}

		writer, closer = f, f
	}

	logger := NewLoggerWithWriter(writer, config)
	logger.closer = closer

	return logger, nil
}

// NewLoggerWithWriter builds a logger writing to w.
func NewLoggerWithWriter(w io.Writer, config Config) *Logger {
	level := new(slog.LevelVar)
	level.Set(config.Level.ToSlogLevel())

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: config.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if config.Format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
		level:  level,
	}
}

// SetLevel changes the level of this logger and every logger derived from it.
func (l *Logger) SetLevel(level LogLevel) {
	l.level.Set(level.ToSlogLevel())
}

// WithComponent adds a component field to the logger
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger: l.Logger.With("component", component),
		level:  l.level,
	}
}

// WithFields adds structured fields to the logger
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}

	return &Logger{
		Logger: l.Logger.With(args...),
		level:  l.level,
	}
}

// Close closes the log file, if the logger owns one.
func (l *Logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}

	return nil
}

// MetricsLogger writes metric flushes as structured log records.
type MetricsLogger struct {
	logger *Logger
}

// NewMetricsLogger scopes logger to the "metrics" component.
func NewMetricsLogger(logger *Logger) *MetricsLogger {
	return &MetricsLogger{
		logger: logger.WithComponent("metrics"),
	}
}

func (ml *MetricsLogger) log(kind, name string, value interface{}, labels map[string]string) {
	args := []interface{}{"metric_type", kind, "metric_name", name, "value", value}
	for k, v := range labels {
		args = append(args, "label_"+k, v)
	}

	ml.logger.Info(kind+" metric", args...)
}

// LogCounter logs a counter metric
func (ml *MetricsLogger) LogCounter(name string, value int64, labels map[string]string) {
	ml.log("counter", name, value, labels)
}

// LogGauge logs a gauge metric
func (ml *MetricsLogger) LogGauge(name string, value float64, labels map[string]string) {
	ml.log("gauge", name, value, labels)
}

// LogHistogram logs a histogram metric
func (ml *MetricsLogger) LogHistogram(name string, value float64, labels map[string]string) {
	ml.log("histogram", name, value, labels)
}

// LogTiming logs a duration in milliseconds.
func (ml *MetricsLogger) LogTiming(name string, duration time.Duration, labels map[string]string) {
	ml.log("timing", name, duration.Milliseconds(), labels)
}

var (
	globalMu     sync.RWMutex
	globalLogger *Logger
)

// SetGlobalLogger sets the logger used by the package-level helpers. Passing
// nil makes the next GetGlobalLogger build a default one.
func SetGlobalLogger(logger *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()

	globalLogger = logger
}

// GetGlobalLogger returns the global logger, creating a default stdout
// logger on first use.
func GetGlobalLogger() *Logger {
	globalMu.RLock()
	logger := globalLogger
	globalMu.RUnlock()

	if logger != nil {
		return logger
	}

	globalMu.Lock()
	defer globalMu.Unlock()

	if globalLogger == nil {
		globalLogger = NewLoggerWithWriter(os.Stdout, DefaultConfig())
	}

	return globalLogger
}

func Debug(msg string, args ...interface{}) {
	GetGlobalLogger().Debug(msg, args...)
}

func Info(msg string, args ...interface{}) {
	GetGlobalLogger().Info(msg, args...)
}

func Warn(msg string, args ...interface{}) {
	GetGlobalLogger().Warn(msg, args...)
}

func Error(msg string, args ...interface{}) {
	GetGlobalLogger().Error(msg, args...)
}

// WithComponent derives a component logger from the global logger.
func WithComponent(component string) *Logger {
	return GetGlobalLogger().WithComponent(component)
}

// WithFields derives a logger with fields from the global logger.
func WithFields(fields map[string]interface{}) *Logger {
	return GetGlobalLogger().WithFields(fields)
}
